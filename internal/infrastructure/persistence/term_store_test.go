package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTermStore_Attributes(t *testing.T) {
	db := newTestDatabase(t)
	store := NewGormTermStore(db.DB)
	ctx := context.Background()

	_, err := store.FindAttribute(ctx, "grid-12")
	assert.ErrorIs(t, err, integration.ErrNotFound)

	attr := &integration.Attribute{ID: uuid.New(), Slug: "grid-12", Name: "Colour", Type: "select", OrderBy: "menu_order"}
	require.NoError(t, store.SaveAttribute(ctx, attr))

	attr.Name = "Color"
	require.NoError(t, store.SaveAttribute(ctx, attr))

	got, err := store.FindAttribute(ctx, "grid-12")
	require.NoError(t, err)
	assert.Equal(t, "Color", got.Name)
	assert.Equal(t, "pa_grid-12", got.Taxonomy())
}

func TestGormTermStore_Terms(t *testing.T) {
	db := newTestDatabase(t)
	store := NewGormTermStore(db.DB)
	ctx := context.Background()
	taxonomy := integration.AttributeTaxonomy(integration.SupplierAttributeSlug)

	acme := integration.NewTerm(taxonomy, integration.SupplierSlug("ACME", 4), "Acme", "")
	acme.Meta[integration.MetaSupplierID] = "4"
	require.NoError(t, store.SaveTerm(ctx, acme))

	bolt := integration.NewTerm(taxonomy, integration.SupplierSlug("BOLT", 5), "Bolt", "")
	bolt.Meta[integration.MetaSupplierID] = "5"
	require.NoError(t, store.SaveTerm(ctx, bolt))

	t.Run("find by slug and name load meta", func(t *testing.T) {
		got, err := store.FindTermBySlug(ctx, taxonomy, "supplier-acme-4")
		require.NoError(t, err)
		assert.Equal(t, acme.ID, got.ID)
		assert.Equal(t, "4", got.Meta[integration.MetaSupplierID])

		got, err = store.FindTermByName(ctx, taxonomy, "Bolt")
		require.NoError(t, err)
		assert.Equal(t, bolt.ID, got.ID)

		_, err = store.FindTermBySlug(ctx, integration.TaxonomyProductCategory, "supplier-acme-4")
		assert.ErrorIs(t, err, integration.ErrNotFound)
	})

	t.Run("list returns every term with meta", func(t *testing.T) {
		list, err := store.ListTerms(ctx, taxonomy)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Acme", list[0].Name)
		assert.Equal(t, "5", list[1].Meta[integration.MetaSupplierID])
	})

	t.Run("slug is unique per taxonomy", func(t *testing.T) {
		dup := integration.NewTerm(taxonomy, "supplier-acme-4", "Other", "")
		assert.Error(t, store.SaveTerm(ctx, dup))

		elsewhere := integration.NewTerm(integration.TaxonomyProductCategory, "supplier-acme-4", "Other", "")
		assert.NoError(t, store.SaveTerm(ctx, elsewhere))
	})
}

func TestGormTermStore_ParentAndMeta(t *testing.T) {
	db := newTestDatabase(t)
	store := NewGormTermStore(db.DB)
	ctx := context.Background()

	root := integration.NewTerm(integration.TaxonomyProductCategory, "department-1", "Apparel", "")
	child := integration.NewTerm(integration.TaxonomyProductCategory, "department-2", "Shirts", "")
	require.NoError(t, store.SaveTerm(ctx, root))
	require.NoError(t, store.SaveTerm(ctx, child))

	require.NoError(t, store.SetTermParent(ctx, child.ID, &root.ID))
	got, err := store.FindTermBySlug(ctx, integration.TaxonomyProductCategory, "department-2")
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, root.ID, *got.ParentID)

	require.NoError(t, store.SetTermParent(ctx, child.ID, nil))
	got, err = store.FindTermBySlug(ctx, integration.TaxonomyProductCategory, "department-2")
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)

	assert.ErrorIs(t, store.SetTermParent(ctx, uuid.New(), nil), integration.ErrNotFound)

	key := integration.OrderMetaKey(integration.TaxonomyProductCategory)
	require.NoError(t, store.ReplaceTermMeta(ctx, child.ID, key, "1"))
	require.NoError(t, store.ReplaceTermMeta(ctx, child.ID, key, "3"))

	value, err := store.GetTermMeta(ctx, child.ID, key)
	require.NoError(t, err)
	assert.Equal(t, "3", value)

	require.NoError(t, store.DeleteTermMeta(ctx, child.ID, key))
	value, err = store.GetTermMeta(ctx, child.ID, key)
	require.NoError(t, err)
	assert.Empty(t, value)
}
