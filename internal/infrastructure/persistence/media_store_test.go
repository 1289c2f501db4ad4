package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormMediaStore(t *testing.T) {
	db := newTestDatabase(t)
	store := NewGormMediaStore(db.DB)
	ctx := context.Background()

	owner := uuid.New()
	second := integration.NewMedia(owner, integration.MediaOwnerProduct, "product-1-1.jpg", "image/jpeg", 1)
	first := integration.NewMedia(owner, integration.MediaOwnerProduct, "product-1.jpg", "image/jpeg", 0)
	other := integration.NewMedia(uuid.New(), integration.MediaOwnerTerm, "department-3.png", "image/png", 0)
	for _, m := range []*integration.Media{second, first, other} {
		require.NoError(t, store.SaveMedia(ctx, m))
	}

	list, err := store.ListMedia(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	got, err := store.GetMedia(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, integration.MediaOwnerTerm, got.OwnerKind)
	assert.Equal(t, "department-3.png", got.StorageKey)

	removed, err := store.DeleteMediaForOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	list, err = store.ListMedia(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)

	removed, err = store.DeleteMediaForOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, removed)

	require.NoError(t, store.DeleteMedia(ctx, other.ID))
	_, err = store.GetMedia(ctx, other.ID)
	assert.ErrorIs(t, err, integration.ErrNotFound)
}
