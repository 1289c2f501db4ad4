package integration

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// Attribute defaults for mirrored taxonomies
const (
	attributeTypeSelect = "select"
	attributeOrderBy    = "menu_order"
)

// TaxonomyService mirrors remote departments, grids, groupings and suppliers
// into local taxonomies.
type TaxonomyService struct {
	remote integration.RemoteCatalog
	terms  integration.TermStore
	images *ImageService
	logger *zap.Logger
	now    func() time.Time
}

// NewTaxonomyService creates a new TaxonomyService
func NewTaxonomyService(
	remote integration.RemoteCatalog,
	terms integration.TermStore,
	images *ImageService,
	logger *zap.Logger,
) *TaxonomyService {
	return &TaxonomyService{
		remote: remote,
		terms:  terms,
		images: images,
		logger: logger,
		now:    time.Now,
	}
}

// attributeGroup is one category of flat remote rows.
type attributeGroup struct {
	slug   string
	name   string
	values []attributeValue
}

type metaEntry struct {
	key   string
	value string
}

// attributeValue is one value row inside a category.
type attributeValue struct {
	// key identifies the value inside its category and feeds the slug
	key string
	// slug overrides the derived {taxonomy}-val-{key} slug
	slug        string
	name        string
	description string
	meta        []metaEntry
}

// ---------------------------------------------------------------------------
// Grids, groupings and suppliers
// ---------------------------------------------------------------------------

// SyncGrids mirrors every grid category as a grid-{id} attribute.
func (s *TaxonomyService) SyncGrids(ctx context.Context, run *RunContext) (*integration.SyncResult, error) {
	rows, err := s.remote.GetGrids(ctx)
	if err != nil {
		return nil, err
	}

	var groups []*attributeGroup
	index := make(map[int]*attributeGroup)
	for _, row := range rows {
		g, ok := index[row.CategoryId]
		if !ok {
			g = &attributeGroup{slug: integration.GridSlug(row.CategoryId), name: row.CategoryName}
			index[row.CategoryId] = g
			groups = append(groups, g)
		}
		valueID := strconv.Itoa(row.ValueId)
		g.values = append(g.values, attributeValue{
			key:  valueID,
			name: row.ValueName,
			meta: []metaEntry{{key: integration.MetaGridID, value: valueID}},
		})
	}

	return s.syncAttributes(ctx, run, integration.SyncTypeGrids, groups), nil
}

// SyncGroupings mirrors every grouping as a grouping-{name} attribute.
// Rows without a grouping list are not groupings and are ignored.
func (s *TaxonomyService) SyncGroupings(ctx context.Context, run *RunContext) (*integration.SyncResult, error) {
	rows, err := s.remote.GetGroupings(ctx)
	if err != nil {
		return nil, err
	}

	var groups []*attributeGroup
	index := make(map[string]*attributeGroup)
	for _, row := range rows {
		if row.GroupingListID == 0 || strings.TrimSpace(row.Group) == "" {
			continue
		}
		slug := integration.GroupingSlug(row.Group)
		g, ok := index[slug]
		if !ok {
			name := row.GroupDescription
			if name == "" {
				name = row.Group
			}
			g = &attributeGroup{slug: slug, name: name}
			index[slug] = g
			groups = append(groups, g)
		}
		description := ""
		if row.ValueDescription != nil {
			description = *row.ValueDescription
		}
		g.values = append(g.values, attributeValue{
			key:         row.Value,
			name:        row.Value,
			description: description,
		})
	}

	return s.syncAttributes(ctx, run, integration.SyncTypeGroupings, groups), nil
}

// SyncSuppliers mirrors suppliers as terms of the supplier attribute. The
// aralco_supplier_id meta on each term is the id table read by later runs.
func (s *TaxonomyService) SyncSuppliers(ctx context.Context, run *RunContext) (*integration.SyncResult, error) {
	rows, err := s.remote.GetSuppliers(ctx)
	if err != nil {
		return nil, err
	}

	group := &attributeGroup{slug: integration.SupplierAttributeSlug, name: "Supplier"}
	for _, row := range rows {
		id := strconv.Itoa(row.Id)
		group.values = append(group.values, attributeValue{
			key:  id,
			slug: integration.SupplierSlug(row.Code, row.Id),
			name: row.Name,
			meta: []metaEntry{{key: integration.MetaSupplierID, value: id}},
		})
	}

	return s.syncAttributes(ctx, run, integration.SyncTypeSuppliers, []*attributeGroup{group}), nil
}

// syncAttributes upserts every category and its values. Failures are logged
// and recorded, never aborting the remaining categories.
func (s *TaxonomyService) syncAttributes(ctx context.Context, run *RunContext, syncType integration.SyncType, groups []*attributeGroup) *integration.SyncResult {
	result := integration.NewSyncResult(syncType, s.now())
	log := run.Logger

	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			result.RecordFailure(g.slug, err)
			break
		}

		attr, err := s.ensureAttribute(ctx, g.slug, g.name)
		if err != nil {
			log.Warn("failed to save attribute", zap.String("attribute", g.slug), zap.Error(err))
			result.RecordFailure(g.slug, err)
			continue
		}

		taxonomy := attr.Taxonomy()
		for j, v := range g.values {
			slug, err := s.upsertValue(ctx, taxonomy, i, j, v)
			if err != nil {
				log.Warn("failed to save attribute value",
					zap.String("taxonomy", taxonomy),
					zap.String("value", v.key),
					zap.Error(err),
				)
				result.RecordFailure(slug, err)
				continue
			}
			result.RecordSuccess()
		}
	}

	result.Finish(s.now())
	return result
}

// ensureAttribute finds or creates an attribute by slug. The slug of an
// existing attribute never changes, only its display fields.
func (s *TaxonomyService) ensureAttribute(ctx context.Context, slug, name string) (*integration.Attribute, error) {
	attr, err := s.terms.FindAttribute(ctx, slug)
	if err != nil && !errors.Is(err, integration.ErrNotFound) {
		return nil, err
	}
	if attr == nil {
		attr = &integration.Attribute{
			ID:      uuid.New(),
			Slug:    slug,
			Type:    attributeTypeSelect,
			OrderBy: attributeOrderBy,
		}
	}
	if name == "" {
		name = slug
	}
	attr.Name = name
	if err := s.terms.SaveAttribute(ctx, attr); err != nil {
		return nil, err
	}
	return attr, nil
}

func (s *TaxonomyService) upsertValue(ctx context.Context, taxonomy string, groupIndex, valueIndex int, v attributeValue) (string, error) {
	slug := v.slug
	if slug == "" {
		slug = integration.ValueSlug(taxonomy, v.key)
	}

	term, err := s.terms.FindTermBySlug(ctx, taxonomy, slug)
	if err != nil && !errors.Is(err, integration.ErrNotFound) {
		return slug, err
	}
	if term == nil {
		term = integration.NewTerm(taxonomy, slug, v.name, v.description)
	}
	term.Name = v.name
	term.Description = v.description
	if err := s.terms.SaveTerm(ctx, term); err != nil {
		return slug, err
	}

	meta := append([]metaEntry{
		{key: integration.MetaOrder, value: strconv.Itoa(valueIndex)},
		{key: integration.OrderMetaKey(taxonomy), value: strconv.Itoa(groupIndex)},
	}, v.meta...)
	for _, m := range meta {
		if err := s.terms.ReplaceTermMeta(ctx, term.ID, m.key, m.value); err != nil {
			return slug, err
		}
	}
	return slug, nil
}

// ---------------------------------------------------------------------------
// Departments
// ---------------------------------------------------------------------------

// SyncDepartments mirrors the department tree into product_cat in two
// phases: every department term is saved first, then parents are linked.
func (s *TaxonomyService) SyncDepartments(ctx context.Context, run *RunContext) (*integration.SyncResult, error) {
	departments, err := s.remote.GetDepartments(ctx)
	if err != nil {
		return nil, err
	}

	result := integration.NewSyncResult(integration.SyncTypeDepartments, s.now())
	slugs := s.saveDepartments(ctx, run, departments, result)
	s.linkDepartments(ctx, run, departments, slugs)
	result.Finish(s.now())
	return result, nil
}

// saveDepartments is the first phase. It returns the term id of every saved
// department keyed by slug.
func (s *TaxonomyService) saveDepartments(
	ctx context.Context,
	run *RunContext,
	departments []integration.RemoteDepartment,
	result *integration.SyncResult,
) map[string]uuid.UUID {
	slugs := make(map[string]uuid.UUID, len(departments))

	for _, d := range departments {
		if err := ctx.Err(); err != nil {
			result.RecordFailure(strconv.Itoa(d.Id), err)
			break
		}
		term, err := s.saveDepartment(ctx, run, d)
		if err != nil {
			run.Logger.Warn("failed to save department", zap.Int("department_id", d.Id), zap.Error(err))
			result.RecordFailure(strconv.Itoa(d.Id), err)
			continue
		}
		slugs[term.Slug] = term.ID
		result.RecordSuccess()
	}
	return slugs
}

func (s *TaxonomyService) saveDepartment(ctx context.Context, run *RunContext, d integration.RemoteDepartment) (*integration.Term, error) {
	slug := integration.DepartmentSlug(d.Id)
	description := ""
	if d.Description != nil {
		description = *d.Description
	}

	term, err := s.terms.FindTermBySlug(ctx, integration.TaxonomyProductCategory, slug)
	if err != nil && !errors.Is(err, integration.ErrNotFound) {
		return nil, err
	}
	if term == nil {
		term = integration.NewTerm(integration.TaxonomyProductCategory, slug, d.Name, description)
	}
	term.Name = d.Name
	term.Description = description
	if err := s.terms.SaveTerm(ctx, term); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(d.Filters))
	for _, f := range d.Filters {
		if f.Name != "" {
			names = append(names, f.Name)
		}
	}
	if len(names) > 0 {
		err = s.terms.ReplaceTermMeta(ctx, term.ID, integration.MetaFilters, strings.Join(names, ","))
	} else {
		err = s.terms.DeleteTermMeta(ctx, term.ID, integration.MetaFilters)
	}
	if err != nil {
		return nil, err
	}

	if s.images != nil {
		if err := s.images.ReplaceDepartmentImage(ctx, term, d.Id); err != nil {
			run.Logger.Warn("failed to replace department image", zap.Int("department_id", d.Id), zap.Error(err))
		}
	}
	return term, nil
}

// linkDepartments is the second phase. A child whose parent is missing is
// left unlinked.
func (s *TaxonomyService) linkDepartments(ctx context.Context, run *RunContext, departments []integration.RemoteDepartment, slugs map[string]uuid.UUID) {
	for _, d := range departments {
		if ctx.Err() != nil {
			return
		}
		childID, ok := s.resolveDepartment(ctx, slugs, integration.DepartmentSlug(d.Id))
		if !ok {
			continue
		}

		var parentID *uuid.UUID
		if d.ParentId != nil && *d.ParentId != 0 {
			id, ok := s.resolveDepartment(ctx, slugs, integration.DepartmentSlug(*d.ParentId))
			if !ok {
				run.Logger.Debug("department parent not found",
					zap.Int("department_id", d.Id),
					zap.Int("parent_id", *d.ParentId),
				)
				continue
			}
			parentID = &id
		}

		if err := s.terms.SetTermParent(ctx, childID, parentID); err != nil {
			run.Logger.Warn("failed to link department", zap.Int("department_id", d.Id), zap.Error(err))
		}
	}
}

func (s *TaxonomyService) resolveDepartment(ctx context.Context, slugs map[string]uuid.UUID, slug string) (uuid.UUID, bool) {
	if id, ok := slugs[slug]; ok {
		return id, true
	}
	term, err := s.terms.FindTermBySlug(ctx, integration.TaxonomyProductCategory, slug)
	if err != nil {
		return uuid.Nil, false
	}
	slugs[slug] = term.ID
	return term.ID, true
}
