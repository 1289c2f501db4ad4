package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// ============================================================================
// Remote catalog mock
// ============================================================================

// MockRemoteCatalog is a mock implementation of RemoteCatalog
type MockRemoteCatalog struct {
	mock.Mock
}

func (m *MockRemoteCatalog) GetServerTime(ctx context.Context) (*integration.ServerTime, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ServerTime), args.Error(1)
}

func (m *MockRemoteCatalog) GetProducts(ctx context.Context, since time.Time) ([]integration.RemoteProduct, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteProduct), args.Error(1)
}

func (m *MockRemoteCatalog) GetProductStock(ctx context.Context, since time.Time) ([]integration.RemoteStock, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteStock), args.Error(1)
}

func (m *MockRemoteCatalog) GetProductStockByIDs(ctx context.Context, productIDs []int) ([]integration.RemoteStock, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteStock), args.Error(1)
}

func (m *MockRemoteCatalog) GetGrids(ctx context.Context) ([]integration.RemoteGrid, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteGrid), args.Error(1)
}

func (m *MockRemoteCatalog) GetGroupings(ctx context.Context) ([]integration.RemoteGrouping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteGrouping), args.Error(1)
}

func (m *MockRemoteCatalog) GetDepartments(ctx context.Context) ([]integration.RemoteDepartment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteDepartment), args.Error(1)
}

func (m *MockRemoteCatalog) GetSuppliers(ctx context.Context) ([]integration.RemoteSupplier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteSupplier), args.Error(1)
}

func (m *MockRemoteCatalog) GetDisabledProducts(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockRemoteCatalog) GetActivePromotions(ctx context.Context) ([]integration.RemotePromotion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemotePromotion), args.Error(1)
}

func (m *MockRemoteCatalog) GetSetting(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockRemoteCatalog) GetProductBarcodes(ctx context.Context, productID int) ([]integration.RemoteBarcode, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteBarcode), args.Error(1)
}

func (m *MockRemoteCatalog) GetImagesForProduct(ctx context.Context, productID int, hasDimension bool) ([]integration.RemoteImage, error) {
	args := m.Called(ctx, productID, hasDimension)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteImage), args.Error(1)
}

func (m *MockRemoteCatalog) GetImageForDepartment(ctx context.Context, departmentID int) (*integration.RemoteImage, error) {
	args := m.Called(ctx, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RemoteImage), args.Error(1)
}

func (m *MockRemoteCatalog) GetCustomer(ctx context.Context, field, value string) (*integration.RemoteCustomer, error) {
	args := m.Called(ctx, field, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RemoteCustomer), args.Error(1)
}

func (m *MockRemoteCatalog) CreateCustomer(ctx context.Context, customer *integration.RemoteCustomer) (int, error) {
	args := m.Called(ctx, customer)
	return args.Int(0), args.Error(1)
}

func (m *MockRemoteCatalog) UpdateCustomer(ctx context.Context, customer *integration.RemoteCustomer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockRemoteCatalog) CreateOrder(ctx context.Context, payload *integration.OrderPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

var _ integration.RemoteCatalog = (*MockRemoteCatalog)(nil)

// ============================================================================
// In-memory stores
// ============================================================================

// memStore is an in-memory ProductStore, TermStore and MediaStore
type memStore struct {
	mu sync.Mutex

	products     map[uuid.UUID]integration.LocalProduct
	variants     map[uuid.UUID]integration.Variant
	productTerms map[uuid.UUID]map[string][]uuid.UUID
	stock        map[uuid.UUID]integration.StockLevel
	stockWrites  map[uuid.UUID]int

	attributes map[string]integration.Attribute
	terms      map[uuid.UUID]integration.Term

	media map[uuid.UUID]integration.Media
}

func newMemStore() *memStore {
	return &memStore{
		products:     make(map[uuid.UUID]integration.LocalProduct),
		variants:     make(map[uuid.UUID]integration.Variant),
		productTerms: make(map[uuid.UUID]map[string][]uuid.UUID),
		stock:        make(map[uuid.UUID]integration.StockLevel),
		stockWrites:  make(map[uuid.UUID]int),
		attributes:   make(map[string]integration.Attribute),
		terms:        make(map[uuid.UUID]integration.Term),
		media:        make(map[uuid.UUID]integration.Media),
	}
}

var (
	_ integration.ProductStore = (*memStore)(nil)
	_ integration.TermStore    = (*memStore)(nil)
	_ integration.MediaStore   = (*memStore)(nil)
)

func copyTerm(t integration.Term) *integration.Term {
	meta := make(map[string]string, len(t.Meta))
	for k, v := range t.Meta {
		meta[k] = v
	}
	t.Meta = meta
	return &t
}

func copyVariant(v integration.Variant) *integration.Variant {
	attrs := make(map[string]string, len(v.Attributes))
	for k, val := range v.Attributes {
		attrs[k] = val
	}
	v.Attributes = attrs
	return &v
}

func copyProduct(p integration.LocalProduct) *integration.LocalProduct {
	p.Attributes = append([]integration.ProductAttribute(nil), p.Attributes...)
	p.Gallery = append([]uuid.UUID(nil), p.Gallery...)
	p.CategoryIDs = append([]uuid.UUID(nil), p.CategoryIDs...)
	return &p
}

// --- ProductStore ---

func (s *memStore) GetProduct(_ context.Context, id uuid.UUID) (*integration.LocalProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, integration.ErrNotFound
	}
	return copyProduct(p), nil
}

func (s *memStore) FindProductByExternalID(_ context.Context, externalID int, statuses ...integration.ProductStatus) (*integration.LocalProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.sortedProducts() {
		if p.ExternalID != externalID {
			continue
		}
		if len(statuses) == 0 || containsStatus(statuses, p.Status) {
			return copyProduct(p), nil
		}
	}
	return nil, integration.ErrNotFound
}

func (s *memStore) sortedProducts() []integration.LocalProduct {
	list := make([]integration.LocalProduct, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

func containsStatus(statuses []integration.ProductStatus, s integration.ProductStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s *memStore) SaveProduct(_ context.Context, product *integration.LocalProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.products[product.ID]; ok {
		product.CreatedAt = existing.CreatedAt
	} else if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	s.products[product.ID] = *copyProduct(*product)
	return nil
}

func (s *memStore) SetProductStatus(_ context.Context, id uuid.UUID, status integration.ProductStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return integration.ErrNotFound
	}
	p.Status = status
	s.products[id] = p
	return nil
}

func (s *memStore) SetProductTerms(_ context.Context, productID uuid.UUID, taxonomy string, termIDs []uuid.UUID, appendTerms bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTax, ok := s.productTerms[productID]
	if !ok {
		byTax = make(map[string][]uuid.UUID)
		s.productTerms[productID] = byTax
	}
	if !appendTerms {
		byTax[taxonomy] = append([]uuid.UUID(nil), termIDs...)
		return nil
	}
	for _, id := range termIDs {
		found := false
		for _, existing := range byTax[taxonomy] {
			if existing == id {
				found = true
				break
			}
		}
		if !found {
			byTax[taxonomy] = append(byTax[taxonomy], id)
		}
	}
	return nil
}

func (s *memStore) ListProductTerms(_ context.Context, productID uuid.UUID, taxonomy string) ([]*integration.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*integration.Term
	for _, id := range s.productTerms[productID][taxonomy] {
		if t, ok := s.terms[id]; ok {
			out = append(out, copyTerm(t))
		}
	}
	return out, nil
}

func (s *memStore) GetVariant(_ context.Context, id uuid.UUID) (*integration.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variants[id]
	if !ok {
		return nil, integration.ErrNotFound
	}
	return copyVariant(v), nil
}

func (s *memStore) FindVariantByUID(_ context.Context, uid string) (*integration.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.variants {
		if v.UID == uid {
			return copyVariant(v), nil
		}
	}
	return nil, integration.ErrNotFound
}

func (s *memStore) FindVariantByBarcode(_ context.Context, parentID uuid.UUID, barcode string) (*integration.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.sortedVariants(parentID) {
		if v.Barcode == barcode {
			return copyVariant(v), nil
		}
	}
	return nil, integration.ErrNotFound
}

func (s *memStore) sortedVariants(parentID uuid.UUID) []integration.Variant {
	var list []integration.Variant
	for _, v := range s.variants {
		if v.ParentID == parentID {
			list = append(list, v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UID < list[j].UID })
	return list
}

func (s *memStore) ListVariants(_ context.Context, parentID uuid.UUID) ([]*integration.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*integration.Variant
	for _, v := range s.sortedVariants(parentID) {
		out = append(out, copyVariant(v))
	}
	return out, nil
}

func (s *memStore) SaveVariant(_ context.Context, variant *integration.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[variant.ID] = *copyVariant(*variant)
	return nil
}

func (s *memStore) ApplyStock(_ context.Context, target integration.StockTarget, level integration.StockLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[target.ID] = level
	s.stockWrites[target.ID]++
	return nil
}

func (s *memStore) ClearSalesExcept(_ context.Context, keep []int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make(map[int]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}
	var n int64
	for id, p := range s.products {
		if p.Status != integration.ProductStatusPublish || kept[p.ExternalID] {
			continue
		}
		p.ClearSale()
		s.products[id] = p
		n++
	}
	return n, nil
}

func (s *memStore) TrashByExternalIDs(_ context.Context, externalIDs []int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[int]bool, len(externalIDs))
	for _, id := range externalIDs {
		ids[id] = true
	}
	var n int64
	for id, p := range s.products {
		if ids[p.ExternalID] && p.Status != integration.ProductStatusTrash {
			p.Status = integration.ProductStatusTrash
			s.products[id] = p
			n++
		}
	}
	return n, nil
}

// --- TermStore ---

func (s *memStore) FindAttribute(_ context.Context, slug string) (*integration.Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attributes[slug]
	if !ok {
		return nil, integration.ErrNotFound
	}
	return &a, nil
}

func (s *memStore) SaveAttribute(_ context.Context, attribute *integration.Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes[attribute.Slug] = *attribute
	return nil
}

func (s *memStore) FindTermBySlug(_ context.Context, taxonomy, slug string) (*integration.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.terms {
		if t.Taxonomy == taxonomy && t.Slug == slug {
			return copyTerm(t), nil
		}
	}
	return nil, integration.ErrNotFound
}

func (s *memStore) FindTermByName(_ context.Context, taxonomy, name string) (*integration.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.terms {
		if t.Taxonomy == taxonomy && t.Name == name {
			return copyTerm(t), nil
		}
	}
	return nil, integration.ErrNotFound
}

func (s *memStore) ListTerms(_ context.Context, taxonomy string) ([]*integration.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*integration.Term
	for _, t := range s.terms {
		if t.Taxonomy == taxonomy {
			out = append(out, copyTerm(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (s *memStore) SaveTerm(_ context.Context, term *integration.Term) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.terms {
		if id != term.ID && t.Taxonomy == term.Taxonomy && t.Slug == term.Slug {
			return fmt.Errorf("duplicate slug %s in %s", term.Slug, term.Taxonomy)
		}
	}
	stored := *copyTerm(*term)
	if existing, ok := s.terms[term.ID]; ok {
		for k, v := range existing.Meta {
			if _, set := stored.Meta[k]; !set {
				stored.Meta[k] = v
			}
		}
	}
	s.terms[term.ID] = stored
	return nil
}

func (s *memStore) SetTermParent(_ context.Context, termID uuid.UUID, parentID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.terms[termID]
	if !ok {
		return integration.ErrNotFound
	}
	t.ParentID = parentID
	s.terms[termID] = t
	return nil
}

func (s *memStore) ReplaceTermMeta(_ context.Context, termID uuid.UUID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.terms[termID]
	if !ok {
		return integration.ErrNotFound
	}
	t.Meta[key] = value
	return nil
}

func (s *memStore) DeleteTermMeta(_ context.Context, termID uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.terms[termID]; ok {
		delete(t.Meta, key)
	}
	return nil
}

func (s *memStore) GetTermMeta(_ context.Context, termID uuid.UUID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terms[termID].Meta[key], nil
}

// --- MediaStore ---

func (s *memStore) ListMedia(_ context.Context, ownerID uuid.UUID) ([]*integration.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*integration.Media
	for _, m := range s.media {
		if m.OwnerID == ownerID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *memStore) GetMedia(_ context.Context, id uuid.UUID) (*integration.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok {
		return nil, integration.ErrNotFound
	}
	return &m, nil
}

func (s *memStore) SaveMedia(_ context.Context, media *integration.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[media.ID] = *media
	return nil
}

func (s *memStore) DeleteMedia(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.media, id)
	return nil
}

func (s *memStore) DeleteMediaForOwner(_ context.Context, ownerID uuid.UUID) ([]*integration.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*integration.Media
	for id, m := range s.media {
		if m.OwnerID == ownerID {
			m := m
			out = append(out, &m)
			delete(s.media, id)
		}
	}
	return out, nil
}

// --- helpers ---

func (s *memStore) productCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products)
}

func (s *memStore) variantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.variants)
}

func (s *memStore) termIDs(productID uuid.UUID, taxonomy string) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.productTerms[productID][taxonomy]...)
}

// addAttribute registers an attribute with value terms named after values.
func (s *memStore) addAttribute(slug string, values ...string) *integration.Attribute {
	attr := integration.Attribute{ID: uuid.New(), Slug: slug, Name: slug}
	s.attributes[slug] = attr
	for _, v := range values {
		term := integration.NewTerm(attr.Taxonomy(), integration.ValueSlug(attr.Taxonomy(), v), v, "")
		s.terms[term.ID] = *term
	}
	return &attr
}

func (s *memStore) addTerm(taxonomy, slug, name string) *integration.Term {
	term := integration.NewTerm(taxonomy, slug, name, "")
	s.terms[term.ID] = *term
	return term
}

// memObjects is an in-memory ObjectStorage
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (o *memObjects) UniqueName(_ context.Context, name string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, taken := o.objects[name]; !taken {
		return name, nil
	}
	dot := strings.LastIndex(name, ".")
	base, ext := name, ""
	if dot >= 0 {
		base, ext = name[:dot], name[dot:]
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", base, i, ext)
		if _, taken := o.objects[candidate]; !taken {
			return candidate, nil
		}
	}
}

func (o *memObjects) Put(_ context.Context, key string, data []byte, _ string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = data
	return nil
}

func (o *memObjects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	return nil
}

func (o *memObjects) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.objects)
}

// memStates is an in-memory SyncStateRepository
type memStates struct {
	states map[integration.SyncType]integration.SyncState
}

func newMemStates() *memStates {
	return &memStates{states: make(map[integration.SyncType]integration.SyncState)}
}

func (r *memStates) Get(_ context.Context, syncType integration.SyncType) (*integration.SyncState, error) {
	s, ok := r.states[syncType]
	if !ok {
		return nil, integration.ErrNotFound
	}
	return &s, nil
}

func (r *memStates) List(_ context.Context) ([]*integration.SyncState, error) {
	var out []*integration.SyncState
	for _, s := range r.states {
		s := s
		out = append(out, &s)
	}
	return out, nil
}

func (r *memStates) Save(_ context.Context, state *integration.SyncState) error {
	r.states[state.Type] = *state
	return nil
}

// ============================================================================
// Fixtures
// ============================================================================

func testRun(settings Settings) *RunContext {
	return &RunContext{
		RunID:        uuid.New(),
		Settings:     settings,
		Logger:       zap.NewNop(),
		placeholders: make(map[string]struct{}),
		suppliers:    make(map[int]uuid.UUID),
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
