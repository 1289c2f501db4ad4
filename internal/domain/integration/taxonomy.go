package integration

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ---------------------------------------------------------------------------
// Taxonomy naming
// ---------------------------------------------------------------------------

const (
	// TaxonomyProductCategory holds departments (hierarchical)
	TaxonomyProductCategory = "product_cat"
	// AttributeTaxonomyPrefix prefixes every attribute taxonomy name
	AttributeTaxonomyPrefix = "pa_"

	// FlagsAttributeSlug is the attribute holding New/Clearance/Special/Catalogue Only
	FlagsAttributeSlug = "aralco-flags"
	// SupplierAttributeSlug is the attribute holding supplier terms
	SupplierAttributeSlug = "supplier"
	// UncategorizedSlug is the fallback product category
	UncategorizedSlug = "uncategorized"
)

// Term meta keys
const (
	MetaOrder       = "order"
	MetaGridID      = "aralco_grid_id"
	MetaFilters     = "aralco_filters"
	MetaThumbnailID = "thumbnail_id"
	MetaSupplierID  = "aralco_supplier_id"
)

// Flag term names, in the order they are assigned
const (
	FlagNew           = "New"
	FlagClearance     = "Clearance"
	FlagSpecial       = "Special"
	FlagCatalogueOnly = "Catalogue Only"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9\-]`)
)

// SanitizeName returns an id safe string: trimmed, lowercased, whitespace runs
// collapsed to a single dash and every character outside [a-z0-9-] removed.
func SanitizeName(s string) string {
	// Casers carry state and are not shared across goroutines.
	s = cases.Lower(language.Und).String(strings.TrimSpace(s))
	s = whitespaceRun.ReplaceAllString(s, "-")
	return nonSlugChars.ReplaceAllString(s, "")
}

// AttributeTaxonomy returns the taxonomy name backing an attribute slug.
func AttributeTaxonomy(attributeSlug string) string {
	return AttributeTaxonomyPrefix + attributeSlug
}

// DepartmentSlug returns the product category slug for a remote department.
func DepartmentSlug(departmentID int) string {
	return fmt.Sprintf("department-%d", departmentID)
}

// GridSlug returns the attribute slug for a remote grid category (dimension).
func GridSlug(categoryID int) string {
	return fmt.Sprintf("grid-%d", categoryID)
}

// GroupingSlug returns the attribute slug for a remote grouping.
func GroupingSlug(group string) string {
	return "grouping-" + SanitizeName(group)
}

// SupplierSlug returns the term slug for a remote supplier.
func SupplierSlug(code string, supplierID int) string {
	return fmt.Sprintf("supplier-%s-%d", SanitizeName(code), supplierID)
}

// ValueSlug returns the slug of a value term inside an attribute taxonomy.
func ValueSlug(taxonomy, valueID string) string {
	return fmt.Sprintf("%s-val-%s", taxonomy, SanitizeName(valueID))
}

// OrderMetaKey returns the meta key holding a term's category position.
func OrderMetaKey(taxonomy string) string {
	return MetaOrder + "_" + taxonomy
}

// ---------------------------------------------------------------------------
// Taxonomy entities
// ---------------------------------------------------------------------------

// Attribute is a registered attribute taxonomy (grid, grouping, supplier, flags).
type Attribute struct {
	// ID is the local identifier
	ID uuid.UUID
	// Slug is the stable join key, e.g. "grid-12"
	Slug string
	// Name is the display name
	Name string
	// Type is the attribute input type
	Type string
	// OrderBy controls term ordering in the storefront
	OrderBy string
	// CreatedAt is when the attribute was registered
	CreatedAt time.Time
	// UpdatedAt is when the attribute was last updated
	UpdatedAt time.Time
}

// Taxonomy returns the taxonomy name of the attribute.
func (a *Attribute) Taxonomy() string {
	return AttributeTaxonomy(a.Slug)
}

// Term is a single taxonomy term (department, grid value, grouping value, supplier, flag).
type Term struct {
	ID          uuid.UUID
	Taxonomy    string
	Slug        string
	Name        string
	Description string
	ParentID    *uuid.UUID
	Meta        map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTerm creates an unsaved term with a fresh identifier.
func NewTerm(taxonomy, slug, name, description string) *Term {
	return &Term{
		ID:          uuid.New(),
		Taxonomy:    taxonomy,
		Slug:        slug,
		Name:        name,
		Description: description,
		Meta:        make(map[string]string),
	}
}

// ---------------------------------------------------------------------------
// Taxonomy store port
// ---------------------------------------------------------------------------

// TermStore persists attribute taxonomies and their terms.
type TermStore interface {
	// FindAttribute returns the attribute with the given slug or ErrNotFound
	FindAttribute(ctx context.Context, slug string) (*Attribute, error)
	// SaveAttribute creates or updates an attribute by ID
	SaveAttribute(ctx context.Context, attribute *Attribute) error

	// FindTermBySlug returns the term or ErrNotFound
	FindTermBySlug(ctx context.Context, taxonomy, slug string) (*Term, error)
	// FindTermByName returns the first term with the given display name or ErrNotFound
	FindTermByName(ctx context.Context, taxonomy, name string) (*Term, error)
	// ListTerms returns every term in a taxonomy
	ListTerms(ctx context.Context, taxonomy string) ([]*Term, error)
	// SaveTerm creates or updates a term by ID; slug must be unique per taxonomy
	SaveTerm(ctx context.Context, term *Term) error
	// SetTermParent links a term to its parent, nil clears the link
	SetTermParent(ctx context.Context, termID uuid.UUID, parentID *uuid.UUID) error

	// ReplaceTermMeta deletes every value for key and stores value
	ReplaceTermMeta(ctx context.Context, termID uuid.UUID, key, value string) error
	// DeleteTermMeta removes key from the term
	DeleteTermMeta(ctx context.Context, termID uuid.UUID, key string) error
	// GetTermMeta returns the value for key, or "" when absent
	GetTermMeta(ctx context.Context, termID uuid.UUID, key string) (string, error)
}
