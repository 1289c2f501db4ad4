package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaOwner is the kind of entity a media record is attached to
type MediaOwner string

const (
	MediaOwnerProduct MediaOwner = "product"
	MediaOwnerTerm    MediaOwner = "term"
)

// Media is a stored image attached to a product or a term
type Media struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	OwnerKind  MediaOwner
	Filename   string
	StorageKey string
	MimeType   string
	Position   int
	CreatedAt  time.Time
}

// NewMedia creates an unsaved media record.
func NewMedia(ownerID uuid.UUID, kind MediaOwner, filename, mimeType string, position int) *Media {
	return &Media{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		OwnerKind:  kind,
		Filename:   filename,
		StorageKey: filename,
		MimeType:   mimeType,
		Position:   position,
	}
}

// ImageExtension picks the file extension for a mime type: png and gif are
// recognised, everything else is stored as jpg.
func ImageExtension(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "png"):
		return ".png"
	case strings.Contains(mimeType, "gif"):
		return ".gif"
	default:
		return ".jpg"
	}
}

// ProductImageName returns the base file name for a product image.
func ProductImageName(productID int, mimeType string) string {
	return fmt.Sprintf("product-%d%s", productID, ImageExtension(mimeType))
}

// DepartmentImageName returns the base file name for a department image.
func DepartmentImageName(departmentID int, mimeType string) string {
	return fmt.Sprintf("department-%d%s", departmentID, ImageExtension(mimeType))
}

// MediaStore persists media records.
type MediaStore interface {
	// ListMedia returns the media attached to owner ordered by position
	ListMedia(ctx context.Context, ownerID uuid.UUID) ([]*Media, error)
	// GetMedia returns a media record or ErrNotFound
	GetMedia(ctx context.Context, id uuid.UUID) (*Media, error)
	// SaveMedia creates a media record
	SaveMedia(ctx context.Context, media *Media) error
	// DeleteMedia removes a single media record
	DeleteMedia(ctx context.Context, id uuid.UUID) error
	// DeleteMediaForOwner removes every media record of owner and returns them
	DeleteMediaForOwner(ctx context.Context, ownerID uuid.UUID) ([]*Media, error)
}

// ObjectStorage stores media binaries.
type ObjectStorage interface {
	// UniqueName returns name, or a suffixed variant of it, that is not yet taken
	UniqueName(ctx context.Context, name string) (string, error)
	// Put stores the object under key
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Delete removes the object; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}
