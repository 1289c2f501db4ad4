package integration

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// ImageService replaces product and department images with the current
// remote set.
type ImageService struct {
	remote   integration.RemoteCatalog
	media    integration.MediaStore
	storage  integration.ObjectStorage
	products integration.ProductStore
	terms    integration.TermStore
	logger   *zap.Logger
}

// NewImageService creates a new ImageService
func NewImageService(
	remote integration.RemoteCatalog,
	media integration.MediaStore,
	storage integration.ObjectStorage,
	products integration.ProductStore,
	terms integration.TermStore,
	logger *zap.Logger,
) *ImageService {
	return &ImageService{
		remote:   remote,
		media:    media,
		storage:  storage,
		products: products,
		terms:    terms,
		logger:   logger,
	}
}

// ReplaceProductImages drops every stored image of the product and stores
// the remote images in order: the first becomes the feature image, the rest
// form the gallery. Images tied to a barcode also become the feature image of
// the matching variant. The product is saved.
func (s *ImageService) ReplaceProductImages(ctx context.Context, product *integration.LocalProduct, hasDimension bool) error {
	removed, err := s.deleteOwnerMedia(ctx, product.ID)
	if err != nil {
		return err
	}
	product.FeatureImageID = nil
	product.Gallery = nil

	if product.IsVariable() && len(removed) > 0 {
		if err := s.clearVariantImages(ctx, product.ID, removed); err != nil {
			return err
		}
	}

	images, err := s.remote.GetImagesForProduct(ctx, product.ExternalID, hasDimension)
	if err != nil {
		return err
	}

	for i, img := range images {
		name := integration.ProductImageName(product.ExternalID, img.MimeType)
		m, err := s.store(ctx, product.ID, integration.MediaOwnerProduct, name, img, i)
		if err != nil {
			return fmt.Errorf("store image %d: %w", i, err)
		}

		if i == 0 {
			id := m.ID
			product.FeatureImageID = &id
		} else {
			product.Gallery = append(product.Gallery, m.ID)
		}

		if product.IsVariable() && img.Barcode >= 0 {
			if err := s.assignVariantImage(ctx, product.ID, img.Barcode, m.ID); err != nil {
				return err
			}
		}
	}

	return s.products.SaveProduct(ctx, product)
}

// ReplaceDepartmentImage replaces the thumbnail of a department term.
func (s *ImageService) ReplaceDepartmentImage(ctx context.Context, term *integration.Term, departmentID int) error {
	if _, err := s.deleteOwnerMedia(ctx, term.ID); err != nil {
		return err
	}

	img, err := s.remote.GetImageForDepartment(ctx, departmentID)
	if err != nil {
		return err
	}
	if img == nil || len(img.Data) == 0 {
		return s.terms.DeleteTermMeta(ctx, term.ID, integration.MetaThumbnailID)
	}

	name := integration.DepartmentImageName(departmentID, img.MimeType)
	m, err := s.store(ctx, term.ID, integration.MediaOwnerTerm, name, *img, 0)
	if err != nil {
		return err
	}
	return s.terms.ReplaceTermMeta(ctx, term.ID, integration.MetaThumbnailID, m.ID.String())
}

func (s *ImageService) store(
	ctx context.Context,
	ownerID uuid.UUID,
	kind integration.MediaOwner,
	name string,
	img integration.RemoteImage,
	position int,
) (*integration.Media, error) {
	unique, err := s.storage.UniqueName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Put(ctx, unique, img.Data, img.MimeType); err != nil {
		return nil, err
	}

	m := integration.NewMedia(ownerID, kind, unique, img.MimeType, position)
	if err := s.media.SaveMedia(ctx, m); err != nil {
		if derr := s.storage.Delete(ctx, unique); derr != nil {
			s.logger.Warn("failed to remove orphaned object", zap.String("key", unique), zap.Error(derr))
		}
		return nil, err
	}
	return m, nil
}

// deleteOwnerMedia removes media rows first, then their objects. A stray
// object is logged, not returned.
func (s *ImageService) deleteOwnerMedia(ctx context.Context, ownerID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	removed, err := s.media.DeleteMediaForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	ids := make(map[uuid.UUID]struct{}, len(removed))
	for _, m := range removed {
		ids[m.ID] = struct{}{}
		if err := s.storage.Delete(ctx, m.StorageKey); err != nil {
			s.logger.Warn("failed to delete image object",
				zap.String("owner_id", ownerID.String()),
				zap.String("key", m.StorageKey),
				zap.Error(err),
			)
		}
	}
	return ids, nil
}

func (s *ImageService) clearVariantImages(ctx context.Context, parentID uuid.UUID, removed map[uuid.UUID]struct{}) error {
	variants, err := s.products.ListVariants(ctx, parentID)
	if err != nil {
		return err
	}
	for _, v := range variants {
		if v.FeatureImageID == nil {
			continue
		}
		if _, ok := removed[*v.FeatureImageID]; !ok {
			continue
		}
		v.FeatureImageID = nil
		if err := s.products.SaveVariant(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// assignVariantImage sets the image on the first variant whose barcode
// matches. No match is not an error.
func (s *ImageService) assignVariantImage(ctx context.Context, parentID uuid.UUID, barcode int64, mediaID uuid.UUID) error {
	v, err := s.products.FindVariantByBarcode(ctx, parentID, integration.BarcodeKey(strconv.FormatInt(barcode, 10)))
	if err != nil {
		if errors.Is(err, integration.ErrNotFound) {
			return nil
		}
		return err
	}
	id := mediaID
	v.FeatureImageID = &id
	return s.products.SaveVariant(ctx, v)
}
