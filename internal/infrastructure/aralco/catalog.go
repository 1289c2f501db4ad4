package aralco

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/storesync/backend/internal/domain/integration"
)

func sinceQuery(since time.Time) url.Values {
	return url.Values{"from": {since.UTC().Format(integration.RemoteTimeLayout)}}
}

// GetServerTime returns the remote clock. Any failure is reported as
// ErrRemoteTimeUnavailable.
func (c *Client) GetServerTime(ctx context.Context) (*integration.ServerTime, error) {
	var st integration.ServerTime
	if err := c.get(ctx, pathServerTime, nil, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrRemoteTimeUnavailable, err)
	}
	return &st, nil
}

// GetProducts returns products changed since the given remote time.
func (c *Client) GetProducts(ctx context.Context, since time.Time) ([]integration.RemoteProduct, error) {
	var products []integration.RemoteProduct
	if err := c.get(ctx, pathProducts, sinceQuery(since), &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductStock returns stock rows changed since the given remote time.
func (c *Client) GetProductStock(ctx context.Context, since time.Time) ([]integration.RemoteStock, error) {
	var rows []integration.RemoteStock
	if err := c.get(ctx, pathStockUpdated, sinceQuery(since), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetProductStockByIDs returns the current stock rows of the given products.
func (c *Client) GetProductStockByIDs(ctx context.Context, productIDs []int) ([]integration.RemoteStock, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []integration.RemoteStock
	if err := c.post(ctx, pathStockByIDs, productIDs, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetGrids(ctx context.Context) ([]integration.RemoteGrid, error) {
	var grids []integration.RemoteGrid
	if err := c.get(ctx, pathGrids, nil, &grids); err != nil {
		return nil, err
	}
	return grids, nil
}

func (c *Client) GetGroupings(ctx context.Context) ([]integration.RemoteGrouping, error) {
	var groupings []integration.RemoteGrouping
	if err := c.get(ctx, pathGroupings, nil, &groupings); err != nil {
		return nil, err
	}
	return groupings, nil
}

func (c *Client) GetDepartments(ctx context.Context) ([]integration.RemoteDepartment, error) {
	var departments []integration.RemoteDepartment
	if err := c.get(ctx, pathDepartments, nil, &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

func (c *Client) GetSuppliers(ctx context.Context) ([]integration.RemoteSupplier, error) {
	var suppliers []integration.RemoteSupplier
	if err := c.get(ctx, pathSuppliers, nil, &suppliers); err != nil {
		return nil, err
	}
	return suppliers, nil
}

// GetDisabledProducts returns the remote ids of every disabled product.
func (c *Client) GetDisabledProducts(ctx context.Context) ([]int, error) {
	var ids []int
	if err := c.get(ctx, pathDisabledProducts, nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) GetActivePromotions(ctx context.Context) ([]integration.RemotePromotion, error) {
	var promotions []integration.RemotePromotion
	if err := c.get(ctx, pathPromotions, nil, &promotions); err != nil {
		return nil, err
	}
	return promotions, nil
}

// GetSetting returns the value of a remote setting, "" when it is not defined.
func (c *Client) GetSetting(ctx context.Context, key string) (string, error) {
	var setting settingResponse
	err := c.get(ctx, pathSetting, url.Values{"key": {key}}, &setting)
	if errors.Is(err, errNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// GetProductBarcodes returns the grid combinations of a product.
func (c *Client) GetProductBarcodes(ctx context.Context, productID int) ([]integration.RemoteBarcode, error) {
	var barcodes []integration.RemoteBarcode
	query := url.Values{"productId": {strconv.Itoa(productID)}}
	if err := c.get(ctx, pathProductBarcodes, query, &barcodes); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return barcodes, nil
}

// GetImagesForProduct returns the product images in display order. With
// hasDimension the API also returns the barcode each image belongs to.
func (c *Client) GetImagesForProduct(ctx context.Context, productID int, hasDimension bool) ([]integration.RemoteImage, error) {
	query := url.Values{
		"type":       {"product"},
		"id":         {strconv.Itoa(productID)},
		"dimensions": {strconv.FormatBool(hasDimension)},
	}
	var raw []imageResponse
	if err := c.get(ctx, pathImages, query, &raw); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}

	images := make([]integration.RemoteImage, 0, len(raw))
	for _, r := range raw {
		if len(r.ImageData) == 0 {
			continue
		}
		images = append(images, toRemoteImage(r, hasDimension))
	}
	return images, nil
}

// GetImageForDepartment returns nil without error when the department has
// no image.
func (c *Client) GetImageForDepartment(ctx context.Context, departmentID int) (*integration.RemoteImage, error) {
	query := url.Values{
		"type": {"department"},
		"id":   {strconv.Itoa(departmentID)},
	}
	var raw *imageResponse
	if err := c.get(ctx, pathImage, query, &raw); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if raw == nil || len(raw.ImageData) == 0 {
		return nil, nil
	}
	img := toRemoteImage(*raw, false)
	return &img, nil
}

func toRemoteImage(r imageResponse, withBarcode bool) integration.RemoteImage {
	img := integration.RemoteImage{
		Data:     r.ImageData,
		MimeType: r.MimeType,
		Barcode:  integration.NoImageBarcode,
	}
	if withBarcode && r.Barcode != nil {
		img.Barcode = *r.Barcode
	}
	return img
}

// GetCustomer looks a customer up by field. It returns nil without error
// when no customer matches.
func (c *Client) GetCustomer(ctx context.Context, field, value string) (*integration.RemoteCustomer, error) {
	var customer *integration.RemoteCustomer
	if err := c.get(ctx, pathCustomer, url.Values{field: {value}}, &customer); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if customer == nil || (customer.ID == 0 && customer.Username == "") {
		return nil, nil
	}
	return customer, nil
}

// CreateCustomer creates a customer and returns its remote id.
func (c *Client) CreateCustomer(ctx context.Context, customer *integration.RemoteCustomer) (int, error) {
	var created createCustomerResponse
	if err := c.post(ctx, pathCustomerCreate, customer, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, customer *integration.RemoteCustomer) error {
	return c.post(ctx, pathCustomerUpdate, customer, nil)
}

// CreateOrder transmits a sales transaction.
func (c *Client) CreateOrder(ctx context.Context, payload *integration.OrderPayload) error {
	return c.post(ctx, pathOrderCreate, payload, nil)
}
