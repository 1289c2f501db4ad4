package aralco

// API paths relative to Config.APILocation
const (
	pathServerTime       = "api/AralcoUtils/GetServerDateTime"
	pathProducts         = "api/Product/Updated"
	pathProductBarcodes  = "api/Product/GetBarcodes"
	pathDisabledProducts = "api/Product/GetAllDisabled"
	pathStockUpdated     = "api/Inventory/GetAllUpdated"
	pathStockByIDs       = "api/Inventory/GetByProductIds"
	pathGrids            = "api/Grid/Get"
	pathGroupings        = "api/ProductGrouping/Get"
	pathDepartments      = "api/Departments/Get"
	pathSuppliers        = "api/Supplier/Get"
	pathPromotions       = "api/Promotion/GetActive"
	pathSetting          = "api/Setting/Get"
	pathImages           = "api/Image/GetAll"
	pathImage            = "api/Image/Get"
	pathCustomer         = "api/Customer/Get"
	pathCustomerCreate   = "api/Customer/Create"
	pathCustomerUpdate   = "api/Customer/Update"
	pathOrderCreate      = "api/Order/Create"
)

// imageResponse is one image as returned by the image endpoints. ImageData
// is base64 in the JSON body.
type imageResponse struct {
	ImageData []byte `json:"ImageData"`
	MimeType  string `json:"MimeType"`
	Barcode   *int64 `json:"Barcode"`
}

type settingResponse struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

type createCustomerResponse struct {
	ID int `json:"id"`
}

// errorResponse is the body the API sends with a failed request
type errorResponse struct {
	Message          string `json:"Message"`
	ExceptionMessage string `json:"ExceptionMessage"`
}

func (e errorResponse) text() string {
	if e.ExceptionMessage != "" {
		return e.ExceptionMessage
	}
	return e.Message
}
