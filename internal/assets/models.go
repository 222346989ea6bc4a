package assets

import (
	"net/url"
	"strings"
)

// DateLayout is the layout of every date field.
const DateLayout = "2006-01-02"

// Asset is one row of the asset register.
// Dates are kept as YYYY-MM-DD strings; an empty string means unset.
type Asset struct {
	ID                  int    `json:"id"`
	SerialNumber        string `json:"serial_number"`
	Name                string `json:"name"`
	Category            string `json:"category"` // device type
	Brand               string `json:"brand"`
	ApplicationDate     string `json:"application_date"`
	Specification       string `json:"specification"`
	AssetCode           string `json:"asset_code"`
	OrderDate           string `json:"order_date"`
	CreatedAt           string `json:"created_at"`
	Department          string `json:"department"`
	Location            string `json:"location"`
	Supplier            string `json:"supplier"`
	Recipient           string `json:"recipient"`
	RecipientDepartment string `json:"recipient_department"`
	Remarks             string `json:"remarks"`
}

// Page is the JSON envelope of GET /assets.
type Page struct {
	Assets   []Asset `json:"assets"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	Pages    int     `json:"pages"`
	PageSize int     `json:"pageSize"`
}

// Form field names of the asset entry form.
const (
	FieldSerialNumber        = "serialNumber"
	FieldName                = "name"
	FieldCategory            = "category"
	FieldBrand               = "brand"
	FieldApplicationDate     = "applicationDate"
	FieldSpecification       = "specification"
	FieldAssetCode           = "assetCode"
	FieldOrderDate           = "orderDate"
	FieldCreatedAt           = "createdAt"
	FieldDepartment          = "department"
	FieldLocation            = "location"
	FieldSupplier            = "supplier"
	FieldRecipient           = "recipient"
	FieldRecipientDepartment = "recipient_department"
	FieldRemarks             = "remarks"
)

// FromForm builds an Asset from the entry form. The ID is not read; edits
// carry it separately.
func FromForm(form url.Values) Asset {
	get := func(key string) string { return strings.TrimSpace(form.Get(key)) }
	return Asset{
		SerialNumber:        get(FieldSerialNumber),
		Name:                get(FieldName),
		Category:            get(FieldCategory),
		Brand:               get(FieldBrand),
		ApplicationDate:     get(FieldApplicationDate),
		Specification:       get(FieldSpecification),
		AssetCode:           get(FieldAssetCode),
		OrderDate:           get(FieldOrderDate),
		CreatedAt:           get(FieldCreatedAt),
		Department:          get(FieldDepartment),
		Location:            get(FieldLocation),
		Supplier:            get(FieldSupplier),
		Recipient:           get(FieldRecipient),
		RecipientDepartment: get(FieldRecipientDepartment),
		Remarks:             get(FieldRemarks),
	}
}

// ToFormData encodes the asset the way the entry form posts it.
func (a Asset) ToFormData() url.Values {
	data := url.Values{}
	set := func(key, value string) {
		if value != "" {
			data.Set(key, value)
		}
	}
	set(FieldSerialNumber, a.SerialNumber)
	set(FieldName, a.Name)
	set(FieldCategory, a.Category)
	set(FieldBrand, a.Brand)
	set(FieldApplicationDate, a.ApplicationDate)
	set(FieldSpecification, a.Specification)
	set(FieldAssetCode, a.AssetCode)
	set(FieldOrderDate, a.OrderDate)
	set(FieldCreatedAt, a.CreatedAt)
	set(FieldDepartment, a.Department)
	set(FieldLocation, a.Location)
	set(FieldSupplier, a.Supplier)
	set(FieldRecipient, a.Recipient)
	set(FieldRecipientDepartment, a.RecipientDepartment)
	set(FieldRemarks, a.Remarks)
	return data
}

// With returns a copy of a with the entry form fields in changes applied.
// A field set to the empty string is cleared. The ID is kept.
func (a Asset) With(changes url.Values) Asset {
	form := a.ToFormData()
	for key, values := range changes {
		form[key] = values
	}
	out := FromForm(form)
	out.ID = a.ID
	return out
}

// searchable returns the fields matched by Search. Specification and the
// dates are not searched.
func (a Asset) searchable() []string {
	return []string{
		a.SerialNumber, a.Name, a.Category, a.Brand,
		a.Department, a.Location, a.Supplier, a.Recipient,
		a.RecipientDepartment, a.Remarks,
	}
}
