package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/pagination"
	"github.com/shopspring/decimal"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ProductID accepts both numeric and string identifiers from the catalog.
type ProductID string

func (id *ProductID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

func (id ProductID) String() string {
	return string(id)
}

// Product is a read-only snapshot of a catalog entry.
type Product struct {
	ID             ProductID       `json:"id"`
	Name           string          `json:"name"`
	Brand          string          `json:"brand"`
	Category       string          `json:"category"`
	SubCategory    string          `json:"subCategory"`
	Price          float64         `json:"price"`
	Stock          int             `json:"stock"`
	Description    string          `json:"description"`
	ImageURL       string          `json:"imageUrl"`
	Rating         float64         `json:"rating"`
	Reviews        int             `json:"reviews"`
	Specifications []Specification `json:"specifications,omitempty"`
}

// UnitPrice returns the price as an exact decimal for cart arithmetic.
func (p Product) UnitPrice() decimal.Decimal {
	return decimal.NewFromFloat(p.Price)
}

type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ProductPage is the list endpoint response.
type ProductPage struct {
	Products      []Product `json:"products"`
	CurrentPage   int       `json:"currentPage"`
	TotalPages    int       `json:"totalPages"`
	TotalProducts int       `json:"totalProducts"`
}

// Page returns the normalized pagination position of the listing.
func (p ProductPage) Page() pagination.Page {
	return pagination.NewPage(p.CurrentPage, p.TotalPages)
}

// ListParams are the optional list filters supported by the catalog.
type ListParams struct {
	Page     int
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Order    string
}

// Validate rejects filter combinations the catalog cannot serve.
func (p ListParams) Validate() error {
	details := map[string]string{}
	if p.MinPrice != nil && *p.MinPrice < 0 {
		details["minPrice"] = "must be at least 0"
	}
	if p.MaxPrice != nil && *p.MaxPrice < 0 {
		details["maxPrice"] = "must be at least 0"
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		details["maxPrice"] = "must be greater than or equal to minPrice"
	}
	switch strings.ToLower(strings.TrimSpace(p.Order)) {
	case "", OrderAsc, OrderDesc:
	default:
		details["order"] = "must be asc or desc"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product filters").WithDetails(details)
	}
	return nil
}

// Query encodes the parameters for the list endpoint. The page is always sent.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(pagination.NormalizePage(p.Page)))
	if s := strings.TrimSpace(p.Search); s != "" {
		q.Set("search", s)
	}
	if p.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*p.MinPrice, 'f', -1, 64))
	}
	if p.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*p.MaxPrice, 'f', -1, 64))
	}
	if o := strings.ToLower(strings.TrimSpace(p.Order)); o != "" {
		q.Set("order", o)
	}
	return q
}

// ProductInput is the create payload.
type ProductInput struct {
	Name           string          `json:"name"`
	Brand          string          `json:"brand"`
	Category       string          `json:"category"`
	SubCategory    string          `json:"subCategory"`
	Price          float64         `json:"price"`
	Stock          int             `json:"stock"`
	Description    string          `json:"description"`
	ImageURL       string          `json:"imageUrl"`
	Rating         float64         `json:"rating"`
	Reviews        int             `json:"reviews"`
	Specifications []Specification `json:"specifications,omitempty"`
}

// ProductPatch is the partial update payload; nil fields are left untouched.
type ProductPatch struct {
	Name           *string         `json:"name,omitempty"`
	Brand          *string         `json:"brand,omitempty"`
	Category       *string         `json:"category,omitempty"`
	SubCategory    *string         `json:"subCategory,omitempty"`
	Price          *float64        `json:"price,omitempty"`
	Stock          *int            `json:"stock,omitempty"`
	Description    *string         `json:"description,omitempty"`
	ImageURL       *string         `json:"imageUrl,omitempty"`
	Rating         *float64        `json:"rating,omitempty"`
	Reviews        *int            `json:"reviews,omitempty"`
	Specifications []Specification `json:"specifications,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Brand == nil && p.Category == nil && p.SubCategory == nil &&
		p.Price == nil && p.Stock == nil && p.Description == nil && p.ImageURL == nil &&
		p.Rating == nil && p.Reviews == nil && p.Specifications == nil
}
