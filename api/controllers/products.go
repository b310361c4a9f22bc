package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/catalog-storefront/api/responses"
	"github.com/angelmondragon/catalog-storefront/api/validators"
	productsvc "github.com/angelmondragon/catalog-storefront/internal/products"
	"github.com/angelmondragon/catalog-storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
	"github.com/angelmondragon/catalog-storefront/pkg/pagination"
)

const (
	maxPageNumber   = 100000
	maxSearchLength = 200
)

// ListProducts serves the paginated, filterable product listing.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params, err := parseListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func parseListParams(r *http.Request) (catalog.ListParams, error) {
	page, err := validators.ParseQueryInt(r, "page", pagination.FirstPage, pagination.FirstPage, maxPageNumber)
	if err != nil {
		return catalog.ListParams{}, err
	}
	minPrice, err := validators.ParseQueryFloat(r, "minPrice", 0)
	if err != nil {
		return catalog.ListParams{}, err
	}
	maxPrice, err := validators.ParseQueryFloat(r, "maxPrice", 0)
	if err != nil {
		return catalog.ListParams{}, err
	}
	order, err := validators.ParseQueryEnum(r, "order", catalog.OrderAsc, catalog.OrderDesc)
	if err != nil {
		return catalog.ListParams{}, err
	}

	params := catalog.ListParams{
		Page:     page,
		Search:   validators.ParseQueryString(r, "search", maxSearchLength),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Order:    order,
	}
	return params, params.Validate()
}

// ListCategories returns the catalog's category names.
func ListCategories(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

// GetProduct returns a single product.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// CreateProduct validates the product form and submits it to the catalog.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct applies the edit form as a partial update.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patch := payload.toPatch()
		if patch.Empty() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "update requires at least one field"))
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes a product from the catalog.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func productIDParam(r *http.Request) (string, error) {
	productID := strings.TrimSpace(chi.URLParam(r, "productId"))
	if productID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return productID, nil
}

type specificationRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

type createProductRequest struct {
	Name           string                 `json:"name" validate:"required"`
	Brand          string                 `json:"brand" validate:"required"`
	Category       string                 `json:"category" validate:"required"`
	SubCategory    string                 `json:"subCategory" validate:"required"`
	Price          *float64               `json:"price" validate:"required,min=0"`
	Stock          *int                   `json:"stock" validate:"required,min=0"`
	Description    string                 `json:"description" validate:"required"`
	ImageURL       string                 `json:"imageUrl" validate:"required,http_url"`
	Rating         *float64               `json:"rating" validate:"required,min=0"`
	Reviews        *int                   `json:"reviews" validate:"required,min=0"`
	Specifications []specificationRequest `json:"specifications,omitempty" validate:"omitempty,dive"`
}

func (r createProductRequest) toInput() catalog.ProductInput {
	return catalog.ProductInput{
		Name:           strings.TrimSpace(r.Name),
		Brand:          strings.TrimSpace(r.Brand),
		Category:       strings.TrimSpace(r.Category),
		SubCategory:    strings.TrimSpace(r.SubCategory),
		Price:          derefFloat(r.Price),
		Stock:          derefInt(r.Stock),
		Description:    strings.TrimSpace(r.Description),
		ImageURL:       strings.TrimSpace(r.ImageURL),
		Rating:         derefFloat(r.Rating),
		Reviews:        derefInt(r.Reviews),
		Specifications: toSpecifications(r.Specifications),
	}
}

// updateProductRequest mirrors the edit form; the echoed id is ignored in
// favour of the route parameter.
type updateProductRequest struct {
	ID             *catalog.ProductID     `json:"id,omitempty" validate:"-"`
	Name           *string                `json:"name,omitempty" validate:"omitempty,min=1"`
	Brand          *string                `json:"brand,omitempty" validate:"omitempty,min=1"`
	Category       *string                `json:"category,omitempty" validate:"omitempty,min=1"`
	SubCategory    *string                `json:"subCategory,omitempty" validate:"omitempty,min=1"`
	Price          *float64               `json:"price,omitempty" validate:"omitempty,min=0"`
	Stock          *int                   `json:"stock,omitempty" validate:"omitempty,min=0"`
	Description    *string                `json:"description,omitempty" validate:"omitempty,min=1"`
	ImageURL       *string                `json:"imageUrl,omitempty" validate:"omitempty,http_url"`
	Rating         *float64               `json:"rating,omitempty" validate:"omitempty,min=0"`
	Reviews        *int                   `json:"reviews,omitempty" validate:"omitempty,min=0"`
	Specifications []specificationRequest `json:"specifications,omitempty" validate:"omitempty,dive"`
}

func (r updateProductRequest) toPatch() catalog.ProductPatch {
	return catalog.ProductPatch{
		Name:           trimmedPtr(r.Name),
		Brand:          trimmedPtr(r.Brand),
		Category:       trimmedPtr(r.Category),
		SubCategory:    trimmedPtr(r.SubCategory),
		Price:          r.Price,
		Stock:          r.Stock,
		Description:    trimmedPtr(r.Description),
		ImageURL:       trimmedPtr(r.ImageURL),
		Rating:         r.Rating,
		Reviews:        r.Reviews,
		Specifications: toSpecifications(r.Specifications),
	}
}

func toSpecifications(in []specificationRequest) []catalog.Specification {
	if len(in) == 0 {
		return nil
	}
	out := make([]catalog.Specification, 0, len(in))
	for _, spec := range in {
		out = append(out, catalog.Specification{
			Key:   strings.TrimSpace(spec.Key),
			Value: strings.TrimSpace(spec.Value),
		})
	}
	return out
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
