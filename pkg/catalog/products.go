package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
)

// ScopeProducts groups every cached product read; writes invalidate it.
const ScopeProducts = "products"

const (
	opListProducts   = "list_products"
	opGetProduct     = "get_product"
	opCreateProduct  = "create_product"
	opUpdateProduct  = "update_product"
	opDeleteProduct  = "delete_product"
	opListCategories = "list_categories"

	productsPath   = "products"
	categoriesPath = "products/categories"
)

// ListProducts returns one page of products matching params.
func (c *Client) ListProducts(ctx context.Context, params ListParams) (*ProductPage, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var page ProductPage
	if err := c.read(ctx, opListProducts, ScopeProducts, productsPath, params.Query(), &page); err != nil {
		return nil, err
	}
	if page.Products == nil {
		page.Products = []Product{}
	}
	return &page, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	path, err := productPath(id)
	if err != nil {
		return nil, err
	}

	var product Product
	if err := c.read(ctx, opGetProduct, ScopeProducts, path, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct submits a new product and returns the catalog's copy.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	var product Product
	if err := c.write(ctx, opCreateProduct, http.MethodPost, ScopeProducts, productsPath, input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct applies a partial update to the product with id.
func (c *Client) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	path, err := productPath(id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "update requires at least one field")
	}

	var product Product
	if err := c.write(ctx, opUpdateProduct, http.MethodPut, ScopeProducts, path, patch, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes the product with id.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	path, err := productPath(id)
	if err != nil {
		return err
	}
	return c.write(ctx, opDeleteProduct, http.MethodDelete, ScopeProducts, path, nil, nil)
}

// ListCategories returns the category names known to the catalog.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var list categoryList
	if err := c.read(ctx, opListCategories, ScopeProducts, categoriesPath, nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		return []string{}, nil
	}
	return list, nil
}

func productPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return productsPath + "/" + url.PathEscape(id), nil
}

// categoryList decodes either a bare array or a {"categories": [...]} object.
// Entries may be plain names or objects carrying a name.
type categoryList []string

func (l *categoryList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Categories []json.RawMessage `json:"categories"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return err
		}
		return l.fill(wrapped.Categories)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	return l.fill(raw)
}

func (l *categoryList) fill(items []json.RawMessage) error {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err != nil {
			var named struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(item, &named); err != nil {
				return err
			}
			name = named.Name
		}
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	*l = out
	return nil
}
