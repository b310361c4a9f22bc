package product

import (
	"context"

	"github.com/angelmondragon/catalog-storefront/internal/cart"
	"github.com/angelmondragon/catalog-storefront/internal/notifications"
	"github.com/angelmondragon/catalog-storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
	"github.com/angelmondragon/catalog-storefront/pkg/pagination"
)

const (
	MessageCreated = "Product Created Successfully"
	MessageEdited  = "Product Edited Successfully"
	MessageDeleted = "Product Deleted Successfully"
)

type catalogClient interface {
	ListProducts(ctx context.Context, params catalog.ListParams) (*catalog.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, patch catalog.ProductPatch) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]string, error)
}

type cartAdder interface {
	Add(product catalog.Product) cart.State
}

// Service exposes the storefront product screens: listing, detail, admin
// mutations and add-to-cart.
type Service interface {
	ListProducts(ctx context.Context, params catalog.ListParams) (*ListResult, error)
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, patch catalog.ProductPatch) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]string, error)
	AddToCart(ctx context.Context, id string) (cart.State, error)
}

// ListResult is one listing page with its pagination controls.
type ListResult struct {
	Products      []catalog.Product `json:"products"`
	Pagination    PageControls      `json:"pagination"`
	TotalProducts int               `json:"totalProducts"`
}

// PageControls drives the previous/next buttons of the listing.
type PageControls struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	HasPrevious  bool `json:"hasPrevious"`
	HasNext      bool `json:"hasNext"`
	PreviousPage int  `json:"previousPage"`
	NextPage     int  `json:"nextPage"`
}

func newPageControls(p pagination.Page) PageControls {
	return PageControls{
		CurrentPage:  p.Current,
		TotalPages:   p.Total,
		HasPrevious:  p.HasPrevious(),
		HasNext:      p.HasNext(),
		PreviousPage: p.Previous(),
		NextPage:     p.Next(),
	}
}

type service struct {
	catalog  catalogClient
	cart     cartAdder
	notifier notifications.Notifier
	logg     *logger.Logger
}

// NewService wires the catalog client, cart store and notifier.
func NewService(client catalogClient, store cartAdder, notifier notifications.Notifier, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog client required")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart store required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	return &service{catalog: client, cart: store, notifier: notifier, logg: logg}, nil
}

func (s *service) ListProducts(ctx context.Context, params catalog.ListParams) (*ListResult, error) {
	page, err := s.catalog.ListProducts(ctx, params)
	if err != nil {
		return nil, s.failed(ctx, "list_products", err)
	}
	return &ListResult{
		Products:      page.Products,
		Pagination:    newPageControls(page.Page()),
		TotalProducts: page.TotalProducts,
	}, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, s.failed(s.withProduct(ctx, id), "get_product", err)
	}
	return product, nil
}

func (s *service) CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.Product, error) {
	product, err := s.catalog.CreateProduct(ctx, input)
	if err != nil {
		return nil, s.failed(ctx, "create_product", err)
	}
	s.notifier.Success(ctx, MessageCreated)
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, patch catalog.ProductPatch) (*catalog.Product, error) {
	ctx = s.withProduct(ctx, id)
	product, err := s.catalog.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, s.failed(ctx, "update_product", err)
	}
	s.notifier.Success(ctx, MessageEdited)
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	ctx = s.withProduct(ctx, id)
	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		return s.failed(ctx, "delete_product", err)
	}
	s.notifier.Success(ctx, MessageDeleted)
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, s.failed(ctx, "list_categories", err)
	}
	return categories, nil
}

// AddToCart loads the current product snapshot and adds it to the cart.
func (s *service) AddToCart(ctx context.Context, id string) (cart.State, error) {
	ctx = s.withProduct(ctx, id)
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return cart.State{}, s.failed(ctx, "add_to_cart", err)
	}
	return s.cart.Add(*product), nil
}

func (s *service) failed(ctx context.Context, operation string, err error) error {
	s.notifier.Error(ctx, err)
	if s.logg != nil {
		ctx = s.logg.WithField(s.logg.WithOperation(ctx, operation), "error", err.Error())
		s.logg.Warn(ctx, "products.action_failed")
	}
	return err
}

func (s *service) withProduct(ctx context.Context, id string) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithProductID(ctx, id)
}
