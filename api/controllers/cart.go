package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catalog-storefront/api/responses"
	"github.com/angelmondragon/catalog-storefront/api/validators"
	"github.com/angelmondragon/catalog-storefront/internal/cart"
	"github.com/angelmondragon/catalog-storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
)

// CartStore is the cart surface used by the HTTP layer.
type CartStore interface {
	State() cart.State
	Remove(index int) (cart.State, error)
	ChangeQuantity(index int, increment bool) (cart.State, error)
	ToggleDrawer() bool
}

// CartAdder adds a catalog product to the cart by id.
type CartAdder interface {
	AddToCart(ctx context.Context, id string) (cart.State, error)
}

// GetCart returns the cart drawer contents.
func GetCart(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.State()))
	}
}

// AddCartItem fetches the product and adds it to the cart.
func AddCartItem(svc CartAdder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.AddToCart(r.Context(), strings.TrimSpace(payload.ProductID.String()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(state))
	}
}

// RemoveCartItem removes the line at the index route parameter.
func RemoveCartItem(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		index, err := lineIndexParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := store.Remove(index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(state))
	}
}

// ChangeCartItemQuantity adds or removes one unit on the indexed line.
func ChangeCartItemQuantity(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		index, err := lineIndexParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload changeQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := store.ChangeQuantity(index, *payload.Increment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(state))
	}
}

// ToggleCartDrawer flips drawer visibility.
func ToggleCartDrawer(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]bool{"drawerOpen": store.ToggleDrawer()})
	}
}

func lineIndexParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "index"))
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart line index must be an integer").
			WithDetails(map[string]any{"field": "index"})
	}
	return index, nil
}

type addCartItemRequest struct {
	ProductID catalog.ProductID `json:"productId" validate:"required"`
}

type changeQuantityRequest struct {
	Increment *bool `json:"increment" validate:"required"`
}

type cartLineResponse struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Items      []cartLineResponse `json:"items"`
	DrawerOpen bool               `json:"drawerOpen"`
	ItemCount  int                `json:"itemCount"`
	Quantity   int                `json:"quantity"`
	Total      decimal.Decimal    `json:"total"`
}

func newCartResponse(state cart.State) cartResponse {
	items := make([]cartLineResponse, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, cartLineResponse{
			Product:  item.Product,
			Quantity: item.Quantity,
			Subtotal: item.Subtotal(),
		})
	}
	return cartResponse{
		Items:      items,
		DrawerOpen: state.DrawerOpen,
		ItemCount:  len(state.Items),
		Quantity:   state.Quantity(),
		Total:      state.Total(),
	}
}
