package controllers

import (
	"net/http"

	"github.com/jirivrbic-boss/extroworld/api/responses"
	"github.com/jirivrbic-boss/extroworld/api/validators"
	"github.com/jirivrbic-boss/extroworld/internal/cart"
	"github.com/jirivrbic-boss/extroworld/internal/discounts"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

type cartItemPayload struct {
	ProductID string `json:"productId" validate:"required,max=255"`
	Name      string `json:"name" validate:"omitempty,max=250"`
	Price     int64  `json:"price" validate:"gte=0"`
	Image     string `json:"image,omitempty" validate:"omitempty,max=2048"`
	PriceID   string `json:"priceId,omitempty" validate:"omitempty,max=255"`
	Size      string `json:"size,omitempty" validate:"omitempty,max=16"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=99"`
}

type cartLinePayload struct {
	ProductID string `json:"productId" validate:"required,max=255"`
	Size      string `json:"size,omitempty" validate:"omitempty,max=16"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=99"`
}

type cartShippingPayload struct {
	Method enums.ShippingMethod `json:"method" validate:"required"`
}

type discountCodePayload struct {
	Code string `json:"code" validate:"required,max=64"`
}

// cartView adds the derived totals to the stored document.
type cartView struct {
	cart.State
	Subtotal        int64 `json:"subtotal"`
	DiscountPercent int   `json:"discountPercent"`
	Total           int64 `json:"total"`
	ItemCount       int   `json:"itemCount"`
}

func viewOf(state cart.State) cartView {
	return cartView{
		State:           state,
		Subtotal:        state.Subtotal(),
		DiscountPercent: state.DiscountPercent(),
		Total:           state.Total(),
		ItemCount:       state.ItemCount(),
	}
}

func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.Get(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewOf(state))
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request) (cart.Action, error) {
		return cart.Clear{}, nil
	})
}

func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request) (cart.Action, error) {
		var payload cartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return cart.AddItem{Item: cart.LineItem{
			ProductID: payload.ProductID,
			Name:      validators.SanitizeString(payload.Name, 250),
			Price:     payload.Price,
			Image:     payload.Image,
			PriceID:   payload.PriceID,
			Size:      payload.Size,
			Quantity:  payload.Quantity,
		}}, nil
	})
}

func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request) (cart.Action, error) {
		var payload cartLinePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return cart.UpdateQuantity{ProductID: payload.ProductID, Size: payload.Size, Quantity: payload.Quantity}, nil
	})
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request) (cart.Action, error) {
		var payload cartLinePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return cart.RemoveItem{ProductID: payload.ProductID, Size: payload.Size}, nil
	})
}

func CartSetShipping(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request) (cart.Action, error) {
		var payload cartShippingPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		method, err := enums.ParseShippingMethod(string(payload.Method))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method")
		}
		return cart.SetShipping{Method: method}, nil
	})
}

// CartApplyDiscount resolves the code for the caller before storing it so
// the cart only ever holds codes the server accepted.
func CartApplyDiscount(svc cart.Service, resolver discounts.Resolver, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request) (cart.Action, error) {
		var payload discountCodePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		uid, err := requireUser(r)
		if err != nil {
			return nil, err
		}
		res, err := resolver.Resolve(r.Context(), payload.Code, uid)
		if err != nil {
			return nil, err
		}
		return cart.ApplyDiscount{Code: res.Code, Percent: res.Percent}, nil
	})
}

func CartRemoveDiscount(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request) (cart.Action, error) {
		return cart.RemoveDiscount{}, nil
	})
}

func cartAction(svc cart.Service, logg *logger.Logger, build func(r *http.Request) (cart.Action, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("cart service"))
			return
		}
		uid, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		action, err := build(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		state, err := svc.Apply(ctx, uid, action)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewOf(state))
	}
}
