package controllers

import (
	"net/http"

	"github.com/jirivrbic-boss/extroworld/api/responses"
	"github.com/jirivrbic-boss/extroworld/api/validators"
	"github.com/jirivrbic-boss/extroworld/internal/wishlist"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

// WishlistIDs returns the product ids the caller liked.
func WishlistIDs(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("wishlist service"))
			return
		}
		uid, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		resp, err := svc.GetWishlistIDs(ctx, uid)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func WishlistStatus(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistItem(svc, logg, func(w http.ResponseWriter, r *http.Request, uid, productID string) error {
		status, err := svc.Contains(r.Context(), uid, productID)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, status)
		return nil
	})
}

// WishlistAddItem is idempotent.
func WishlistAddItem(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistItem(svc, logg, func(w http.ResponseWriter, r *http.Request, uid, productID string) error {
		if err := svc.AddItem(r.Context(), uid, productID); err != nil {
			return err
		}
		responses.WriteSuccess(w, wishlist.WishlistStatusDTO{ProductID: productID, Liked: true})
		return nil
	})
}

func WishlistRemoveItem(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistItem(svc, logg, func(w http.ResponseWriter, r *http.Request, uid, productID string) error {
		if err := svc.RemoveItem(r.Context(), uid, productID); err != nil {
			return err
		}
		responses.WriteSuccess(w, wishlist.WishlistStatusDTO{ProductID: productID, Liked: false})
		return nil
	})
}

func wishlistItem(svc wishlist.Service, logg *logger.Logger, fn func(w http.ResponseWriter, r *http.Request, uid, productID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("wishlist service"))
			return
		}
		uid, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := validators.URLParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := fn(w, r, uid, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
		}
	}
}
