package controllers

import (
	"net/http"

	"github.com/jirivrbic-boss/extroworld/api/responses"
	"github.com/jirivrbic-boss/extroworld/api/validators"
	"github.com/jirivrbic-boss/extroworld/internal/catalog"
	"github.com/jirivrbic-boss/extroworld/internal/loyalty"
	"github.com/jirivrbic-boss/extroworld/internal/newsletter"
	"github.com/jirivrbic-boss/extroworld/internal/users"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

type pointsPayload struct {
	Delta int64 `json:"delta" validate:"required"`
}

type codeUsedPayload struct {
	Used *bool `json:"used" validate:"required"`
}

type catalogSyncPayload struct {
	Items []catalog.SyncItem `json:"items" validate:"required,min=1,max=100,dive"`
}

func AdminUsersList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := limitOffset(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminUserAdjustPoints adds delta to a user's balance. The balance never drops below zero.
func AdminUserAdjustPoints(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		uid, err := validators.URLParam(r, "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload pointsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		user, err := svc.AdjustPoints(ctx, uid, payload.Delta)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func AdminLoyaltyList(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limit, offset, err := limitOffset(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		used, err := validators.ParseQueryBool(r, "used")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		codes, err := svc.List(ctx, loyalty.ListFilter{
			OwnerUserID: validators.SanitizeString(r.URL.Query().Get("userId"), 128),
			Used:        used,
			Limit:       limit,
			Offset:      offset,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, codes)
	}
}

func AdminLoyaltyGenerate(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var input loyalty.GenerateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		codes, err := svc.GenerateBulk(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, codes)
	}
}

func AdminLoyaltySetUsed(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseURLUUID(r, "codeId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload codeUsedPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		code, err := svc.SetUsed(ctx, id, *payload.Used)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, code)
	}
}

func AdminNewsletterList(svc newsletter.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := limitOffset(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminCatalogSync applies product edits and reports a result per item.
func AdminCatalogSync(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload catalogSyncPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"results": svc.SyncProducts(ctx, payload.Items)})
	}
}
