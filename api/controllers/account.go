package controllers

import (
	"net/http"

	"github.com/jirivrbic-boss/extroworld/api/middleware"
	"github.com/jirivrbic-boss/extroworld/api/responses"
	"github.com/jirivrbic-boss/extroworld/api/validators"
	"github.com/jirivrbic-boss/extroworld/internal/loyalty"
	"github.com/jirivrbic-boss/extroworld/internal/orders"
	"github.com/jirivrbic-boss/extroworld/internal/users"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	"github.com/jirivrbic-boss/extroworld/pkg/pagination"
)

type accountResponse struct {
	User   users.UserDTO                    `json:"user"`
	Codes  []loyalty.CodeDTO                `json:"codes"`
	Orders pagination.Page[orders.OrderDTO] `json:"orders"`
}

// AccountGet creates the user record on first visit and returns points,
// outstanding loyalty codes and the latest orders.
func AccountGet(userSvc users.Service, codes loyalty.Service, orderSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if userSvc == nil || codes == nil || orderSvc == nil {
			responses.WriteError(ctx, logg, w, unavailable("account services"))
			return
		}
		uid, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := userSvc.Ensure(ctx, uid, middleware.EmailFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		outstanding, err := codes.ListForUser(ctx, uid, true)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		page, err := orderSvc.ListForUser(ctx, uid, pagination.Params{Limit: limit})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, accountResponse{User: user, Codes: outstanding, Orders: page})
	}
}
