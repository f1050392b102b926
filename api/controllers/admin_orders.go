package controllers

import (
	"net/http"
	"strings"

	"github.com/jirivrbic-boss/extroworld/api/responses"
	"github.com/jirivrbic-boss/extroworld/api/validators"
	"github.com/jirivrbic-boss/extroworld/internal/orders"
	"github.com/jirivrbic-boss/extroworld/internal/shipments"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

const (
	adminDefaultLimit = 50
	adminMaxLimit     = 200
)

type orderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

type shipmentResponse struct {
	Order    orders.OrderDTO          `json:"order"`
	Shipment shipments.ShipmentResult `json:"shipment"`
}

func AdminOrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limit, offset, err := limitOffset(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		filter := orders.ListFilter{
			UserID: strings.TrimSpace(r.URL.Query().Get("userId")),
			Limit:  limit,
			Offset: offset,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filter.Status = &status
		}
		list, err := svc.List(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminOrderSetStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload orderStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		order, err := svc.SetStatus(ctx, id, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminOrderShip hands a pickup point order to the carrier.
func AdminOrderShip(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("shipment service"))
			return
		}
		id, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var input shipments.OrderShipmentInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, result, err := svc.ShipOrder(ctx, id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipmentResponse{Order: order, Shipment: result})
	}
}

func AdminSeedOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var input orders.SeedInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.SeedTestOrder(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func limitOffset(r *http.Request) (int, int, error) {
	limit, err := validators.ParseQueryInt(r, "limit", adminDefaultLimit, 1, adminMaxLimit)
	if err != nil {
		return 0, 0, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
