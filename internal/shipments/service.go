package shipments

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/jirivrbic-boss/extroworld/internal/orders"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	"github.com/jirivrbic-boss/extroworld/pkg/packeta"
)

type packetCreator interface {
	CreatePacket(ctx context.Context, attrs packeta.PacketAttributes) (packeta.PacketResult, error)
}

type orderStore interface {
	GetAny(ctx context.Context, id uuid.UUID) (orders.OrderDTO, error)
	AttachShipment(ctx context.Context, id uuid.UUID, shipmentID string) (orders.OrderDTO, error)
}

// ServiceParams groups dependencies for the shipment service.
type ServiceParams struct {
	Carrier packetCreator
	Orders  orderStore
	Logger  *logger.Logger
}

// Service creates carrier shipments. Nothing calls it automatically; an admin
// ships each order by hand.
type Service interface {
	CreateShipment(ctx context.Context, req ShipmentRequest) (ShipmentResult, error)
	ShipOrder(ctx context.Context, orderID uuid.UUID, input OrderShipmentInput) (orders.OrderDTO, ShipmentResult, error)
}

type service struct {
	carrier packetCreator
	orders  orderStore
	logg    *logger.Logger
}

// NewService builds the shipment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Carrier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier client is required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders service is required")
	}
	return &service{carrier: params.Carrier, orders: params.Orders, logg: params.Logger}, nil
}

// CreateShipment validates the request and submits it to the carrier.
func (s *service) CreateShipment(ctx context.Context, req ShipmentRequest) (ShipmentResult, error) {
	if err := validate(&req); err != nil {
		return ShipmentResult{}, err
	}

	res, err := s.carrier.CreatePacket(ctx, packeta.PacketAttributes{
		Number:    req.OrderNumber,
		Name:      req.Recipient.FirstName,
		Surname:   req.Recipient.LastName,
		Company:   req.Recipient.Company,
		Email:     req.Recipient.Email,
		Phone:     req.Recipient.Phone,
		AddressID: req.PickupPointID,
		Value:     req.ValueCZK,
		Weight:    gramsFromKg(req.WeightKg),
		COD:       req.CodCZK,
		Note:      req.Note,
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "order_number", req.OrderNumber), "packeta shipment failed", err)
		}
		return ShipmentResult{}, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_number": req.OrderNumber,
			"shipment_id":  res.ID,
			"endpoint":     res.Endpoint,
		}), "packeta shipment created")
	}
	return ShipmentResult{ShipmentID: res.ID, EndpointUsed: res.Endpoint, Response: res.Raw}, nil
}

// ShipOrder builds a shipment from a stored order and records the carrier id
// on it. Only pickup-point orders can be shipped through the carrier.
func (s *service) ShipOrder(ctx context.Context, orderID uuid.UUID, input OrderShipmentInput) (orders.OrderDTO, ShipmentResult, error) {
	order, err := s.orders.GetAny(ctx, orderID)
	if err != nil {
		return orders.OrderDTO{}, ShipmentResult{}, err
	}
	if order.ShipmentID != nil && *order.ShipmentID != "" {
		return orders.OrderDTO{}, ShipmentResult{}, pkgerrors.New(pkgerrors.CodeConflict, "order already has a shipment")
	}
	point := order.Shipping.PickupPoint
	if !order.ShippingMethod.RequiresPickupPoint() || point == nil || point.ID == "" {
		return orders.OrderDTO{}, ShipmentResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not a pickup-point delivery")
	}

	value := order.PriceTotal
	if value <= 0 {
		value = order.Subtotal
	}
	res, err := s.CreateShipment(ctx, ShipmentRequest{
		OrderNumber:   order.ID.String(),
		PickupPointID: point.ID,
		Recipient: Recipient{
			FirstName: order.Customer.FirstName,
			LastName:  order.Customer.LastName,
			Email:     order.Customer.Email,
			Phone:     order.Customer.Phone,
		},
		ValueCZK: value,
		WeightKg: input.WeightKg,
		CodCZK:   input.CodCZK,
		Note:     input.Note,
	})
	if err != nil {
		return orders.OrderDTO{}, ShipmentResult{}, err
	}
	if res.ShipmentID == "" {
		return orders.OrderDTO{}, res, pkgerrors.New(pkgerrors.CodeDependency, "carrier accepted the packet without an id")
	}

	updated, err := s.orders.AttachShipment(ctx, orderID, res.ShipmentID)
	if err != nil {
		return orders.OrderDTO{}, res, err
	}
	return updated, res, nil
}

func validate(req *ShipmentRequest) error {
	req.OrderNumber = strings.TrimSpace(req.OrderNumber)
	req.PickupPointID = strings.TrimSpace(req.PickupPointID)
	req.Recipient.FirstName = strings.TrimSpace(req.Recipient.FirstName)
	req.Recipient.LastName = strings.TrimSpace(req.Recipient.LastName)
	req.Recipient.Email = strings.TrimSpace(req.Recipient.Email)
	req.Recipient.Phone = strings.TrimSpace(req.Recipient.Phone)

	fields := map[string]string{}
	if req.OrderNumber == "" {
		fields["orderNumber"] = "required"
	}
	if req.PickupPointID == "" {
		fields["pickupPointId"] = "required"
	}
	if req.Recipient.FirstName == "" {
		fields["recipient.firstName"] = "required"
	}
	if req.Recipient.LastName == "" {
		fields["recipient.lastName"] = "required"
	}
	if req.Recipient.Email == "" && req.Recipient.Phone == "" {
		fields["recipient.contact"] = "email or phone is required"
	}
	if req.ValueCZK <= 0 {
		fields["valueCZK"] = "must be positive"
	}
	if req.WeightKg < 0 || math.IsNaN(req.WeightKg) {
		fields["weightKg"] = "must not be negative"
	}
	if req.CodCZK < 0 {
		fields["codCZK"] = "must not be negative"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment request").WithDetails(fields)
	}
	return nil
}

// gramsFromKg rounds to whole grams with a floor of one gram.
func gramsFromKg(kg float64) int64 {
	grams := int64(math.Round(kg * 1000))
	if grams < 1 {
		return 1
	}
	return grams
}
