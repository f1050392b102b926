package shipments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jirivrbic-boss/extroworld/internal/orders"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/packeta"
	"github.com/jirivrbic-boss/extroworld/pkg/types"
)

type fakeCarrier struct {
	calls []packeta.PacketAttributes
	id    string
	err   error
}

func (f *fakeCarrier) CreatePacket(_ context.Context, attrs packeta.PacketAttributes) (packeta.PacketResult, error) {
	f.calls = append(f.calls, attrs)
	if f.err != nil {
		return packeta.PacketResult{}, f.err
	}
	return packeta.PacketResult{ID: f.id, Endpoint: "https://packeta.test/api/v6/createPacket.json"}, nil
}

type fakeOrders struct {
	byID     map[uuid.UUID]orders.OrderDTO
	attached map[uuid.UUID]string
}

func (f *fakeOrders) GetAny(_ context.Context, id uuid.UUID) (orders.OrderDTO, error) {
	o, ok := f.byID[id]
	if !ok {
		return orders.OrderDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return o, nil
}

func (f *fakeOrders) AttachShipment(_ context.Context, id uuid.UUID, shipmentID string) (orders.OrderDTO, error) {
	o := f.byID[id]
	o.ShipmentID = &shipmentID
	f.byID[id] = o
	f.attached[id] = shipmentID
	return o, nil
}

func newTestService(t *testing.T, carrier *fakeCarrier, store *fakeOrders) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Carrier: carrier, Orders: store})
	require.NoError(t, err)
	return svc
}

func validRequest() ShipmentRequest {
	return ShipmentRequest{
		OrderNumber:   " ORDER-9 ",
		PickupPointID: "4321",
		Recipient:     Recipient{FirstName: "Jana", LastName: "Nováková", Phone: "+420777000111"},
		ValueCZK:      1389,
		WeightKg:      0.4,
	}
}

func TestCreateShipmentMapsAttributes(t *testing.T) {
	carrier := &fakeCarrier{id: "Z1"}
	svc := newTestService(t, carrier, &fakeOrders{})

	res, err := svc.CreateShipment(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "Z1", res.ShipmentID)

	require.Len(t, carrier.calls, 1)
	got := carrier.calls[0]
	assert.Equal(t, "ORDER-9", got.Number)
	assert.Equal(t, "4321", got.AddressID)
	assert.Equal(t, int64(400), got.Weight)
	assert.Equal(t, int64(1389), got.Value)
}

func TestCreateShipmentValidation(t *testing.T) {
	carrier := &fakeCarrier{id: "Z1"}
	svc := newTestService(t, carrier, &fakeOrders{})

	mutate := map[string]func(*ShipmentRequest){
		"order number": func(r *ShipmentRequest) { r.OrderNumber = " " },
		"pickup point": func(r *ShipmentRequest) { r.PickupPointID = "" },
		"surname":      func(r *ShipmentRequest) { r.Recipient.LastName = "" },
		"contact":      func(r *ShipmentRequest) { r.Recipient.Phone = "" },
		"value":        func(r *ShipmentRequest) { r.ValueCZK = 0 },
	}
	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			fn(&req)
			_, err := svc.CreateShipment(context.Background(), req)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
	assert.Empty(t, carrier.calls)
}

func TestCreateShipmentCarrierFailure(t *testing.T) {
	failure := pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("status 502"), "create packeta packet")
	svc := newTestService(t, &fakeCarrier{err: failure}, &fakeOrders{})

	_, err := svc.CreateShipment(context.Background(), validRequest())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestShipOrderAttachesShipment(t *testing.T) {
	id := uuid.New()
	addressID := uuid.New()
	store := &fakeOrders{
		attached: map[uuid.UUID]string{},
		byID: map[uuid.UUID]orders.OrderDTO{
			id: {
				ID:             id,
				ShippingMethod: enums.ShippingMethodPickup,
				Shipping: types.ShippingDetails{
					Method:      enums.ShippingMethodPickup,
					PickupPoint: &types.PickupPoint{ID: "4321"},
				},
				Customer:   types.Customer{FirstName: "Jana", LastName: "Nováková", Email: "jana@example.cz"},
				PriceTotal: 1389,
			},
			addressID: {
				ID:             addressID,
				ShippingMethod: enums.ShippingMethodAddress,
				Customer:       types.Customer{FirstName: "Petr", LastName: "Novák", Email: "petr@example.cz"},
				PriceTotal:     500,
			},
		},
	}
	carrier := &fakeCarrier{id: "Z77"}
	svc := newTestService(t, carrier, store)
	ctx := context.Background()

	order, res, err := svc.ShipOrder(ctx, id, OrderShipmentInput{WeightKg: 1.2})
	require.NoError(t, err)
	assert.Equal(t, "Z77", res.ShipmentID)
	require.NotNil(t, order.ShipmentID)
	assert.Equal(t, "Z77", *order.ShipmentID)
	assert.Equal(t, "Z77", store.attached[id])
	assert.Equal(t, id.String(), carrier.calls[0].Number)
	assert.Equal(t, int64(1200), carrier.calls[0].Weight)

	_, _, err = svc.ShipOrder(ctx, id, OrderShipmentInput{WeightKg: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "second shipment must be refused")

	_, _, err = svc.ShipOrder(ctx, addressID, OrderShipmentInput{WeightKg: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, _, err = svc.ShipOrder(ctx, uuid.New(), OrderShipmentInput{WeightKg: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Len(t, carrier.calls, 1)
}
