package pricing

import (
	"context"
	"testing"

	"github.com/jirivrbic-boss/extroworld/internal/catalog"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

type fakePrices map[string]catalog.PriceQuote

func (f fakePrices) LookupPrice(_ context.Context, ref string) (catalog.PriceQuote, error) {
	if q, ok := f[ref]; ok {
		return q, nil
	}
	return catalog.PriceQuote{}, pkgerrors.New(pkgerrors.CodeNotFound, "price not found")
}

type fixedFee struct {
	fee   int64
	calls int
}

func (f *fixedFee) FeeFor(context.Context, enums.ShippingMethod) (int64, error) {
	f.calls++
	return f.fee, nil
}

func newEngine(t *testing.T, fee int64) (Engine, *fixedFee) {
	t.Helper()
	fees := &fixedFee{fee: fee}
	e, err := NewEngine(EngineParams{
		Prices: fakePrices{
			"price_tee":    {PriceID: "price_tee", ProductID: "prod_tee", Name: "Tee", UnitPrice: 645},
			"price_hoodie": {PriceID: "price_hoodie", ProductID: "prod_hoodie", Name: "Hoodie", UnitPrice: 500},
			"price_sock":   {PriceID: "price_sock", ProductID: "prod_sock", Name: "Sock", UnitPrice: 5},
		},
		Fees:      fees,
		MinCharge: 10,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e, fees
}

func TestComputeTotalScenarioA(t *testing.T) {
	e, _ := newEngine(t, 99)
	q, err := e.ComputeTotal(context.Background(), []LineRef{{PriceRef: "price_tee", Quantity: 2}}, 0, enums.ShippingMethodPickup)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if q.Subtotal != 1290 || q.Total != 1389 || q.ShippingFee != 99 {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestComputeTotalIgnoresClientPriceAndFloorsQuantity(t *testing.T) {
	e, _ := newEngine(t, 0)
	q, err := e.ComputeTotal(context.Background(), []LineRef{
		{PriceRef: "price_hoodie", Quantity: 0, ProductID: "tampered"},
		{PriceRef: ""},
		{PriceRef: "price_gone", Quantity: 3},
	}, 0, enums.ShippingMethodAddress)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(q.Lines) != 1 || q.Lines[0].Quantity != 1 || q.Lines[0].ProductID != "prod_hoodie" {
		t.Fatalf("unexpected lines %+v", q.Lines)
	}
	if q.Total != 500 {
		t.Fatalf("expected total 500, got %d", q.Total)
	}
}

func TestComputeTotalFullDiscountWaivesShipping(t *testing.T) {
	e, fees := newEngine(t, 99)
	q, err := e.ComputeTotal(context.Background(), []LineRef{{PriceRef: "price_hoodie", Quantity: 1}}, 100, enums.ShippingMethodPickup)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if q.Total != 0 || !q.ZeroAmount || q.Subtotal != 500 {
		t.Fatalf("unexpected quote %+v", q)
	}
	if fees.calls != 0 {
		t.Fatal("fee lookup should be skipped for a full discount")
	}
}

func TestComputeTotalBelowMinimum(t *testing.T) {
	e, _ := newEngine(t, 0)
	q, err := e.ComputeTotal(context.Background(), []LineRef{{PriceRef: "price_sock", Quantity: 1}}, 0, enums.ShippingMethodAddress)
	if !pkgerrors.IsCode(err, pkgerrors.CodeBelowMinimum) {
		t.Fatalf("expected below minimum, got %v", err)
	}
	if q.Total != 5 {
		t.Fatalf("expected quote to carry total 5, got %d", q.Total)
	}
}

func TestComputeTotalShippingAfterDiscount(t *testing.T) {
	e, _ := newEngine(t, 99)
	q, err := e.ComputeTotal(context.Background(), []LineRef{{PriceRef: "price_tee", Quantity: 1}}, 15, enums.ShippingMethodPickup)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// 645 * 0.85 = 548.25 -> 548, plus undiscounted 99
	if q.Merchandise != 548 || q.Total != 647 {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestComputeTotalValidation(t *testing.T) {
	e, _ := newEngine(t, 0)
	ctx := context.Background()
	if _, err := e.ComputeTotal(ctx, []LineRef{{PriceRef: "price_tee"}}, 101, enums.ShippingMethodPickup); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected percent validation, got %v", err)
	}
	if _, err := e.ComputeTotal(ctx, nil, 0, enums.ShippingMethodPickup); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected empty cart validation, got %v", err)
	}
	if _, err := e.ComputeTotal(ctx, []LineRef{{PriceRef: "price_tee"}}, 0, "drone"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected method validation, got %v", err)
	}
}

func TestApplyDiscountBounds(t *testing.T) {
	cases := []struct {
		amount  int64
		percent int
		want    int64
	}{
		{1000, 0, 1000},
		{1000, 100, 0},
		{999, 10, 899},
		{5, 50, 3},
		{1, 50, 1},
		{1290, 33, 864},
	}
	for _, tc := range cases {
		got := ApplyDiscount(tc.amount, tc.percent)
		if got != tc.want {
			t.Fatalf("ApplyDiscount(%d, %d) = %d, want %d", tc.amount, tc.percent, got, tc.want)
		}
		if got < 0 || got > tc.amount {
			t.Fatalf("discount out of bounds for %d/%d: %d", tc.amount, tc.percent, got)
		}
	}
}
