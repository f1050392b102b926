package cart

import (
	"testing"

	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

func mustReduce(t *testing.T, state State, action Action) State {
	t.Helper()
	next, err := Reduce(state, action)
	if err != nil {
		t.Fatalf("reduce %T: %v", action, err)
	}
	return next
}

func TestAddItemMergesSameProductAndSize(t *testing.T) {
	s := NewState()
	s = mustReduce(t, s, AddItem{Item: LineItem{ProductID: "tee", Size: "M", Price: 690, Quantity: 1}})
	s = mustReduce(t, s, AddItem{Item: LineItem{ProductID: "tee", Size: "M", Price: 690, Quantity: 2}})
	s = mustReduce(t, s, AddItem{Item: LineItem{ProductID: "tee", Size: "L", Price: 690, Quantity: 1}})

	if len(s.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(s.Items))
	}
	if s.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", s.Items[0].Quantity)
	}
	if s.Version != 3 {
		t.Fatalf("expected version 3, got %d", s.Version)
	}
	if s.Subtotal() != 4*690 || s.ItemCount() != 4 {
		t.Fatalf("unexpected subtotal %d / count %d", s.Subtotal(), s.ItemCount())
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := mustReduce(t, NewState(), AddItem{Item: LineItem{ProductID: "tee", Price: 100, Quantity: 1}})
	_ = mustReduce(t, s, UpdateQuantity{ProductID: "tee", Quantity: 5})
	if s.Items[0].Quantity != 1 {
		t.Fatalf("input state was mutated: %d", s.Items[0].Quantity)
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	s := mustReduce(t, NewState(), AddItem{Item: LineItem{ProductID: "tee", Size: "S", Price: 100, Quantity: 1}})
	s = mustReduce(t, s, UpdateQuantity{ProductID: "tee", Size: "S", Quantity: 0})
	if !s.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", s.Items)
	}
	if _, err := Reduce(s, UpdateQuantity{ProductID: "tee", Size: "S", Quantity: 2}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for missing line, got %v", err)
	}
}

func TestAddItemValidation(t *testing.T) {
	cases := []LineItem{
		{ProductID: "", Quantity: 1},
		{ProductID: "tee", Quantity: 0},
		{ProductID: "tee", Quantity: 1, Price: -1},
	}
	for _, item := range cases {
		if _, err := Reduce(NewState(), AddItem{Item: item}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %+v, got %v", item, err)
		}
	}
}

func TestDiscountLifecycle(t *testing.T) {
	s := mustReduce(t, NewState(), AddItem{Item: LineItem{ProductID: "tee", Price: 999, Quantity: 1}})
	s = mustReduce(t, s, ApplyDiscount{Code: " extro10 ", Percent: 10})
	if s.Discount == nil || s.Discount.Code != "EXTRO10" {
		t.Fatalf("unexpected discount %+v", s.Discount)
	}
	if s.Total() != 899 {
		t.Fatalf("expected rounded total 899, got %d", s.Total())
	}

	if _, err := Reduce(s, ApplyDiscount{Percent: 101}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	s = mustReduce(t, s, RemoveDiscount{})
	if s.Discount != nil || s.Total() != 999 {
		t.Fatalf("expected discount removed, got %+v total %d", s.Discount, s.Total())
	}
}

func TestClearKeepsShipping(t *testing.T) {
	s := mustReduce(t, NewState(), SetShipping{Method: enums.ShippingMethodAddress})
	s = mustReduce(t, s, AddItem{Item: LineItem{ProductID: "tee", Price: 100, Quantity: 1}})
	s = mustReduce(t, s, ApplyDiscount{Code: "X", Percent: 100})
	s = mustReduce(t, s, Clear{})

	if !s.IsEmpty() || s.Discount != nil {
		t.Fatalf("expected items and discount cleared, got %+v", s)
	}
	if s.ShippingMethod != enums.ShippingMethodAddress {
		t.Fatalf("expected shipping to survive clear, got %s", s.ShippingMethod)
	}
	if _, err := Reduce(s, SetShipping{Method: "drone"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected invalid method to fail, got %v", err)
	}
}

func TestNewStateDefaults(t *testing.T) {
	s := NewState()
	if s.ShippingMethod != enums.ShippingMethodPickup || s.Schema != SchemaVersion {
		t.Fatalf("unexpected defaults %+v", s)
	}
}
