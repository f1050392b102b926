package cart

import (
	"strings"

	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

// Action is a cart state transition.
type Action interface {
	apply(State) (State, error)
}

// Reduce applies action to a copy of state and bumps the version on success.
func Reduce(state State, action Action) (State, error) {
	if action == nil {
		return state, pkgerrors.New(pkgerrors.CodeValidation, "cart action is required")
	}
	next, err := action.apply(state.normalize().clone())
	if err != nil {
		return state, err
	}
	next.Version = state.Version + 1
	return next, nil
}

// AddItem merges into an existing line with the same product and size.
type AddItem struct {
	Item LineItem
}

func (a AddItem) apply(s State) (State, error) {
	item := a.Item
	item.ProductID = strings.TrimSpace(item.ProductID)
	item.Size = strings.TrimSpace(item.Size)
	if item.ProductID == "" {
		return s, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if item.Quantity < 1 {
		return s, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if item.Price < 0 {
		return s, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	for i := range s.Items {
		if s.Items[i].sameLine(item.ProductID, item.Size) {
			s.Items[i].Quantity += item.Quantity
			return s, nil
		}
	}
	s.Items = append(s.Items, item)
	return s, nil
}

// RemoveItem drops the matching line. Missing lines are ignored.
type RemoveItem struct {
	ProductID string
	Size      string
}

func (a RemoveItem) apply(s State) (State, error) {
	kept := s.Items[:0]
	for _, item := range s.Items {
		if !item.sameLine(strings.TrimSpace(a.ProductID), strings.TrimSpace(a.Size)) {
			kept = append(kept, item)
		}
	}
	s.Items = kept
	return s, nil
}

// UpdateQuantity sets a line's quantity. Zero removes the line.
type UpdateQuantity struct {
	ProductID string
	Size      string
	Quantity  int
}

func (a UpdateQuantity) apply(s State) (State, error) {
	if a.Quantity < 0 {
		return s, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if a.Quantity == 0 {
		return RemoveItem{ProductID: a.ProductID, Size: a.Size}.apply(s)
	}
	productID, size := strings.TrimSpace(a.ProductID), strings.TrimSpace(a.Size)
	for i := range s.Items {
		if s.Items[i].sameLine(productID, size) {
			s.Items[i].Quantity = a.Quantity
			return s, nil
		}
	}
	return s, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

// Clear empties the cart and drops the discount. Shipping choice survives.
type Clear struct{}

func (Clear) apply(s State) (State, error) {
	s.Items = []LineItem{}
	s.Discount = nil
	return s, nil
}

// SetShipping selects the delivery method.
type SetShipping struct {
	Method enums.ShippingMethod
}

func (a SetShipping) apply(s State) (State, error) {
	if !a.Method.IsValid() {
		return s, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method")
	}
	s.ShippingMethod = a.Method
	return s, nil
}

// ApplyDiscount replaces the cart discount.
type ApplyDiscount struct {
	Code    string
	Percent int
}

func (a ApplyDiscount) apply(s State) (State, error) {
	if a.Percent < 0 || a.Percent > 100 {
		return s, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	s.Discount = &Discount{Code: strings.ToUpper(strings.TrimSpace(a.Code)), Percent: a.Percent}
	return s, nil
}

// RemoveDiscount clears the applied discount.
type RemoveDiscount struct{}

func (RemoveDiscount) apply(s State) (State, error) {
	s.Discount = nil
	return s, nil
}
