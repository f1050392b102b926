package shipping

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	pkgstripe "github.com/jirivrbic-boss/extroworld/pkg/stripe"
)

const pickupNameHint = "zasil"

type rateSource interface {
	GetShippingRate(ctx context.Context, id string) (*stripe.ShippingRate, error)
	ListActiveShippingRates(ctx context.Context) ([]*stripe.ShippingRate, error)
}

// Rate is a carrier fee resolved from the processor's shipping rate table.
type Rate struct {
	ID          string `json:"id,omitempty"`
	AmountMinor int64  `json:"amountHaler"`
	Amount      int64  `json:"amountCzk"`
}

// ServiceParams groups dependencies for the shipping rate service.
type ServiceParams struct {
	Rates         rateSource
	Currency      string
	PickupRateID  string
	AddressRateID string
	Logger        *logger.Logger
}

// Service resolves shipping fees per delivery method.
type Service interface {
	FeeFor(ctx context.Context, method enums.ShippingMethod) (int64, error)
	PickupRate(ctx context.Context) (Rate, error)
}

type service struct {
	rates         rateSource
	currency      string
	pickupRateID  string
	addressRateID string
	logg          *logger.Logger
}

// NewService builds the shipping rate service.
func NewService(params ServiceParams) (Service, error) {
	if params.Rates == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping rate source is required")
	}
	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping currency is required")
	}
	return &service{
		rates:         params.Rates,
		currency:      currency,
		pickupRateID:  strings.TrimSpace(params.PickupRateID),
		addressRateID: strings.TrimSpace(params.AddressRateID),
		logg:          params.Logger,
	}, nil
}

// FeeFor returns the fee in whole currency units for the delivery method.
func (s *service) FeeFor(ctx context.Context, method enums.ShippingMethod) (int64, error) {
	switch method {
	case enums.ShippingMethodPickup:
		rate, err := s.PickupRate(ctx)
		if err != nil {
			return 0, err
		}
		return rate.Amount, nil
	case enums.ShippingMethodAddress:
		if s.addressRateID == "" {
			return 0, nil
		}
		r, err := s.rates.GetShippingRate(ctx, s.addressRateID)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address shipping rate")
		}
		rate, _ := s.toRate(r)
		return rate.Amount, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method")
	}
}

// PickupRate prefers the configured rate, then a rate named after the pickup
// network, then any rate in the shop currency. No match is a zero fee.
func (s *service) PickupRate(ctx context.Context) (Rate, error) {
	if s.pickupRateID != "" {
		r, err := s.rates.GetShippingRate(ctx, s.pickupRateID)
		if err == nil {
			if rate, ok := s.toRate(r); ok {
				return rate, nil
			}
		} else if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "rate_id", s.pickupRateID), "configured pickup rate unavailable")
		}
	}

	all, err := s.rates.ListActiveShippingRates(ctx)
	if err != nil {
		return Rate{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping rates")
	}
	for _, r := range all {
		if r != nil && strings.Contains(strings.ToLower(r.DisplayName), pickupNameHint) {
			rate, _ := s.toRate(r)
			return rate, nil
		}
	}
	for _, r := range all {
		if rate, ok := s.toRate(r); ok {
			return rate, nil
		}
	}
	return Rate{}, nil
}

// toRate converts a fixed-amount rate; ok is false when the currency does not match.
func (s *service) toRate(r *stripe.ShippingRate) (Rate, bool) {
	if r == nil {
		return Rate{}, false
	}
	out := Rate{ID: r.ID}
	if r.FixedAmount == nil || !strings.EqualFold(string(r.FixedAmount.Currency), s.currency) {
		return out, false
	}
	out.AmountMinor = r.FixedAmount.Amount
	out.Amount = pkgstripe.FromMinor(r.FixedAmount.Amount)
	return out, true
}
