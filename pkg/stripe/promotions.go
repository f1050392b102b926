package stripe

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/coupon"
	"github.com/stripe/stripe-go/v84/promotioncode"
)

// FindPromotionPercent looks up an active promotion code and returns its coupon percent_off.
// ok is false when no active code exists or its coupon is not percentage based.
func (c *Client) FindPromotionPercent(ctx context.Context, code string) (percent int, ok bool, err error) {
	params := &stripe.PromotionCodeListParams{
		Code:   stripe.String(code),
		Active: stripe.Bool(true),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	params.AddExpand("data.promotion.coupon")

	iter := promotioncode.List(params)
	for iter.Next() {
		pc := iter.PromotionCode()
		if pc == nil || pc.Promotion == nil || pc.Promotion.Coupon == nil {
			continue
		}
		off := int(pc.Promotion.Coupon.PercentOff)
		if off <= 0 {
			continue
		}
		return off, true, nil
	}
	if err := iter.Err(); err != nil {
		return 0, false, err
	}
	return 0, false, nil
}

// CreatePromotion creates a single-use-duration percentage coupon and a customer-facing code for it.
func (c *Client) CreatePromotion(ctx context.Context, code string, percent int) (*stripe.PromotionCode, error) {
	couponParams := &stripe.CouponParams{
		PercentOff: stripe.Float64(float64(percent)),
		Duration:   stripe.String(string(stripe.CouponDurationOnce)),
		Name:       stripe.String(code),
	}
	couponParams.Context = ctx
	cp, err := coupon.New(couponParams)
	if err != nil {
		return nil, err
	}

	params := &stripe.PromotionCodeParams{
		Code: stripe.String(strings.ToUpper(strings.TrimSpace(code))),
		Promotion: &stripe.PromotionCodePromotionParams{
			Type:   stripe.String("coupon"),
			Coupon: stripe.String(cp.ID),
		},
	}
	params.Context = ctx
	return promotioncode.New(params)
}
