package discounts

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/jirivrbic-boss/extroworld/pkg/db"
	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

// LoyaltyPercent is what any matched loyalty code grants at checkout.
const LoyaltyPercent = 100

var codePattern = regexp.MustCompile(`^[A-Z0-9-]{3,64}$`)

type loyaltyLookup interface {
	FindUnusedByCode(ctx context.Context, ownerUserID, code string) (*models.LoyaltyCode, error)
}

type promotionLookup interface {
	FindPromotionPercent(ctx context.Context, code string) (int, bool, error)
}

// Resolution is the outcome of resolving a discount code for a user.
type Resolution struct {
	Code          string               `json:"code"`
	Percent       int                  `json:"percent"`
	MatchedCodeID *uuid.UUID           `json:"-"`
	Source        enums.DiscountSource `json:"source"`
}

// Special reports whether the reserved override matched.
func (r Resolution) Special() bool {
	return r.Source == enums.DiscountSourceMaster
}

// Resolver validates discount codes. It never mutates state.
type Resolver interface {
	Resolve(ctx context.Context, code, userID string) (Resolution, error)
}

// ResolverParams groups dependencies for the resolver.
type ResolverParams struct {
	MasterCode string
	Loyalty    loyaltyLookup
	// Promotions is optional; nil disables processor promotion codes.
	Promotions promotionLookup
	Logger     *logger.Logger
}

type resolver struct {
	masterCode string
	loyalty    loyaltyLookup
	promotions promotionLookup
	logg       *logger.Logger
}

// NewResolver builds a resolver.
func NewResolver(params ResolverParams) (Resolver, error) {
	if params.Loyalty == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loyalty lookup is required")
	}
	return &resolver{
		masterCode: Normalize(params.MasterCode),
		loyalty:    params.Loyalty,
		promotions: params.Promotions,
		logg:       params.Logger,
	}, nil
}

// Normalize trims and upper-cases a code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether a normalized code has an accepted shape.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Resolve checks the master code, then the user's unused loyalty codes, then
// processor promotion codes.
func (r *resolver) Resolve(ctx context.Context, code, userID string) (Resolution, error) {
	if strings.TrimSpace(userID) == "" {
		return Resolution{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to use a discount code")
	}
	normalized := Normalize(code)
	if normalized == "" {
		return Resolution{}, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	if !codePattern.MatchString(normalized) {
		return Resolution{}, pkgerrors.New(pkgerrors.CodeValidation, "discount code format is invalid")
	}

	if r.masterCode != "" && normalized == r.masterCode {
		if r.logg != nil {
			r.logg.Info(r.logg.WithField(ctx, "user_id", userID), "master discount code resolved")
		}
		return Resolution{Code: normalized, Percent: 100, Source: enums.DiscountSourceMaster}, nil
	}

	loyaltyCode, err := r.loyalty.FindUnusedByCode(ctx, userID, normalized)
	switch {
	case err == nil && loyaltyCode != nil:
		id := loyaltyCode.ID
		return Resolution{
			Code:          normalized,
			Percent:       LoyaltyPercent,
			MatchedCodeID: &id,
			Source:        enums.DiscountSourceLoyalty,
		}, nil
	case err != nil && !db.IsNotFound(err):
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up loyalty code")
	}

	if r.promotions != nil {
		percent, ok, err := r.promotions.FindPromotionPercent(ctx, normalized)
		if err != nil {
			return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up promotion code")
		}
		if ok && percent > 0 {
			if percent > 100 {
				percent = 100
			}
			return Resolution{Code: normalized, Percent: percent, Source: enums.DiscountSourcePromotion}, nil
		}
	}

	return Resolution{}, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
}
