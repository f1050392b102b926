package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/jirivrbic-boss/extroworld/internal/discounts"
	"github.com/jirivrbic-boss/extroworld/internal/orders"
	"github.com/jirivrbic-boss/extroworld/pkg/auth/session"
	"github.com/jirivrbic-boss/extroworld/pkg/config"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

const invalidCredentialsMessage = "invalid credentials"

type sessionManager interface {
	Issue(ctx context.Context, username string) (string, string, error)
	Verify(ctx context.Context, token, signature string) (string, error)
	Revoke(ctx context.Context, token string) error
	TTL() time.Duration
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type statsSource interface {
	Stats(ctx context.Context) (orders.Stats, error)
}

type promotionCreator interface {
	CreatePromotion(ctx context.Context, code string, percent int) (*stripe.PromotionCode, error)
}

// ServiceParams bundles the dependencies required to build the admin service.
type ServiceParams struct {
	Config     config.AdminConfig
	Sessions   sessionManager
	Limiter    rateLimiter
	Orders     statsSource
	Promotions promotionCreator
	Logger     *logger.Logger
	Now        func() time.Time
}

// Service covers back-office authentication and the dashboard helpers that
// do not belong to a single domain package.
type Service interface {
	Login(ctx context.Context, req LoginRequest, clientIP string) (Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token, signature string) (string, error)
	CheckCredentials(ctx context.Context, scope string, req LoginRequest, clientIP string) error
	Stats(ctx context.Context) (StatsDTO, error)
	CreatePromo(ctx context.Context, input PromoInput) (PromoDTO, error)
}

type service struct {
	creds      Credentials
	cfg        config.AdminConfig
	sessions   sessionManager
	limiter    rateLimiter
	orders     statsSource
	promotions promotionCreator
	logg       *logger.Logger
	now        func() time.Time
}

// NewService constructs the admin service.
func NewService(params ServiceParams) (Service, error) {
	if params.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if params.Limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders stats source is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		creds:      NewCredentials(params.Config),
		cfg:        params.Config,
		sessions:   params.Sessions,
		limiter:    params.Limiter,
		orders:     params.Orders,
		promotions: params.Promotions,
		logg:       params.Logger,
		now:        now,
	}, nil
}

// Login verifies credentials under the login rate limit and issues a session.
func (s *service) Login(ctx context.Context, req LoginRequest, clientIP string) (Session, error) {
	if err := s.CheckCredentials(ctx, "admin_login", req, clientIP); err != nil {
		return Session{}, err
	}
	username := strings.TrimSpace(req.Username)
	token, signature, err := s.sessions.Issue(ctx, username)
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue admin session")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"admin":     username,
			"client_ip": clientIP,
		}), "admin login")
	}
	return Session{
		Username:  username,
		Token:     token,
		Signature: signature,
		ExpiresAt: s.now().Add(s.sessions.TTL()),
	}, nil
}

// Logout revokes the session. Unknown tokens are ignored.
func (s *service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke admin session")
	}
	return nil
}

// Authenticate resolves a session cookie pair to the admin username.
func (s *service) Authenticate(ctx context.Context, token, signature string) (string, error) {
	username, err := s.sessions.Verify(ctx, token, signature)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "admin session required")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify admin session")
	}
	return username, nil
}

// CheckCredentials applies per-IP and per-username fixed windows for scope,
// then compares the credentials.
func (s *service) CheckCredentials(ctx context.Context, scope string, req LoginRequest, clientIP string) error {
	if !s.creds.Configured() {
		return pkgerrors.New(pkgerrors.CodeInternal, "admin login is not configured")
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if err := s.allow(ctx, scope+":ip:"+clientIP, s.cfg.LoginIPLimit); err != nil {
		return err
	}
	if username != "" {
		if err := s.allow(ctx, scope+":user:"+username, s.cfg.LoginUserLimit); err != nil {
			return err
		}
	}
	if !s.creds.Check(req.Username, req.Password) {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"scope":     scope,
				"client_ip": clientIP,
			}), "admin credentials rejected")
		}
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return nil
}

func (s *service) allow(ctx context.Context, scope string, limit int) error {
	if limit <= 0 {
		return nil
	}
	window := s.cfg.LoginWindow
	if window <= 0 {
		window = time.Minute
	}
	ok, _, err := s.limiter.FixedWindowAllow(ctx, scope, int64(limit), window)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
	}
	return nil
}

// Stats summarizes orders, paid revenue and users.
func (s *service) Stats(ctx context.Context) (StatsDTO, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return StatsDTO{}, err
	}
	return StatsDTO{
		Orders:      stats.Orders,
		PaidOrders:  stats.PaidOrders,
		PaidRevenue: stats.PaidRevenue,
		Users:       stats.Users,
	}, nil
}

// CreatePromo creates a percentage coupon valid once per customer together
// with its upper-cased promotion code.
func (s *service) CreatePromo(ctx context.Context, input PromoInput) (PromoDTO, error) {
	if s.promotions == nil {
		return PromoDTO{}, pkgerrors.New(pkgerrors.CodeDependency, "promotions are not configured")
	}
	code := discounts.Normalize(input.Code)
	if !discounts.ValidCode(code) {
		return PromoDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "code must be 3-64 characters of A-Z, 0-9 or dash")
	}
	if input.Percent < 1 || input.Percent > 100 {
		return PromoDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "percent must be between 1 and 100")
	}
	promo, err := s.promotions.CreatePromotion(ctx, code, input.Percent)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 400 {
			return PromoDTO{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "promotion code rejected")
		}
		return PromoDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion code")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"promotion_code": code,
			"percent":        input.Percent,
		}), "promotion code created")
	}
	return PromoDTO{ID: promo.ID, Code: promo.Code, Percent: input.Percent}, nil
}
