package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/jirivrbic-boss/extroworld/internal/orders"
	"github.com/jirivrbic-boss/extroworld/pkg/auth/session"
	"github.com/jirivrbic-boss/extroworld/pkg/config"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/security"
)

type fakeSessions struct {
	live map[string]string
}

func (f *fakeSessions) Issue(_ context.Context, username string) (string, string, error) {
	f.live["tok"] = username
	return "tok", "sig", nil
}

func (f *fakeSessions) Verify(_ context.Context, token, signature string) (string, error) {
	if signature != "sig" {
		return "", session.ErrInvalidSession
	}
	username, ok := f.live[token]
	if !ok {
		return "", session.ErrInvalidSession
	}
	return username, nil
}

func (f *fakeSessions) Revoke(_ context.Context, token string) error {
	delete(f.live, token)
	return nil
}

func (f *fakeSessions) TTL() time.Duration { return 4 * time.Hour }

type countingLimiter struct {
	counts map[string]int64
}

func (c *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	c.counts[scope]++
	return c.counts[scope] <= limit, c.counts[scope], nil
}

type fakeStats struct{}

func (fakeStats) Stats(context.Context) (orders.Stats, error) {
	return orders.Stats{Orders: 3, PaidOrders: 2, PaidRevenue: 1500, Users: 2}, nil
}

type fakePromotions struct {
	codes []string
	err   error
}

func (f *fakePromotions) CreatePromotion(_ context.Context, code string, _ int) (*stripe.PromotionCode, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.codes = append(f.codes, code)
	return &stripe.PromotionCode{ID: "promo_1", Code: code}, nil
}

var fixedNow = time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, cfg config.AdminConfig, promos *fakePromotions) (Service, *fakeSessions) {
	t.Helper()
	sessions := &fakeSessions{live: map[string]string{}}
	params := ServiceParams{
		Config:   cfg,
		Sessions: sessions,
		Limiter:  &countingLimiter{counts: map[string]int64{}},
		Orders:   fakeStats{},
		Now:      func() time.Time { return fixedNow },
	}
	if promos != nil {
		params.Promotions = promos
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc, sessions
}

func plainConfig() config.AdminConfig {
	return config.AdminConfig{
		Username:       "admin",
		Password:       "hunter2",
		SigningSecret:  "s3cret",
		LoginWindow:    time.Minute,
		LoginIPLimit:   10,
		LoginUserLimit: 3,
	}
}

func TestLoginIssuesSessionAndLogoutRevokes(t *testing.T) {
	svc, sessions := newTestService(t, plainConfig(), nil)
	ctx := context.Background()

	sess, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "hunter2"}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, fixedNow.Add(4*time.Hour), sess.ExpiresAt)

	username, err := svc.Authenticate(ctx, sess.Token, sess.Signature)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)

	_, err = svc.Authenticate(ctx, sess.Token, "forged")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.NoError(t, svc.Logout(ctx, sess.Token))
	assert.Empty(t, sessions.live)
	_, err = svc.Authenticate(ctx, sess.Token, sess.Signature)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginRejectsAndRateLimits(t *testing.T) {
	svc, _ := newTestService(t, plainConfig(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "wrong"}, "10.0.0.2")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	}
	_, err := svc.Login(ctx, LoginRequest{Username: "Admin", Password: "hunter2"}, "10.0.0.3")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit), "username window is shared across IPs")
}

func TestLoginWithArgonHash(t *testing.T) {
	hash, err := security.HashPassword("correct horse", config.PasswordConfig{
		ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
	})
	require.NoError(t, err)
	cfg := plainConfig()
	cfg.Password = ""
	cfg.PasswordHash = hash
	svc, _ := newTestService(t, cfg, nil)

	_, err = svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "correct horse"}, "10.0.0.4")
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "hunter2"}, "10.0.0.4")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginUnconfigured(t *testing.T) {
	svc, _ := newTestService(t, config.AdminConfig{LoginIPLimit: 5}, nil)
	_, err := svc.Login(context.Background(), LoginRequest{Username: "", Password: ""}, "10.0.0.5")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestStatsAndPromo(t *testing.T) {
	promos := &fakePromotions{}
	svc, _ := newTestService(t, plainConfig(), promos)
	ctx := context.Background()

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatsDTO{Orders: 3, PaidOrders: 2, PaidRevenue: 1500, Users: 2}, stats)

	promo, err := svc.CreatePromo(ctx, PromoInput{Code: " winter25 ", Percent: 25})
	require.NoError(t, err)
	assert.Equal(t, "WINTER25", promo.Code)
	assert.Equal(t, []string{"WINTER25"}, promos.codes)

	_, err = svc.CreatePromo(ctx, PromoInput{Code: "no spaces", Percent: 25})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.CreatePromo(ctx, PromoInput{Code: "FREE", Percent: 101})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	promos.err = &stripe.Error{HTTPStatusCode: 400, Msg: "code exists"}
	_, err = svc.CreatePromo(ctx, PromoInput{Code: "WINTER25", Percent: 25})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	promos.err = errors.New("network")
	_, err = svc.CreatePromo(ctx, PromoInput{Code: "SPRING", Percent: 10})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
