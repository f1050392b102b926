package sitelock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jirivrbic-boss/extroworld/internal/admin"
	"github.com/jirivrbic-boss/extroworld/pkg/config"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

type staticChecker struct{ ok bool }

func (s staticChecker) CheckCredentials(context.Context, string, admin.LoginRequest, string) error {
	if s.ok {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

var unlockAt = time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC)

func gateAt(now time.Time, checker credentialChecker) *Gate {
	return NewGate(config.LockConfig{Enabled: true, UnlockAt: unlockAt}, checker, func() time.Time { return now })
}

func TestGateBeforeUnlock(t *testing.T) {
	g := gateAt(unlockAt.Add(-90*time.Second), nil)

	status := g.Status()
	assert.True(t, status.Locked)
	assert.Equal(t, int64(90), status.SecondsRemaining)

	cases := map[string]bool{
		"/":                  false,
		"/products":          false,
		"/lock":              true,
		"/api/v1/products":   true,
		"/health/live":       true,
		"/favicon.ico":       true,
		"/images/banner.jpg": true,
	}
	for path, want := range cases {
		assert.Equal(t, want, g.Allows(path, ""), path)
	}
	assert.True(t, g.Allows("/products", "1"), "unlock cookie passes")
	assert.False(t, g.Allows("/products", "0"))
}

func TestGateAfterUnlockOrDisabled(t *testing.T) {
	g := gateAt(unlockAt, nil)
	assert.False(t, g.Locked())
	assert.True(t, g.Allows("/", ""))
	assert.Zero(t, g.Status().SecondsRemaining)

	disabled := NewGate(config.LockConfig{Enabled: false, UnlockAt: unlockAt}, nil, func() time.Time { return unlockAt.Add(-time.Hour) })
	assert.True(t, disabled.Allows("/", ""))
}

func TestGateUnlock(t *testing.T) {
	g := gateAt(unlockAt.Add(-time.Hour), staticChecker{ok: true})
	value, ttl, err := g.Unlock(context.Background(), admin.LoginRequest{Username: "admin", Password: "pw"}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "1", value)
	assert.Equal(t, 24*time.Hour, ttl)

	g = gateAt(unlockAt.Add(-time.Hour), staticChecker{})
	_, _, err = g.Unlock(context.Background(), admin.LoginRequest{Username: "admin", Password: "bad"}, "10.0.0.1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, _, err = gateAt(unlockAt.Add(-time.Hour), nil).Unlock(context.Background(), admin.LoginRequest{}, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}
