package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/jirivrbic-boss/extroworld/pkg/config"
	redisclient "github.com/jirivrbic-boss/extroworld/pkg/redis"
)

const sessionTokenBytes = 32

var ErrInvalidSession = errors.New("invalid admin session")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AdminSessionKey(token string) string
}

// Manager issues and verifies back-office sessions: an opaque token stored in Redis
// plus an HMAC-SHA256 signature of that token under the admin signing secret.
type Manager struct {
	store  sessionStore
	keyer  sessionKeyer
	secret []byte
	ttl    time.Duration
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	Verify(ctx context.Context, token, signature string) (string, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.AdminConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newManager(client, client, cfg)
}

func newManager(store sessionStore, keyer sessionKeyer, cfg config.AdminConfig) (*Manager, error) {
	if strings.TrimSpace(cfg.SigningSecret) == "" {
		return nil, fmt.Errorf("admin signing secret is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("admin session ttl must be positive")
	}
	return &Manager{
		store:  store,
		keyer:  keyer,
		secret: []byte(cfg.SigningSecret),
		ttl:    cfg.SessionTTL,
	}, nil
}

// TTL reports the session lifetime used for cookies.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a session for username and returns the token and its signature.
func (m *Manager) Issue(ctx context.Context, username string) (string, string, error) {
	if strings.TrimSpace(username) == "" {
		return "", "", fmt.Errorf("username is required")
	}
	token, err := generateSessionToken()
	if err != nil {
		return "", "", err
	}
	if err := m.store.Set(ctx, m.keyer.AdminSessionKey(token), username, m.ttl); err != nil {
		return "", "", err
	}
	return token, m.Sign(token), nil
}

// Verify checks the signature and that the session is still live, returning the username.
func (m *Manager) Verify(ctx context.Context, token, signature string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" || strings.TrimSpace(signature) == "" {
		return "", ErrInvalidSession
	}
	expected := m.Sign(token)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signature))) != 1 {
		return "", ErrInvalidSession
	}
	username, err := m.store.Get(ctx, m.keyer.AdminSessionKey(token))
	if err != nil {
		return "", wrapNotFound(err)
	}
	return username, nil
}

// Revoke deletes the session tied to the token.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("session token is required")
	}
	return m.store.Del(ctx, m.keyer.AdminSessionKey(token))
}

// Sign returns the hex HMAC-SHA256 of token.
func (m *Manager) Sign(token string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func generateSessionToken() (string, error) {
	bytes := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrInvalidSession
	}
	return err
}
