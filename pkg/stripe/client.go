package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/jirivrbic-boss/extroworld/pkg/config"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

// Mode is the Stripe account mode the storefront talks to.
type Mode string

const (
	ModeTest Mode = "test"
	ModeLive Mode = "live"
)

// keyPrefixes lists the secret and restricted key prefixes valid per mode.
var keyPrefixes = map[Mode][]string{
	ModeTest: {"sk_test_", "rk_test_"},
	ModeLive: {"sk_live_", "rk_live_"},
}

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", ModeTest, ModeLive)
)

// Client is the storefront's gateway to Stripe: the product catalog,
// PaymentIntents, promotion codes, shipping rates and webhook verification.
type Client struct {
	mode          Mode
	signingSecret string
}

// NewClient configures the stripe-go package once. httpClient, when set,
// carries tracing on the API backend. A key that belongs to the other mode
// is rejected so a test deploy can never charge live cards.
func NewClient(ctx context.Context, cfg config.StripeConfig, httpClient *http.Client, logg *logger.Logger) (*Client, error) {
	mode, err := parseMode(cfg.Environment())
	if err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	secret := strings.TrimSpace(cfg.Secret)
	switch {
	case apiKey == "":
		return nil, errAPIKeyRequired
	case secret == "":
		return nil, errSecretRequired
	case !mode.accepts(apiKey):
		return nil, fmt.Errorf("stripe %s mode needs a key starting with %s", mode, strings.Join(keyPrefixes[mode], " or "))
	}

	stripe.Key = apiKey
	if httpClient != nil {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{HTTPClient: httpClient})
		stripe.SetBackend(stripe.APIBackend, backend)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "stripe_mode", string(mode)), "stripe client initialized")
	}
	return &Client{mode: mode, signingSecret: secret}, nil
}

// Environment reports the mode in use, "test" or "live".
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return string(c.mode)
}

// SigningSecret is the whsec_ secret that webhook payloads are signed with.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

func parseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if mode == "" {
		return ModeTest, nil
	}
	if _, ok := keyPrefixes[mode]; !ok {
		return "", errInvalidStripeEnv
	}
	return mode, nil
}

func (m Mode) accepts(key string) bool {
	for _, prefix := range keyPrefixes[m] {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
