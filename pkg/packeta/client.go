package packeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

const (
	defaultBaseURL              = "https://www.zasilkovna.cz"
	responseBodyReadLimit int64 = 64 << 10
	errorBodyPreviewLimit       = 512
)

var (
	defaultVersions        = []string{"v6", "v5", "v4"}
	errAPIPasswordRequired = errors.New("packeta api password is required")
)

// Client submits packets to the Packeta (Zásilkovna) REST API. Accounts are
// enabled for different API versions, so each call walks the configured
// versions until one accepts the packet.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiPassword string
	versions    []string
	eshop       string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithVersions sets the API versions tried, in order.
func WithVersions(versions []string) Option {
	return func(c *Client) {
		cleaned := make([]string, 0, len(versions))
		for _, v := range versions {
			if v = strings.TrimSpace(v); v != "" {
				cleaned = append(cleaned, v)
			}
		}
		if len(cleaned) > 0 {
			c.versions = cleaned
		}
	}
}

// WithEshop sets the sender label attached to every packet.
func WithEshop(eshop string) Option {
	return func(c *Client) {
		c.eshop = strings.TrimSpace(eshop)
	}
}

// NewClient builds a Packeta client for the given API password.
func NewClient(apiPassword string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(apiPassword)
	if trimmed == "" {
		return nil, errAPIPasswordRequired
	}

	client := &Client{
		apiPassword: trimmed,
		baseURL:     defaultBaseURL,
		versions:    defaultVersions,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// PacketAttributes is the packet payload. Value and COD are whole CZK,
// weight is grams.
type PacketAttributes struct {
	Number    string
	Name      string
	Surname   string
	Company   string
	Email     string
	Phone     string
	AddressID string
	Value     int64
	Weight    int64
	COD       int64
	Note      string
}

// PacketResult identifies the accepted packet.
type PacketResult struct {
	ID       string
	Endpoint string
	Raw      map[string]any
}

// CreatePacket posts the packet to each configured version endpoint and
// returns the first success. When every version fails the last error is
// returned.
func (c *Client) CreatePacket(ctx context.Context, attrs PacketAttributes) (PacketResult, error) {
	if c == nil {
		return PacketResult{}, pkgerrors.New(pkgerrors.CodeDependency, "packeta client not configured")
	}
	form := c.form(attrs)

	var lastErr error
	for _, version := range c.versions {
		endpoint := c.buildURL(version)
		raw, err := c.post(ctx, endpoint, form)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return PacketResult{ID: extractID(raw), Endpoint: endpoint, Raw: raw}, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no packeta api versions configured")
	}
	return PacketResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "create packeta packet")
}

func (c *Client) form(attrs PacketAttributes) url.Values {
	form := url.Values{}
	form.Set("apiPassword", c.apiPassword)
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			form.Set("packetAttributes["+key+"]", value)
		}
	}
	set("number", attrs.Number)
	set("name", attrs.Name)
	set("surname", attrs.Surname)
	set("company", attrs.Company)
	set("email", attrs.Email)
	set("phone", attrs.Phone)
	set("addressId", attrs.AddressID)
	set("eshop", c.eshop)
	form.Set("packetAttributes[value]", strconv.FormatInt(max(attrs.Value, 0), 10))
	form.Set("packetAttributes[weight]", strconv.FormatInt(max(attrs.Weight, 1), 10))
	if attrs.COD > 0 {
		form.Set("packetAttributes[cod]", strconv.FormatInt(attrs.COD, 10))
	}
	set("note", attrs.Note)
	return form
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", endpoint, err)
	}

	data := decodeBody(body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg, ok := data["error"].(string); ok && msg != "" {
			return nil, fmt.Errorf("%s: %s", endpoint, msg)
		}
		return nil, fmt.Errorf("%s: status %d", endpoint, resp.StatusCode)
	}
	if status, _ := data["status"].(string); strings.EqualFold(status, "fault") {
		msg, _ := data["string"].(string)
		if msg == "" {
			msg, _ = data["fault"].(string)
		}
		return nil, fmt.Errorf("%s: fault %s", endpoint, msg)
	}
	return data, nil
}

// decodeBody accepts plain JSON objects as well as JSON-encoded strings
// wrapping an object. Anything else is kept under "raw".
func decodeBody(body []byte) map[string]any {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err == nil {
		return data
	}
	var wrapped string
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if err := json.Unmarshal([]byte(wrapped), &data); err == nil {
			return data
		}
	}
	preview := string(body)
	if len(preview) > errorBodyPreviewLimit {
		preview = preview[:errorBodyPreviewLimit]
	}
	return map[string]any{"raw": preview}
}

// extractID reads the packet id from result.id, packetId, id or number.
func extractID(data map[string]any) string {
	if result, ok := data["result"].(map[string]any); ok {
		if id := stringify(result["id"]); id != "" {
			return id
		}
	}
	for _, key := range []string{"packetId", "id", "number"} {
		if id := stringify(data[key]); id != "" {
			return id
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func (c *Client) buildURL(version string) string {
	return fmt.Sprintf("%s/api/%s/createPacket.json", strings.TrimRight(c.baseURL, "/"), strings.Trim(version, "/"))
}
