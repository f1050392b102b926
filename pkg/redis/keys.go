package redis

import "strings"

// DefaultKeyspace prefixes every key the storefront writes.
var DefaultKeyspace = Keyspace{Namespace: "xw"}

// Keyspace builds namespaced keys of the form ns:family:part:part.
// Empty parts are dropped so optional scopes do not leave "::" behind.
type Keyspace struct {
	Namespace string
}

func (k Keyspace) key(family string, parts ...string) string {
	var b strings.Builder
	b.WriteString(k.namespace())
	b.WriteByte(':')
	b.WriteString(family)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

func (k Keyspace) namespace() string {
	if k.Namespace == "" {
		return DefaultKeyspace.Namespace
	}
	return k.Namespace
}

// IdempotencyKey scopes a client or provider supplied key.
func (k Keyspace) IdempotencyKey(scope, id string) string {
	return k.key("idempotency", scope, id)
}

func (k Keyspace) RateLimitKey(scope string) string { return k.key("rate_limit", scope) }

// CartKey holds a shopper's serialized cart.
func (k Keyspace) CartKey(owner string) string { return k.key("cart", owner) }

// AdminSessionKey maps an opaque admin cookie token to its username.
func (k Keyspace) AdminSessionKey(token string) string { return k.key("admin_session", token) }

func (k Keyspace) LockKey(name string) string { return k.key("lock", name) }
