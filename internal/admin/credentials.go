package admin

import (
	"strings"

	"github.com/jirivrbic-boss/extroworld/pkg/config"
	"github.com/jirivrbic-boss/extroworld/pkg/security"
)

// Credentials checks the single configured back-office account. An argon2id
// hash takes precedence over the plain password.
type Credentials struct {
	username     string
	password     string
	passwordHash string
}

// NewCredentials reads the admin account from configuration.
func NewCredentials(cfg config.AdminConfig) Credentials {
	return Credentials{
		username:     strings.TrimSpace(cfg.Username),
		password:     cfg.Password,
		passwordHash: strings.TrimSpace(cfg.PasswordHash),
	}
}

// Configured reports whether any login can succeed.
func (c Credentials) Configured() bool {
	return c.username != "" && (c.password != "" || c.passwordHash != "")
}

// Check compares username and password in constant time.
func (c Credentials) Check(username, password string) bool {
	if !c.Configured() {
		return false
	}
	userOK := security.CompareSecret(strings.TrimSpace(username), c.username)
	var passOK bool
	if c.passwordHash != "" {
		ok, err := security.VerifyPassword(password, c.passwordHash)
		passOK = err == nil && ok
	} else {
		passOK = security.CompareSecret(password, c.password)
	}
	return userOK && passOK
}
