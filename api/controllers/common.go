package controllers

import (
	"net/http"
	"strings"

	"github.com/jirivrbic-boss/extroworld/api/middleware"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

func requireUser(r *http.Request) (string, error) {
	uid := middleware.UserIDFromContext(r.Context())
	if strings.TrimSpace(uid) == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return uid, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable")
}
