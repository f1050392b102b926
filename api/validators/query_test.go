package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	cases := []struct {
		url     string
		want    int
		wantErr bool
	}{
		{"/", 20, false},
		{"/?limit=5", 5, false},
		{"/?limit=abc", 0, true},
		{"/?limit=0", 0, true},
		{"/?limit=101", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseQueryInt(httptest.NewRequest(http.MethodGet, tc.url, nil), "limit", 20, 1, 100)
		if tc.wantErr {
			require.Error(t, err, tc.url)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
			continue
		}
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseQueryIntRangeDetails(t *testing.T) {
	_, err := ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?offset=-1", nil), "offset", 0, 0, 10)
	details := pkgerrors.As(err).Details().(map[string]any)
	assert.Equal(t, "offset", details["field"])
	assert.Equal(t, 0, details["min"])
	assert.Equal(t, 10, details["max"])
}

func TestParseQueryBool(t *testing.T) {
	got, err := ParseQueryBool(httptest.NewRequest(http.MethodGet, "/", nil), "used")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseQueryBool(httptest.NewRequest(http.MethodGet, "/?used=true", nil), "used")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, *got)

	_, err = ParseQueryBool(httptest.NewRequest(http.MethodGet, "/?used=maybe", nil), "used")
	assert.Error(t, err)
}

func withParam(name, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(name, value)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestParseURLUUID(t *testing.T) {
	id := uuid.New()
	got, err := ParseURLUUID(withParam("orderId", id.String()), "orderId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseURLUUID(withParam("orderId", "nope"), "orderId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = URLParam(withParam("orderId", "  "), "orderId")
	assert.Error(t, err)
}
