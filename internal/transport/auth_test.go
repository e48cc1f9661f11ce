package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startupai-hq/evidence-core/internal/transport"
)

type staticResolver struct {
	tokens map[string]string
}

func (r *staticResolver) ResolveTenant(_ context.Context, token string) (string, error) {
	tenantID, ok := r.tokens[token]
	if !ok {
		return "", transport.ErrUnauthorized
	}
	return tenantID, nil
}

func authedHandler(t *testing.T, wantTenant string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := transport.TenantFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantTenant, tenantID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	resolver := &staticResolver{tokens: map[string]string{"secret": "tenant1"}}
	handler := transport.AuthMiddleware(resolver)(authedHandler(t, "tenant1"))

	req := httptest.NewRequest(http.MethodGet, "/projects/p1", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	resolver := &staticResolver{tokens: map[string]string{"secret": "tenant1"}}
	handler := transport.AuthMiddleware(resolver)(authedHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/projects/p1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	resolver := &staticResolver{tokens: map[string]string{"secret": "tenant1"}}
	handler := transport.AuthMiddleware(resolver)(authedHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/projects/p1", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}
