package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cobaltcommerce/cobalt-backend/pkg/config"
)

func testRouter() http.Handler {
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "cobalt-test", ExpirationMinutes: 15},
	}
	return NewRouter(RouterParams{Config: cfg})
}

func TestRouterServesLiveness(t *testing.T) {
	handler := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if env := rec.Header().Get("X-Cobalt-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}
}

func TestRouterGuardsManagementSurface(t *testing.T) {
	handler := testRouter()

	for _, target := range []string{
		"/api/admin/agencies",
		"/api/agency/stores",
		"/api/agency/billing/subscription",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without credentials, got %d", target, rec.Code)
		}
	}
}

func TestRouterUnknownRouteReturns404(t *testing.T) {
	handler := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
