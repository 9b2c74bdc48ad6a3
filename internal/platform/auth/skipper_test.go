package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAuthSkipper_PublicRoutes(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/health"},
		{http.MethodHead, "/health"},
		{http.MethodGet, "/metrics"},
		{http.MethodGet, "/api/v1/clinics"},
		{http.MethodGet, "/api/v1/clinics/:id/availability"},
		{http.MethodPost, "/api/v1/clinics/:id/appointments"},
		{http.MethodPost, "/api/v1/clinics/:id/appointments/validate"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(tt.method, "/", nil), httptest.NewRecorder())
			c.SetPath(tt.path)

			if !AuthSkipper(c) {
				t.Errorf("expected %s %s to be public", tt.method, tt.path)
			}
		})
	}
}

func TestAuthSkipper_ProtectedRoutes(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/clinics"},
		{http.MethodGet, "/api/v1/clinic/appointments"},
		{http.MethodPatch, "/api/v1/clinic/appointments/:id/status"},
		{http.MethodGet, "/api/v1/patients/me"},
		{http.MethodGet, "/api/v1/admin/clinics"},
		{http.MethodGet, "/health/extra"},
		{http.MethodGet, "/"},
	}

	for _, tt := range tests {
		if IsPublicRoute(tt.method, tt.path) {
			t.Errorf("expected %s %s to require auth", tt.method, tt.path)
		}
	}
}
