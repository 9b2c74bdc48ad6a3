package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// publicRoutes are reachable without credentials, keyed by method and the
// registered route path (c.Path()).
var publicRoutes = map[string]bool{
	"GET /health":                                    true,
	"GET /health/db":                                 true,
	"GET /metrics":                                   true,
	"GET /api/v1/clinics":                            true,
	"GET /api/v1/clinics/filters":                    true,
	"GET /api/v1/clinics/:id":                        true,
	"GET /api/v1/clinics/slug/:slug":                 true,
	"GET /api/v1/clinics/:id/availability":           true,
	"GET /api/v1/clinics/:id/calendar":               true,
	"POST /api/v1/clinics/:id/appointments/validate": true,
	"POST /api/v1/clinics/:id/appointments":          true,
}

// AuthSkipper reports whether the matched route is public.
func AuthSkipper(c echo.Context) bool {
	return IsPublicRoute(c.Request().Method, c.Path())
}

func IsPublicRoute(method, path string) bool {
	if method == http.MethodHead {
		method = http.MethodGet
	}
	return publicRoutes[method+" "+path]
}
