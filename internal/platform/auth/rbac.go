package auth

import (
	"fmt"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/labstack/echo/v4"
)

// Resources and actions named by the policy.
const (
	ResClinic      = "clinic"
	ResSchedule    = "schedule"
	ResAppointment = "appointment"
	ResPatient     = "patient"

	ActRead   = "read"
	ActWrite  = "write"
	ActManage = "manage"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

var defaultPolicy = [][]string{
	{string(RoleAdmin), "*", "*"},
	{string(RoleClinic), ResClinic, ActRead},
	{string(RoleClinic), ResClinic, ActWrite},
	{string(RoleClinic), ResSchedule, ActRead},
	{string(RoleClinic), ResSchedule, ActWrite},
	{string(RoleClinic), ResAppointment, ActRead},
	{string(RoleClinic), ResAppointment, ActWrite},
	{string(RolePatient), ResPatient, ActRead},
	{string(RolePatient), ResPatient, ActWrite},
	{string(RolePatient), ResAppointment, ActRead},
	{string(RolePatient), ResAppointment, ActWrite},
}

// Permissions decides (role, resource, action) with an in-process casbin
// enforcer built from the compiled-in model and policy.
type Permissions struct {
	enforcer *casbin.Enforcer
}

func NewPermissions() (*Permissions, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	if _, err := e.AddPolicies(defaultPolicy); err != nil {
		return nil, fmt.Errorf("casbin policy: %w", err)
	}
	return &Permissions{enforcer: e}, nil
}

func (p *Permissions) Allowed(role Role, resource, action string) bool {
	ok, err := p.enforcer.Enforce(string(role), resource, action)
	return err == nil && ok
}

// RequirePermission rejects callers whose role lacks (resource, action).
func (p *Permissions) RequirePermission(resource, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			pr, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !p.Allowed(pr.Role, resource, action) {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("role %s may not %s %s", pr.Role, action, resource))
			}
			return next(c)
		}
	}
}

// RequireRole admits the listed roles; admin always passes.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			pr, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if pr.Role == RoleAdmin {
				return next(c)
			}
			for _, r := range roles {
				if pr.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}
