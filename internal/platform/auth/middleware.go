package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleClinic  Role = "clinic"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClinic, RolePatient:
		return true
	}
	return false
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Claims accepts the shapes hosted auth providers emit: a top-level role,
// a roles array, or a role nested under app_metadata.
type Claims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Roles       []string `json:"roles"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
}

func (c *Claims) role() Role {
	candidates := append([]string{c.AppMetadata.Role, c.Role}, c.Roles...)
	for _, r := range candidates {
		if role := Role(strings.ToLower(r)); role.Valid() {
			return role
		}
	}
	return RolePatient
}

type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey selects HS256; otherwise keys come from JWKSURL.
	SigningKey []byte
	// IsAdminEmail promotes matching tokens to RoleAdmin.
	IsAdminEmail func(email string) bool
	// Skipper marks public routes: the request passes without credentials,
	// but a valid token is still attached when one is sent.
	Skipper func(c echo.Context) bool
}

var errMissingToken = errors.New("missing authorization header")

func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	var jwks *JWKSCache
	if len(cfg.SigningKey) == 0 && cfg.JWKSURL != "" {
		jwks = NewJWKSCache(cfg.JWKSURL, defaultJWKSCacheTTL)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			public := cfg.Skipper != nil && cfg.Skipper(c)

			p, err := cfg.authenticate(c, jwks)
			if err != nil {
				if public {
					return next(c)
				}
				if errors.Is(err, errMissingToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			attach(c, p)
			return next(c)
		}
	}
}

func (cfg JWTConfig) authenticate(c echo.Context, jwks *JWKSCache) (Principal, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return Principal{}, errMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return Principal{}, errors.New("invalid authorization format")
	}

	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	var keyFunc jwt.Keyfunc
	switch {
	case len(cfg.SigningKey) > 0:
		opts = append(opts, jwt.WithValidMethods([]string{"HS256"}))
		keyFunc = func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }
	case jwks != nil:
		opts = append(opts, jwt.WithValidMethods([]string{"RS256"}))
		keyFunc = jwks.KeyFunc(c.Request().Context())
	default:
		return Principal{}, errors.New("no verification key configured")
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, keyFunc, opts...)
	if err != nil || !token.Valid || claims.Subject == "" {
		return Principal{}, errors.New("invalid token")
	}

	p := Principal{UserID: claims.Subject, Email: strings.ToLower(claims.Email), Role: claims.role()}
	if cfg.IsAdminEmail != nil && p.Email != "" && cfg.IsAdminEmail(p.Email) {
		p.Role = RoleAdmin
	}
	return p, nil
}

// DevAuthMiddleware stands in for token validation in development. The
// role comes from X-Dev-Role (admin when absent); X-Dev-User and
// X-Dev-Email override the identity.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header
			p := Principal{UserID: "dev-user", Email: "dev@localhost", Role: RoleAdmin}
			if r := Role(strings.ToLower(h.Get("X-Dev-Role"))); r.Valid() {
				p.Role = r
			}
			if v := h.Get("X-Dev-User"); v != "" {
				p.UserID = v
			}
			if v := h.Get("X-Dev-Email"); v != "" {
				p.Email = strings.ToLower(v)
			}
			attach(c, p)
			return next(c)
		}
	}
}

func attach(c echo.Context, p Principal) {
	// The rate limiter keys on user_id.
	c.Set("user_id", p.UserID)
	c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
}
