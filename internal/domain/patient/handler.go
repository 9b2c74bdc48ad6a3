package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moutazmahmoud/clinic-pwa/internal/platform/apierror"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/auth"
)

type Handler struct {
	svc   *Service
	perms *auth.Permissions
}

func NewHandler(svc *Service, perms *auth.Permissions) *Handler {
	return &Handler{svc: svc, perms: perms}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients")
	g.POST("", h.Register, h.perms.RequirePermission(auth.ResPatient, auth.ActWrite))
	g.GET("/me", h.GetMe, h.perms.RequirePermission(auth.ResPatient, auth.ActRead))
	g.PUT("/me", h.UpdateMe, h.perms.RequirePermission(auth.ResPatient, auth.ActWrite))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apierror.New(http.StatusNotFound, "no_patient_profile", "no patient profile for this account")
	case errors.Is(err, ErrValidation):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, ErrAlreadyRegistered):
		return apierror.Conflict("already_registered", err.Error())
	}
	return apierror.Internal(err)
}

func (h *Handler) Register(c echo.Context) error {
	var in ProfileInput
	if err := c.Bind(&in); err != nil {
		return apierror.BadRequest(err.Error())
	}
	p, _ := auth.PrincipalFromContext(c.Request().Context())
	pt, err := h.svc.Register(c.Request().Context(), p.UserID, p.Email, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, pt)
}

func (h *Handler) GetMe(c echo.Context) error {
	p, _ := auth.PrincipalFromContext(c.Request().Context())
	pt, err := h.svc.GetByUserID(c.Request().Context(), p.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pt)
}

func (h *Handler) UpdateMe(c echo.Context) error {
	var in ProfileInput
	if err := c.Bind(&in); err != nil {
		return apierror.BadRequest(err.Error())
	}
	p, _ := auth.PrincipalFromContext(c.Request().Context())
	pt, err := h.svc.UpdateMe(c.Request().Context(), p.UserID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pt)
}
