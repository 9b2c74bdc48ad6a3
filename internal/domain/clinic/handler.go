package clinic

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/moutazmahmoud/clinic-pwa/internal/platform/apierror"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/auth"
	"github.com/moutazmahmoud/clinic-pwa/pkg/pagination"
)

type Handler struct {
	svc   *Service
	perms *auth.Permissions
}

func NewHandler(svc *Service, perms *auth.Permissions) *Handler {
	return &Handler{svc: svc, perms: perms}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Public
	api.GET("/clinics", h.Search)
	api.GET("/clinics/filters", h.Filters)
	api.GET("/clinics/:id", h.Get)
	api.GET("/clinics/slug/:slug", h.GetBySlug)

	// Clinic owner
	owner := api.Group("/clinic")
	owner.GET("/profile", h.GetProfile, h.perms.RequirePermission(auth.ResClinic, auth.ActRead))
	owner.PUT("/profile", h.UpdateProfile, h.perms.RequirePermission(auth.ResClinic, auth.ActWrite))

	// Admin
	admin := api.Group("/admin", h.perms.RequirePermission(auth.ResClinic, auth.ActManage))
	admin.GET("/clinics", h.ListAll)
	admin.POST("/clinics", h.Create)
	admin.PATCH("/clinics/:id/active", h.SetActive)
}

// httpError maps package errors onto responses.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apierror.NotFound("clinic")
	case errors.Is(err, ErrValidation):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, ErrSlugTaken):
		return apierror.Conflict("slug_taken", err.Error())
	case errors.Is(err, ErrOwnerTaken):
		return apierror.Conflict("owner_taken", err.Error())
	}
	return apierror.Internal(err)
}

func (h *Handler) Search(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := SearchFilter{Area: c.QueryParam("area"), Specialty: c.QueryParam("specialty")}
	items, total, err := h.svc.Search(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Filters(c echo.Context) error {
	f, err := h.svc.Filters(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) visible(c echo.Context, cl *Clinic) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !Visible(cl, p, ok) {
		return apierror.NotFound("clinic")
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.BadRequest("invalid id")
	}
	cl, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return h.visible(c, cl)
}

func (h *Handler) GetBySlug(c echo.Context) error {
	cl, err := h.svc.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return httpError(err)
	}
	return h.visible(c, cl)
}

func (h *Handler) owned(c echo.Context) (*Clinic, error) {
	p, _ := auth.PrincipalFromContext(c.Request().Context())
	cl, err := h.svc.Owned(c.Request().Context(), p, c.QueryParam("clinic_id"))
	if errors.Is(err, ErrNotFound) {
		return nil, apierror.New(http.StatusNotFound, "no_clinic", "no clinic is linked to this account")
	}
	if err != nil {
		return nil, httpError(err)
	}
	return cl, nil
}

func (h *Handler) GetProfile(c echo.Context) error {
	cl, err := h.owned(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cl)
}

type profileRequest struct {
	Profile
	SlotDurationMinutes *int `json:"slot_duration_minutes"`
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	cl, err := h.owned(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return apierror.BadRequest(err.Error())
	}
	ctx := c.Request().Context()
	if req.SlotDurationMinutes != nil && *req.SlotDurationMinutes != cl.SlotDurationMinutes {
		if err := ValidateSlotDuration(*req.SlotDurationMinutes); err != nil {
			return httpError(err)
		}
	}
	updated, err := h.svc.UpdateProfile(ctx, cl.ID, req.Profile)
	if err != nil {
		return httpError(err)
	}
	if req.SlotDurationMinutes != nil && *req.SlotDurationMinutes != cl.SlotDurationMinutes {
		if updated, err = h.svc.UpdateSlotDuration(ctx, cl.ID, *req.SlotDurationMinutes); err != nil {
			return httpError(err)
		}
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) ListAll(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAll(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apierror.BadRequest(err.Error())
	}
	cl, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, cl)
}

func (h *Handler) SetActive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.BadRequest("invalid id")
	}
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return apierror.BadRequest(err.Error())
	}
	if req.IsActive == nil {
		return apierror.BadRequest("is_active is required")
	}
	cl, err := h.svc.SetActive(c.Request().Context(), id, *req.IsActive)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cl)
}
