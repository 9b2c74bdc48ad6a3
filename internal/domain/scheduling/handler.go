package scheduling

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/clinic"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/apierror"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/auth"
)

// ClinicResolver finds the clinic the signed-in owner manages.
type ClinicResolver interface {
	Owned(ctx context.Context, p auth.Principal, clinicID string) (*clinic.Clinic, error)
}

type Handler struct {
	svc     *Service
	clinics ClinicResolver
	perms   *auth.Permissions
}

func NewHandler(svc *Service, clinics ClinicResolver, perms *auth.Permissions) *Handler {
	return &Handler{svc: svc, clinics: clinics, perms: perms}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/clinics/:id/availability", h.Availability)
	api.GET("/clinics/:id/calendar", h.Calendar)

	read := h.perms.RequirePermission(auth.ResSchedule, auth.ActRead)
	write := h.perms.RequirePermission(auth.ResSchedule, auth.ActWrite)
	owner := api.Group("/clinic")
	owner.GET("/schedule", h.GetWeek, read)
	owner.PUT("/schedule", h.SaveWeek, write)
	owner.GET("/unavailable-slots", h.ListUnavailable, read)
	owner.POST("/unavailable-slots", h.AddUnavailable, write)
	owner.DELETE("/unavailable-slots/:id", h.DeleteUnavailable, write)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, clinic.ErrNotFound):
		return apierror.NotFound("clinic")
	case errors.Is(err, ErrSlotMissing):
		return apierror.NotFound("unavailable slot")
	case errors.Is(err, ErrValidation):
		return apierror.BadRequest(err.Error())
	}
	if he := apierror.FromBooking(err); he != nil {
		return he
	}
	return apierror.Internal(err)
}

func parseDate(s string) (availability.Date, error) {
	if s == "" {
		return availability.Date{}, nil
	}
	d, err := availability.ParseDate(s)
	if err != nil {
		return d, apierror.BadRequest(err.Error())
	}
	return d, nil
}

func clinicParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierror.BadRequest("invalid clinic id")
	}
	return id, nil
}

type availabilityResponse struct {
	ClinicID uuid.UUID                `json:"clinic_id"`
	Date     availability.Date        `json:"date"`
	Slots    []availability.TimeOfDay `json:"slots"`
}

func (h *Handler) Availability(c echo.Context) error {
	id, err := clinicParam(c)
	if err != nil {
		return err
	}
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return err
	}
	if date.IsZero() {
		date = h.svc.Today()
	}
	slots, err := h.svc.Availability(c.Request().Context(), id, date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, availabilityResponse{ClinicID: id, Date: date, Slots: slots})
}

func (h *Handler) Calendar(c echo.Context) error {
	id, err := clinicParam(c)
	if err != nil {
		return err
	}
	from, err := parseDate(c.QueryParam("from"))
	if err != nil {
		return err
	}
	to, err := parseDate(c.QueryParam("to"))
	if err != nil {
		return err
	}
	days, err := h.svc.Calendar(c.Request().Context(), id, from, to)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"clinic_id": id, "days": days})
}

func (h *Handler) owned(c echo.Context) (*clinic.Clinic, error) {
	p, _ := auth.PrincipalFromContext(c.Request().Context())
	cl, err := h.clinics.Owned(c.Request().Context(), p, c.QueryParam("clinic_id"))
	if errors.Is(err, clinic.ErrNotFound) {
		return nil, apierror.New(http.StatusNotFound, "no_clinic", "no clinic is linked to this account")
	}
	if errors.Is(err, clinic.ErrValidation) {
		return nil, apierror.BadRequest(err.Error())
	}
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return cl, nil
}

func (h *Handler) GetWeek(c echo.Context) error {
	cl, err := h.owned(c)
	if err != nil {
		return err
	}
	week, err := h.svc.GetWeek(c.Request().Context(), cl.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, week)
}

type saveWeekRequest struct {
	Days                []availability.ScheduleEntry `json:"days"`
	SlotDurationMinutes *int                         `json:"slot_duration_minutes"`
}

func (h *Handler) SaveWeek(c echo.Context) error {
	cl, err := h.owned(c)
	if err != nil {
		return err
	}
	var req saveWeekRequest
	if err := c.Bind(&req); err != nil {
		return apierror.BadRequest(err.Error())
	}
	week, err := h.svc.SaveWeek(c.Request().Context(), cl.ID, req.Days, req.SlotDurationMinutes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, week)
}

func (h *Handler) ListUnavailable(c echo.Context) error {
	cl, err := h.owned(c)
	if err != nil {
		return err
	}
	from, err := parseDate(c.QueryParam("from"))
	if err != nil {
		return err
	}
	items, err := h.svc.ListUnavailable(c.Request().Context(), cl.ID, from)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*UnavailableSlot{}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *Handler) AddUnavailable(c echo.Context) error {
	cl, err := h.owned(c)
	if err != nil {
		return err
	}
	var in UnavailableInput
	if err := c.Bind(&in); err != nil {
		return apierror.BadRequest(err.Error())
	}
	u, err := h.svc.AddUnavailable(c.Request().Context(), cl.ID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) DeleteUnavailable(c echo.Context) error {
	cl, err := h.owned(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.BadRequest("invalid id")
	}
	if err := h.svc.DeleteUnavailable(c.Request().Context(), cl.ID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
