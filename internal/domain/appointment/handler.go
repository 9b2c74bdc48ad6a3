package appointment

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/clinic"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/patient"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/apierror"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/auth"
	"github.com/moutazmahmoud/clinic-pwa/pkg/pagination"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type ClinicResolver interface {
	Owned(ctx context.Context, p auth.Principal, clinicID string) (*clinic.Clinic, error)
}

type PatientLookup interface {
	GetByUserID(ctx context.Context, userID string) (*patient.Patient, error)
}

type Handler struct {
	svc      *Service
	clinics  ClinicResolver
	patients PatientLookup
	perms    *auth.Permissions
}

func NewHandler(svc *Service, clinics ClinicResolver, patients PatientLookup, perms *auth.Permissions) *Handler {
	return &Handler{svc: svc, clinics: clinics, patients: patients, perms: perms}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/clinics/:id/appointments", h.Book)
	api.POST("/clinics/:id/appointments/validate", h.Validate)

	read := h.perms.RequirePermission(auth.ResAppointment, auth.ActRead)
	write := h.perms.RequirePermission(auth.ResAppointment, auth.ActWrite)

	api.GET("/patients/me/appointments", h.ListMine, read)
	api.POST("/patients/me/appointments/:id/cancel", h.CancelMine, write)

	api.GET("/clinic/appointments", h.ListForClinic, read)
	api.PATCH("/clinic/appointments/:id/status", h.UpdateStatus, write)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apierror.NotFound("appointment")
	case errors.Is(err, clinic.ErrNotFound):
		return apierror.NotFound("clinic")
	case errors.Is(err, ErrValidation):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, ErrForbidden):
		return apierror.Forbidden(err.Error())
	}
	if he := apierror.FromBooking(err); he != nil {
		return he
	}
	return apierror.Internal(err)
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apierror.BadRequest("invalid " + name)
	}
	return id, nil
}

// currentPatient resolves the patient profile of the signed-in user. ok is
// false for anonymous callers and accounts without a profile.
func (h *Handler) currentPatient(c echo.Context) (*patient.Patient, bool, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok || p.UserID == "" {
		return nil, false, nil
	}
	pt, err := h.patients.GetByUserID(c.Request().Context(), p.UserID)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apierror.Internal(err)
	}
	return pt, true, nil
}

func (h *Handler) Book(c echo.Context) error {
	clinicID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return apierror.BadRequest(err.Error())
	}

	var patientID *uuid.UUID
	pt, ok, err := h.currentPatient(c)
	if err != nil {
		return err
	}
	if ok {
		patientID = &pt.ID
	}

	b, err := h.svc.Book(c.Request().Context(), clinicID, req, patientID, c.Request().Header.Get(HeaderIdempotencyKey))
	if err != nil {
		return httpError(err)
	}
	status := http.StatusCreated
	if !b.Created {
		status = http.StatusOK
	}
	return c.JSON(status, b)
}

type validateRequest struct {
	Date availability.Date      `json:"date"`
	Time availability.TimeOfDay `json:"time"`
}

// Validate answers 200 {"available": true} for a bookable time and the
// booking error otherwise.
func (h *Handler) Validate(c echo.Context) error {
	clinicID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return apierror.BadRequest(err.Error())
	}
	if err := h.svc.Validate(c.Request().Context(), clinicID, req.Date, req.Time); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"available": true})
}

func (h *Handler) ListMine(c echo.Context) error {
	pt, ok, err := h.currentPatient(c)
	if err != nil {
		return err
	}
	if !ok {
		return apierror.New(http.StatusNotFound, "no_patient_profile", "no patient profile for this account")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), pt.ID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) CancelMine(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	pt, ok, err := h.currentPatient(c)
	if err != nil {
		return err
	}
	if !ok {
		return apierror.New(http.StatusNotFound, "no_patient_profile", "no patient profile for this account")
	}
	a, err := h.svc.Cancel(c.Request().Context(), pt.ID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) owned(c echo.Context) (*clinic.Clinic, error) {
	p, _ := auth.PrincipalFromContext(c.Request().Context())
	cl, err := h.clinics.Owned(c.Request().Context(), p, c.QueryParam("clinic_id"))
	if errors.Is(err, clinic.ErrNotFound) {
		return nil, apierror.New(http.StatusNotFound, "no_clinic", "no clinic is linked to this account")
	}
	if err != nil {
		return nil, httpError(err)
	}
	return cl, nil
}

func listFilter(c echo.Context) (ListFilter, error) {
	var f ListFilter
	parse := func(name string) (availability.Date, error) {
		v := c.QueryParam(name)
		if v == "" {
			return availability.Date{}, nil
		}
		d, err := availability.ParseDate(v)
		if err != nil {
			return d, apierror.BadRequest(name + ": " + err.Error())
		}
		return d, nil
	}
	var err error
	if f.From, err = parse("from"); err != nil {
		return f, err
	}
	if f.To, err = parse("to"); err != nil {
		return f, err
	}
	day, err := parse("date")
	if err != nil {
		return f, err
	}
	if !day.IsZero() {
		f.From, f.To = day, day
	}
	f.Status = availability.Status(c.QueryParam("status"))
	return f, nil
}

func (h *Handler) ListForClinic(c echo.Context) error {
	cl, err := h.owned(c)
	if err != nil {
		return err
	}
	f, err := listFilter(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByClinic(c.Request().Context(), cl.ID, f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

type statusRequest struct {
	Status availability.Status `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	cl, err := h.owned(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return apierror.BadRequest(err.Error())
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), cl.ID, id, req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}
