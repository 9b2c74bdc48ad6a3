package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/clinic"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/patient"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/apierror"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/auth"
)

type stubClinics struct{ id uuid.UUID }

func (s stubClinics) Owned(_ context.Context, p auth.Principal, _ string) (*clinic.Clinic, error) {
	if p.Role != auth.RoleClinic {
		return nil, clinic.ErrNotFound
	}
	return &clinic.Clinic{ID: s.id}, nil
}

type stubPatients map[string]*patient.Patient

func (s stubPatients) GetByUserID(_ context.Context, userID string) (*patient.Patient, error) {
	p, ok := s[userID]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return p, nil
}

var (
	sara      = &patient.Patient{ID: uuid.New(), UserID: "user-sara", FullName: "Sara"}
	saraLogin = &auth.Principal{UserID: "user-sara", Role: auth.RolePatient}
	owner     = &auth.Principal{UserID: "user-owner", Role: auth.RoleClinic}
)

func newTestHandler(t *testing.T) (*Handler, fixture) {
	t.Helper()
	f := newFixture()
	perms, err := auth.NewPermissions()
	require.NoError(t, err)
	h := NewHandler(f.svc, stubClinics{id: f.clinicID}, stubPatients{sara.UserID: sara}, perms)
	return h, f
}

func newContext(method, body string, p *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func httpErr(t *testing.T, err error) (int, apierror.Body) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.Truef(t, ok, "expected *echo.HTTPError, got %T (%v)", err, err)
	body, _ := he.Message.(apierror.Body)
	return he.Code, body
}

const bookBody = `{"date":"2024-01-02","time":"09:00","patient_name":"Sara","patient_phone":"01001234567"}`

func TestHandler_Book_Anonymous(t *testing.T) {
	h, f := newTestHandler(t)

	c, rec := newContext(http.MethodPost, bookBody, nil)
	c.SetParamNames("id")
	c.SetParamValues(f.clinicID.String())
	require.NoError(t, h.Book(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var b Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.True(t, b.Created)
	assert.Nil(t, b.Appointment.PatientID)
	assert.Equal(t, availability.StatusPending, b.Appointment.Status)
	assert.Contains(t, b.WhatsAppLink, "https://wa.me/")
}

func TestHandler_Book_AttachesPatient(t *testing.T) {
	h, f := newTestHandler(t)

	c, rec := newContext(http.MethodPost, bookBody, saraLogin)
	c.SetParamNames("id")
	c.SetParamValues(f.clinicID.String())
	require.NoError(t, h.Book(c))

	var b Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	require.NotNil(t, b.Appointment.PatientID)
	assert.Equal(t, sara.ID, *b.Appointment.PatientID)
}

func TestHandler_Book_IdempotentReplay(t *testing.T) {
	h, f := newTestHandler(t)

	for i, want := range []int{http.StatusCreated, http.StatusOK} {
		c, rec := newContext(http.MethodPost, bookBody, nil)
		c.Request().Header.Set(HeaderIdempotencyKey, "retry-1")
		c.SetParamNames("id")
		c.SetParamValues(f.clinicID.String())
		require.NoError(t, h.Book(c))
		assert.Equalf(t, want, rec.Code, "request %d", i)
	}
	assert.Len(t, f.repo.appointments, 1)
}

func TestHandler_Book_Conflict(t *testing.T) {
	h, f := newTestHandler(t)

	book := func() error {
		c, _ := newContext(http.MethodPost, bookBody, nil)
		c.SetParamNames("id")
		c.SetParamValues(f.clinicID.String())
		return h.Book(c)
	}
	require.NoError(t, book())
	code, body := httpErr(t, book())
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "slot_taken", body.Code)
}

func TestHandler_Book_Errors(t *testing.T) {
	h, f := newTestHandler(t)

	tests := []struct {
		name     string
		clinicID string
		body     string
		status   int
		code     string
	}{
		{"bad clinic id", "nope", bookBody, http.StatusBadRequest, "bad_request"},
		{"unknown clinic", uuid.NewString(), bookBody, http.StatusNotFound, "not_found"},
		{"bad time", f.clinicID.String(), `{"date":"2024-01-02","time":"9am"}`, http.StatusBadRequest, "bad_request"},
		{"closed", f.clinicID.String(),
			`{"date":"2024-01-07","time":"09:00","patient_name":"Sara","patient_phone":"01001234567"}`,
			http.StatusUnprocessableEntity, "clinic_closed"},
		{"missing name", f.clinicID.String(),
			`{"date":"2024-01-02","time":"09:00","patient_phone":"01001234567"}`,
			http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, tt.body, nil)
			c.SetParamNames("id")
			c.SetParamValues(tt.clinicID)
			code, body := httpErr(t, h.Book(c))
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHandler_Validate(t *testing.T) {
	h, f := newTestHandler(t)

	c, rec := newContext(http.MethodPost, `{"date":"2024-01-02","time":"09:00"}`, nil)
	c.SetParamNames("id")
	c.SetParamValues(f.clinicID.String())
	require.NoError(t, h.Validate(c))
	assert.JSONEq(t, `{"available":true}`, rec.Body.String())

	c, _ = newContext(http.MethodPost, `{"date":"2024-01-02","time":"09:10"}`, nil)
	c.SetParamNames("id")
	c.SetParamValues(f.clinicID.String())
	code, body := httpErr(t, h.Validate(c))
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "misaligned_time", body.Code)
}

func TestHandler_PatientAppointments(t *testing.T) {
	h, f := newTestHandler(t)
	b, err := f.svc.Book(context.Background(), f.clinicID, request(tuesday, at(9, 0)), &sara.ID, "")
	require.NoError(t, err)

	c, rec := newContext(http.MethodGet, "", saraLogin)
	require.NoError(t, h.ListMine(c))
	var list struct {
		Data  []Appointment `json:"data"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	c, rec = newContext(http.MethodPost, "", saraLogin)
	c.SetParamNames("id")
	c.SetParamValues(b.Appointment.ID.String())
	require.NoError(t, h.CancelMine(c))
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)

	stranger := &auth.Principal{UserID: "someone", Role: auth.RolePatient}
	c, _ = newContext(http.MethodGet, "", stranger)
	code, body := httpErr(t, h.ListMine(c))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "no_patient_profile", body.Code)
}

func TestHandler_ClinicWorkflow(t *testing.T) {
	h, f := newTestHandler(t)
	b, err := f.svc.Book(context.Background(), f.clinicID, request(tuesday, at(9, 0)), nil, "")
	require.NoError(t, err)

	c, rec := newContext(http.MethodGet, "", owner)
	c.QueryParams().Set("date", "2024-01-02")
	require.NoError(t, h.ListForClinic(c))
	assert.Contains(t, rec.Body.String(), b.Appointment.ID.String())

	c, rec = newContext(http.MethodPatch, `{"status":"confirmed"}`, owner)
	c.SetParamNames("id")
	c.SetParamValues(b.Appointment.ID.String())
	require.NoError(t, h.UpdateStatus(c))
	assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)

	c, _ = newContext(http.MethodPatch, `{"status":"pending"}`, owner)
	c.SetParamNames("id")
	c.SetParamValues(b.Appointment.ID.String())
	code, body := httpErr(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_status_transition", body.Code)
}

func TestHandler_ListForClinic_BadDate(t *testing.T) {
	h, _ := newTestHandler(t)
	c, _ := newContext(http.MethodGet, "", owner)
	c.QueryParams().Set("from", "yesterday")
	code, _ := httpErr(t, h.ListForClinic(c))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRoutes_PatientCannotManageClinicAppointments(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()
	h.RegisterRoutes(e.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clinic/appointments", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), *saraLogin))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	// Patients may read appointments but have no clinic.
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/patients/me/appointments", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
