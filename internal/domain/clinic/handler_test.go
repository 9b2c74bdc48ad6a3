package clinic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/moutazmahmoud/clinic-pwa/internal/platform/auth"
)

func newTestHandler(t *testing.T) (*Handler, *Service, *echo.Echo) {
	t.Helper()
	svc, _, _ := newTestService()
	perms, err := auth.NewPermissions()
	if err != nil {
		t.Fatal(err)
	}
	return NewHandler(svc, perms), svc, echo.New()
}

func request(e *echo.Echo, method, target, body string, p *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(context.Background(), *p))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func TestHandler_Search(t *testing.T) {
	h, svc, e := newTestHandler(t)
	c1, _ := svc.Create(context.Background(), CreateInput{Name: "Nile", Area: "Maadi"})
	_, _ = svc.SetActive(context.Background(), c1.ID, true)
	_, _ = svc.Create(context.Background(), CreateInput{Name: "Hidden", Area: "Maadi"})

	c, rec := request(e, http.MethodGet, "/?area=Maadi", "", nil)
	if err := h.Search(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data  []Clinic `json:"data"`
		Total int      `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 1 || body.Data[0].Name != "Nile" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_Get_HidesInactive(t *testing.T) {
	h, svc, e := newTestHandler(t)
	cl, _ := svc.Create(context.Background(), CreateInput{Name: "Hidden", OwnerEmail: "own@x.test"})

	c, _ := request(e, http.MethodGet, "/", "", nil)
	c.SetParamNames("id")
	c.SetParamValues(cl.ID.String())
	if code := statusOf(t, h.Get(c)); code != http.StatusNotFound {
		t.Errorf("expected 404 for anonymous, got %d", code)
	}

	c, rec := request(e, http.MethodGet, "/", "", &auth.Principal{Email: "own@x.test", Role: auth.RoleClinic})
	c.SetParamNames("id")
	c.SetParamValues(cl.ID.String())
	if err := h.Get(c); err != nil {
		t.Fatalf("owner should see clinic: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Get_BadID(t *testing.T) {
	h, _, e := newTestHandler(t)
	c, _ := request(e, http.MethodGet, "/", "", nil)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	if code := statusOf(t, h.Get(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_Create(t *testing.T) {
	h, _, e := newTestHandler(t)
	c, rec := request(e, http.MethodPost, "/", `{"name":"Cairo Kids","specialty":"Pediatrics","slot_duration_minutes":20}`, &auth.Principal{Role: auth.RoleAdmin})
	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var cl Clinic
	_ = json.Unmarshal(rec.Body.Bytes(), &cl)
	if cl.Slug != "cairo-kids" || cl.SlotDurationMinutes != 20 || cl.IsActive {
		t.Errorf("unexpected clinic %+v", cl)
	}

	c, _ = request(e, http.MethodPost, "/", `{"name":"Bad","slot_duration_minutes":7}`, &auth.Principal{Role: auth.RoleAdmin})
	if code := statusOf(t, h.Create(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_SetActive(t *testing.T) {
	h, svc, e := newTestHandler(t)
	cl, _ := svc.Create(context.Background(), CreateInput{Name: "X"})

	c, _ := request(e, http.MethodPatch, "/", `{}`, &auth.Principal{Role: auth.RoleAdmin})
	c.SetParamNames("id")
	c.SetParamValues(cl.ID.String())
	if code := statusOf(t, h.SetActive(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400 without is_active, got %d", code)
	}

	c, rec := request(e, http.MethodPatch, "/", `{"is_active":true}`, &auth.Principal{Role: auth.RoleAdmin})
	c.SetParamNames("id")
	c.SetParamValues(cl.ID.String())
	if err := h.SetActive(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	got, _ := svc.Get(context.Background(), cl.ID)
	if !got.IsActive {
		t.Error("clinic should be active")
	}
}

func TestHandler_Profile(t *testing.T) {
	h, svc, e := newTestHandler(t)
	owner := &auth.Principal{Email: "own@x.test", Role: auth.RoleClinic}

	c, _ := request(e, http.MethodGet, "/", "", owner)
	if code := statusOf(t, h.GetProfile(c)); code != http.StatusNotFound {
		t.Errorf("expected 404 before a clinic is linked, got %d", code)
	}

	cl, _ := svc.Create(context.Background(), CreateInput{Name: "Mine", OwnerEmail: "own@x.test"})

	c, _ = request(e, http.MethodPut, "/", `{"name":"Mine","slot_duration_minutes":13}`, owner)
	if code := statusOf(t, h.UpdateProfile(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad duration, got %d", code)
	}

	c, rec := request(e, http.MethodPut, "/", `{"name":"Mine Renamed","bio":"hi","slot_duration_minutes":15}`, owner)
	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Clinic
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.ID != cl.ID || got.Name != "Mine Renamed" || got.SlotDurationMinutes != 15 {
		t.Errorf("unexpected profile %+v", got)
	}
}
