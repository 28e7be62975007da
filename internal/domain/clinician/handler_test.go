package clinician

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/healingspace/healingspace/internal/platform/auth"
)

func serve(t *testing.T, h *Handler, target, username, role string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e.Group("/api"))
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), username, role))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_Summary(t *testing.T) {
	svc, _, _ := newTestService()
	rec := serve(t, NewHandler(svc), "/api/clinician/summary", "drsmith", auth.RoleClinician)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total_patients":2`) {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestRoutes_PatientDetail(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)

	rec := serve(t, h, "/api/clinician/patient/alice", "drsmith", auth.RoleClinician)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"full_name":"Alice Mary Smith"`) {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("password hash must not be exposed")
	}

	rec = serve(t, h, "/api/clinician/patient/alice", "drjones", auth.RoleClinician)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 without approval, got %d", rec.Code)
	}
}

func TestRoutes_RoleGate(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	for _, target := range []string{"/api/clinician/patients", "/api/analytics/active-patients", "/api/analytics/patient/alice"} {
		if rec := serve(t, h, target, "alice", auth.RoleUser); rec.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403 for patient, got %d", target, rec.Code)
		}
	}
}

func TestRoutes_Analytics(t *testing.T) {
	svc, _, _ := newTestService()
	rec := serve(t, NewHandler(svc), "/api/analytics/patient/alice", "drsmith", auth.RoleClinician)
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, `"recent_past_appointments":[]`) || !strings.Contains(body, `"mood_average_7d":null`) {
		t.Errorf("unexpected response %d %s", rec.Code, body)
	}
}
