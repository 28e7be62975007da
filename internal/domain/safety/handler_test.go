package safety

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/healingspace/healingspace/internal/platform/auth"
)

func newRequest(method, target, body, username, role string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req.WithContext(auth.WithIdentity(req.Context(), username, role))
}

func TestHandler_Check(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPost, "/api/safety/check", `{"text":"hello there"}`, "alice", auth.RoleUser), rec)
	if err := h.Check(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"crisis_resources":null`) {
		t.Errorf("expected null resources, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(newRequest(http.MethodPost, "/api/safety/check", `{"text":"I want to die"}`, "alice", auth.RoleUser), rec)
	if err := h.Check(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"is_high_risk":true`) || !strings.Contains(body, "Samaritans") {
		t.Errorf("expected high risk with resources, got %s", body)
	}
}

func TestHandler_Check_MissingText(t *testing.T) {
	svc, _, _ := newTestService()
	c := echo.New().NewContext(newRequest(http.MethodPost, "/api/safety/check", `{}`, "alice", auth.RoleUser), httptest.NewRecorder())
	var he *echo.HTTPError
	if err := NewHandler(svc).Check(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListAndAcknowledge(t *testing.T) {
	svc, repo, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	svc.RaiseAlert(context.Background(), "alice", "self harm")

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodGet, "/api/clinician/risk-alerts", "", "drsmith", auth.RoleClinician), rec)
	if err := h.ListAlerts(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"alert_id":1`) || !strings.Contains(rec.Body.String(), `"risk_level":"critical"`) {
		t.Errorf("unexpected alerts %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(newRequest(http.MethodPost, "/", "", "drsmith", auth.RoleClinician), rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.Acknowledge(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.alerts[0].Acknowledged {
		t.Error("expected alert acknowledged")
	}
}
