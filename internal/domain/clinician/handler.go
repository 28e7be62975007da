package clinician

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healingspace/healingspace/internal/domain/wellness"
	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole(auth.RoleClinician)

	c := api.Group("/clinician", role)
	c.GET("/summary", h.Summary)
	c.GET("/patients", h.Patients)
	c.GET("/patient/:username", h.PatientDetail)
	c.GET("/patient/:username/mood-logs", h.PatientMoodLogs)

	a := api.Group("/analytics", role)
	a.GET("/patient/:username", h.PatientAnalytics)
	a.GET("/active-patients", h.ActivePatients)
}

func (h *Handler) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	sum, err := h.svc.Summary(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":            true,
		"total_patients":     sum.TotalPatients,
		"sessions_this_week": sum.SessionsThisWeek,
		"critical_patients":  sum.CriticalPatients,
	})
}

func (h *Handler) Patients(c echo.Context) error {
	ctx := c.Request().Context()
	rows, err := h.svc.Patients(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return apperr.HTTP(err)
	}
	if rows == nil {
		rows = []*PatientRow{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"patients": rows,
		"count":    len(rows),
	})
}

func (h *Handler) PatientDetail(c echo.Context) error {
	ctx := c.Request().Context()
	u, err := h.svc.PatientDetail(ctx, auth.UserIDFromContext(ctx), c.Param("username"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"patient": u,
	})
}

func (h *Handler) PatientMoodLogs(c echo.Context) error {
	ctx := c.Request().Context()
	logs, err := h.svc.PatientMoodLogs(ctx, auth.UserIDFromContext(ctx), c.Param("username"))
	if err != nil {
		return apperr.HTTP(err)
	}
	if logs == nil {
		logs = []*wellness.MoodLog{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"logs":    logs,
		"count":   len(logs),
	})
}

func (h *Handler) PatientAnalytics(c echo.Context) error {
	ctx := c.Request().Context()
	out, err := h.svc.PatientAnalytics(ctx, auth.UserIDFromContext(ctx), c.Param("username"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":                  true,
		"patient_username":         out.PatientUsername,
		"upcoming_appointments":    out.UpcomingAppointments,
		"recent_past_appointments": out.RecentPastAppointments,
		"mood_average_7d":          out.MoodAverage7d,
		"mood_logs_7d":             out.MoodLogs7d,
	})
}

func (h *Handler) ActivePatients(c echo.Context) error {
	ctx := c.Request().Context()
	active, err := h.svc.ActivePatients(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return apperr.HTTP(err)
	}
	if active == nil {
		active = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":         true,
		"active_patients": active,
		"count":           len(active),
	})
}
