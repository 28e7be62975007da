package wellness

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/auth"
	"github.com/healingspace/healingspace/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireAuth())
	g.POST("/mood/log", h.LogMood)
	g.GET("/mood/history", h.MoodHistory)
	g.POST("/gratitude/log", h.LogGratitude)
	g.GET("/gratitude/history", h.GratitudeHistory)
}

type moodRequest struct {
	Username string   `json:"username"`
	MoodVal  *int     `json:"mood_val"`
	SleepVal *float64 `json:"sleep_val"`
	Meds     string   `json:"meds"`
	Notes    string   `json:"notes"`
}

func (h *Handler) LogMood(c echo.Context) error {
	var req moodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	if err := auth.CheckSubject(ctx, req.Username); err != nil {
		return err
	}
	if req.MoodVal == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "mood_val is required")
	}

	m := &MoodLog{
		Username: auth.UserIDFromContext(ctx),
		MoodVal:  *req.MoodVal,
		Meds:     req.Meds,
		Notes:    req.Notes,
	}
	if req.SleepVal != nil {
		m.SleepVal = *req.SleepVal
	}
	if err := h.svc.LogMood(ctx, m); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Mood logged successfully",
		"log_id":  m.ID,
	})
}

func (h *Handler) MoodHistory(c echo.Context) error {
	ctx := c.Request().Context()
	if err := auth.CheckSubject(ctx, c.QueryParam("username")); err != nil {
		return err
	}
	pg, err := pagination.FromContext(c, pagination.Journal)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	logs, err := h.svc.MoodHistory(ctx, auth.UserIDFromContext(ctx), pg.Limit)
	if err != nil {
		return apperr.HTTP(err)
	}
	if logs == nil {
		logs = []*MoodLog{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"logs":    logs,
		"count":   len(logs),
	})
}

type gratitudeRequest struct {
	Username string `json:"username"`
	Entry    string `json:"entry"`
}

func (h *Handler) LogGratitude(c echo.Context) error {
	var req gratitudeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	if err := auth.CheckSubject(ctx, req.Username); err != nil {
		return err
	}
	g := &GratitudeLog{Username: auth.UserIDFromContext(ctx), Entry: req.Entry}
	if err := h.svc.LogGratitude(ctx, g); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Gratitude entry saved",
		"log_id":  g.ID,
	})
}

func (h *Handler) GratitudeHistory(c echo.Context) error {
	ctx := c.Request().Context()
	if err := auth.CheckSubject(ctx, c.QueryParam("username")); err != nil {
		return err
	}
	pg, err := pagination.FromContext(c, pagination.Journal)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	logs, err := h.svc.GratitudeHistory(ctx, auth.UserIDFromContext(ctx), pg.Limit)
	if err != nil {
		return apperr.HTTP(err)
	}
	if logs == nil {
		logs = []*GratitudeLog{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"logs":    logs,
		"count":   len(logs),
	})
}
