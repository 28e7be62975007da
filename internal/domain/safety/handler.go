package safety

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

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
	api.POST("/safety/check", h.Check, auth.RequireAuth())

	clinician := api.Group("/clinician/risk-alerts", auth.RequireRole(auth.RoleClinician))
	clinician.GET("", h.ListAlerts)
	clinician.POST("/:id/acknowledge", h.Acknowledge)
}

type checkRequest struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

func (h *Handler) Check(c echo.Context) error {
	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	if err := auth.CheckSubject(ctx, req.Username); err != nil {
		return err
	}
	highRisk, err := h.svc.Check(ctx, auth.UserIDFromContext(ctx), req.Text)
	if err != nil {
		return apperr.HTTP(err)
	}
	var resources []CrisisResource
	if highRisk {
		resources = CrisisResources
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":          true,
		"is_high_risk":     highRisk,
		"crisis_resources": resources,
	})
}

func (h *Handler) ListAlerts(c echo.Context) error {
	ctx := c.Request().Context()
	alerts, err := h.svc.ListAlerts(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return apperr.HTTP(err)
	}
	if alerts == nil {
		alerts = []*RiskAlert{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"alerts":  alerts,
	})
}

func (h *Handler) Acknowledge(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.Acknowledge(ctx, auth.UserIDFromContext(ctx), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}
