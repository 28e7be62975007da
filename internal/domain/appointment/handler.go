package appointment

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
	api.POST("/clinician/patient/:username/appointments", h.Create, auth.RequireRole(auth.RoleClinician))

	appts := api.Group("/appointments")
	appts.GET("", h.List, auth.RequireRole(auth.RoleUser, auth.RoleClinician))
	appts.POST("/:id/respond", h.Respond, auth.RequireRole(auth.RoleUser))
	appts.POST("/:id/attendance", h.Attendance, auth.RequireRole(auth.RoleClinician))
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	a, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), c.Param("username"), req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":        true,
		"appointment_id": a.ID,
		"appointment":    a,
	})
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	role := auth.RoleUser
	if auth.HasRole(ctx, auth.RoleClinician) {
		role = auth.RoleClinician
	}
	items, err := h.svc.List(ctx, auth.UserIDFromContext(ctx), role)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"appointments": items,
		"count":        len(items),
	})
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	return id, nil
}

type respondRequest struct {
	Response string `json:"response"`
}

func (h *Handler) Respond(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req respondRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	a, err := h.svc.Respond(ctx, auth.UserIDFromContext(ctx), id, req.Response)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"appointment": a,
	})
}

type attendanceRequest struct {
	Status string `json:"status"`
}

func (h *Handler) Attendance(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req attendanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	a, updated, err := h.svc.ConfirmAttendance(ctx, auth.UserIDFromContext(ctx), id, req.Status)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"updated":     updated,
		"appointment": a,
	})
}
