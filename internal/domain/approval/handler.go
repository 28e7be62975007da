package approval

import (
	"net/http"

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
	api.POST("/approvals/request", h.Request, auth.RequireRole(auth.RoleUser))

	clinician := api.Group("/clinician/approvals", auth.RequireRole(auth.RoleClinician))
	clinician.GET("", h.ListPending)
	clinician.POST("/:patient/approve", h.Approve)
	clinician.POST("/:patient/reject", h.Reject)
}

type requestBody struct {
	ClinicianUsername string `json:"clinician_username"`
}

func (h *Handler) Request(c echo.Context) error {
	var body requestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	if err := h.svc.Request(ctx, auth.UserIDFromContext(ctx), body.ClinicianUsername); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Approval requested",
	})
}

func (h *Handler) ListPending(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.ListPending(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*PatientApproval{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"approvals": items,
		"count":     len(items),
	})
}

func (h *Handler) Approve(c echo.Context) error {
	return h.decide(c, true)
}

func (h *Handler) Reject(c echo.Context) error {
	return h.decide(c, false)
}

func (h *Handler) decide(c echo.Context, approve bool) error {
	ctx := c.Request().Context()
	if err := h.svc.Decide(ctx, auth.UserIDFromContext(ctx), c.Param("patient"), approve); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}
