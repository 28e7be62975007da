package cbt

import (
	"encoding/json"
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
	g := api.Group("/cbt-tools", auth.RequireAuth())
	g.POST("/save", h.Save)
	g.GET("/load", h.Load)
}

type saveRequest struct {
	ToolType   string          `json:"tool_type"`
	Data       json.RawMessage `json:"data"`
	MoodRating *int            `json:"mood_rating"`
	Notes      string          `json:"notes"`
}

func (h *Handler) Save(c echo.Context) error {
	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	e := &Entry{
		Username:   auth.UserIDFromContext(ctx),
		ToolType:   req.ToolType,
		Data:       req.Data,
		MoodRating: req.MoodRating,
		Notes:      req.Notes,
	}
	if err := h.svc.Save(ctx, e); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "id": e.ID})
}

func (h *Handler) Load(c echo.Context) error {
	ctx := c.Request().Context()
	e, err := h.svc.Load(ctx, auth.UserIDFromContext(ctx), c.QueryParam("tool_type"))
	if err != nil {
		return apperr.HTTP(err)
	}
	if e == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"data": nil})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":          e.ID,
		"data":        e.Data,
		"mood_rating": e.MoodRating,
		"notes":       e.Notes,
		"created_at":  e.CreatedAt,
		"updated_at":  e.UpdatedAt,
	})
}
