package therapy

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
	g := api.Group("/therapy", auth.RequireAuth())
	g.POST("/chat", h.Chat)
	g.GET("/history", h.History)
}

type chatRequest struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	if err := auth.CheckSubject(ctx, req.Username); err != nil {
		return err
	}
	reply, err := h.svc.Chat(ctx, auth.UserIDFromContext(ctx), req.Message)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"response":  reply.Response,
		"timestamp": reply.Timestamp,
	})
}

func (h *Handler) History(c echo.Context) error {
	ctx := c.Request().Context()
	if err := auth.CheckSubject(ctx, c.QueryParam("username")); err != nil {
		return err
	}
	pg, err := pagination.FromContext(c, pagination.Chat)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.svc.History(ctx, auth.UserIDFromContext(ctx), pg.Limit)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*ChatMessage{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"history": items,
	})
}
