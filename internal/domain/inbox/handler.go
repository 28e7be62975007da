package inbox

import (
	"net/http"
	"strconv"

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
	api.GET("/notifications", h.ListNotifications)
	api.POST("/notifications/:id/read", h.MarkRead)
	api.GET("/messages", h.ListMessages)

	clinician := api.Group("/clinician", auth.RequireRole(auth.RoleClinician))
	clinician.POST("/message", h.SendMessage)
}

func (h *Handler) ListNotifications(c echo.Context) error {
	pg, err := pagination.FromContext(c, pagination.Inbox)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	unreadOnly, _ := strconv.ParseBool(c.QueryParam("unread"))

	ctx := c.Request().Context()
	username := auth.UserIDFromContext(ctx)
	items, total, err := h.svc.ListNotifications(ctx, username, unreadOnly, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	unread, err := h.svc.UnreadCount(ctx, username)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Notification{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       true,
		"notifications": items,
		"total":         total,
		"unread_count":  unread,
	})
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.MarkRead(ctx, auth.UserIDFromContext(ctx), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

type sendMessageRequest struct {
	RecipientUsername string `json:"recipient_username"`
	Subject           string `json:"subject"`
	Message           string `json:"message"`
}

func (h *Handler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m := &Message{RecipientUsername: req.RecipientUsername, Subject: req.Subject, Body: req.Message}

	ctx := c.Request().Context()
	if err := h.svc.SendClinicianMessage(ctx, auth.UserIDFromContext(ctx), m); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":    true,
		"message_id": m.ID,
	})
}

func (h *Handler) ListMessages(c echo.Context) error {
	pg, err := pagination.FromContext(c, pagination.Inbox)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	items, total, err := h.svc.ListMessages(ctx, auth.UserIDFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Message{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": items,
		"total":    total,
	})
}
