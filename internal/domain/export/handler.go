package export

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/auth"
	"github.com/healingspace/healingspace/internal/platform/fhir"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/export/fhir", h.ExportFHIR, auth.RequireAuth())
}

func (h *Handler) ExportFHIR(c echo.Context) error {
	b, err := h.svc.Export(c.Request().Context(), c.QueryParam("username"))
	if err != nil {
		return h.outcome(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"bundle":  b,
	})
}

// outcome renders err as {error, outcome} with a FHIR OperationOutcome.
func (h *Handler) outcome(c echo.Context, err error) error {
	he := apperr.HTTP(err)
	code := he.Code
	msg, ok := he.Message.(string)
	if !ok {
		msg = http.StatusText(code)
	}
	var oo *fhir.OperationOutcome
	switch code {
	case http.StatusBadRequest:
		oo = fhir.RequiredOutcome(msg)
	case http.StatusForbidden:
		oo = fhir.ForbiddenOutcome(msg)
	default:
		if code >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("fhir export failed")
		}
		oo = fhir.ErrorOutcome(msg)
	}
	return c.JSON(code, map[string]interface{}{
		"error":   msg,
		"outcome": oo,
	})
}
