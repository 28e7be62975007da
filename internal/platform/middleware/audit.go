package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/healingspace/healingspace/internal/platform/auth"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
)

const ActionPHIAccess = "phi_access"

var phiPrefixes = []string{
	"/api/clinician/patient/",
	"/api/export/",
}

// Audit records a phi_access event for every successful read of another
// person's health data. Writes and failed reads are not recorded here; the
// services audit their own mutations.
func Audit(auditor hipaa.Auditor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet || !isPHIPath(req.URL.Path) {
				return next(c)
			}

			err := next(c)
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				return err
			}

			username := auth.UserIDFromContext(req.Context())
			details := fmt.Sprintf("path=%s subject=%s request_id=%s", req.URL.Path, phiSubject(c), requestID(c))
			auditor.Log(context.WithoutCancel(req.Context()), username, hipaa.ActorAPI, ActionPHIAccess, details)
			return nil
		}
	}
}

func isPHIPath(path string) bool {
	for _, p := range phiPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// phiSubject is the patient whose data was read: the :username route param on
// clinician routes, the username query on exports, else the caller.
func phiSubject(c echo.Context) string {
	if u := c.Param("username"); u != "" {
		return u
	}
	if u := c.QueryParam("username"); u != "" {
		return u
	}
	return auth.UserIDFromContext(c.Request().Context())
}
