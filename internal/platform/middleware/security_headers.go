package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// HeaderPolicy controls the transport-dependent security headers.
type HeaderPolicy struct {
	// HSTSMaxAge enables Strict-Transport-Security when positive. Leave it
	// zero in development, where the server is reached over plain HTTP.
	HSTSMaxAge time.Duration
	// NoStorePrefixes are path prefixes whose responses must never be
	// cached. Journal entries and clinical notes are served under /api.
	NoStorePrefixes []string
}

// DefaultHeaderPolicy is the production policy: one year of HSTS and no
// caching of API responses.
func DefaultHeaderPolicy(production bool) HeaderPolicy {
	p := HeaderPolicy{NoStorePrefixes: []string{"/api"}}
	if production {
		p.HSTSMaxAge = 365 * 24 * time.Hour
	}
	return p
}

func SecurityHeaders(p HeaderPolicy) echo.MiddlewareFunc {
	var hsts string
	if p.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.FormatInt(int64(p.HSTSMaxAge/time.Second), 10) + "; includeSubDomains"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			if p.noStore(c.Request().URL.Path) {
				h.Set("Cache-Control", "no-store")
				h.Set("Pragma", "no-cache")
			}
			return next(c)
		}
	}
}

func (p HeaderPolicy) noStore(path string) bool {
	for _, prefix := range p.NoStorePrefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}
