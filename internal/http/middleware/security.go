// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, which attaches hardening headers to
// every response and keeps error responses out of shared caches.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// defaultExposed is exposed to browser clients when SecurityOptions.Expose
// is empty.
var defaultExposed = []string{"X-Request-ID", "Retry-After"}

// SecurityOptions configures SecurityHeaders.
//
// EnableHSTS emits Strict-Transport-Security for HTTPS requests only; enable
// it when traffic is HTTPS end-to-end, including between proxy and app.
// HSTSMaxAge defaults to 180 days when not positive.
//
// NoStoreErrors marks responses with status >= 400 as non-cacheable, so a
// transient 404 or 429 is never served from a shared cache. Successful
// responses keep whatever caching the handler chose.
//
// Expose lists response headers browser clients may read through CORS
// (Access-Control-Expose-Headers). Defaults to X-Request-ID and Retry-After.
type SecurityOptions struct {
	EnableHSTS    bool
	HSTSMaxAge    time.Duration
	NoStoreErrors bool
	EnablePolicy  bool // Permissions-Policy and X-Permitted-Cross-Domain-Policies
	Expose        []string
}

// SecurityHeaders returns a Gin middleware that always sets
// X-Content-Type-Options: nosniff, X-Frame-Options: DENY and
// Referrer-Policy: no-referrer, plus the optional headers selected in opt.
//
// No CSP is set: the API serves no HTML except the optional Swagger UI, which
// needs inline scripts.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	expose := opt.Expose
	if len(expose) == 0 {
		expose = defaultExposed
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		for _, name := range expose {
			appendExposed(h, name)
		}

		if opt.NoStoreErrors {
			c.Writer = &noStoreErrorWriter{ResponseWriter: c.Writer}
		}
		c.Next()
	}
}

// noStoreErrorWriter adds no-store cache headers when an error status is
// written. Every gin render path sets the status through WriteHeader.
type noStoreErrorWriter struct {
	gin.ResponseWriter
}

func (w *noStoreErrorWriter) WriteHeader(code int) {
	if code >= http.StatusBadRequest && !w.Written() {
		h := w.Header()
		h.Set("Cache-Control", "no-store")
		h.Set("Pragma", "no-cache")
	}
	w.ResponseWriter.WriteHeader(code)
}

// appendExposed adds name to Access-Control-Expose-Headers unless it is
// already listed (case-insensitive).
func appendExposed(h http.Header, name string) {
	const hdr = "Access-Control-Expose-Headers"
	cur := h.Get(hdr)
	if cur == "" {
		h.Set(hdr, name)
		return
	}
	for _, tok := range strings.Split(cur, ",") {
		if strings.EqualFold(strings.TrimSpace(tok), name) {
			return
		}
	}
	h.Set(hdr, cur+", "+name)
}

// isHTTPS reports whether the request used HTTPS directly or via a proxy
// that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
