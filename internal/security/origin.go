package security

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilio-vasquez/digitaltwin/internal/metrics"
)

// DefaultAllowedOrigins are the browser origins that may call the proxy when
// ALLOWED_ORIGINS is unset.
var DefaultAllowedOrigins = []string{
	"http://localhost:8787",
	"http://127.0.0.1:8787",
	"https://emilio-vasquez.github.io",
}

// AllowList is an exact-match set of browser origins. There is no wildcard.
type AllowList struct {
	origins map[string]bool
}

// NewAllowList builds an allow-list; surrounding whitespace and a trailing
// slash are ignored.
func NewAllowList(origins []string) *AllowList {
	set := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o = normalizeOrigin(o); o != "" {
			set[o] = true
		}
	}
	return &AllowList{origins: set}
}

func normalizeOrigin(o string) string {
	return strings.TrimSuffix(strings.TrimSpace(o), "/")
}

// Allowed reports whether origin is listed. The empty origin is not listed.
func (a *AllowList) Allowed(origin string) bool {
	return origin != "" && a.origins[origin]
}

// Permits reports whether a request declaring origin may proceed. Requests
// without an Origin header come from non-browser clients and pass.
func (a *AllowList) Permits(origin string) bool {
	return origin == "" || a.Allowed(origin)
}

// CheckOrigin adapts the list for websocket upgraders.
func (a *AllowList) CheckOrigin(r *http.Request) bool {
	return a.Permits(r.Header.Get("Origin"))
}

// ValidateOrigin checks that o has the form scheme://host[:port] with an
// http or https scheme and nothing after the host.
func ValidateOrigin(o string) error {
	u, err := url.Parse(o)
	if err != nil {
		return fmt.Errorf("invalid origin %q: %w", o, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin %q: scheme must be http or https", o)
	}
	if u.Host == "" {
		return fmt.Errorf("origin %q: missing host", o)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return fmt.Errorf("origin %q: must not carry a path, query or credentials", o)
	}
	return nil
}

// OriginGuard rejects requests whose declared Origin is not allowed with
// 403, before any body is read.
func OriginGuard(allow *AllowList) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allow.Permits(c.GetHeader("Origin")) {
			metrics.ProxyRejectionsTotal.WithLabelValues("origin").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "origin_not_allowed",
				"message": "Origin not allowed.",
			})
			return
		}
		c.Next()
	}
}
