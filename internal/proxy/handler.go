package proxy

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilio-vasquez/digitaltwin/internal/llm"
	"github.com/emilio-vasquez/digitaltwin/internal/logging"
	"github.com/emilio-vasquez/digitaltwin/internal/metrics"
	"github.com/emilio-vasquez/digitaltwin/internal/ratelimit"
	"github.com/emilio-vasquez/digitaltwin/internal/security"
)

// Handler serves POST /twin.
type Handler struct {
	service *Service
	allow   *security.AllowList
	limiter *ratelimit.Limiter
}

// NewHandler creates a proxy handler. limiter may be nil.
func NewHandler(service *Service, allow *security.AllowList, limiter *ratelimit.Limiter) *Handler {
	return &Handler{service: service, allow: allow, limiter: limiter}
}

// RegisterRoutes sets up the persona route. The origin check runs before
// anything else, including rate limiting.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	chain := []gin.HandlerFunc{security.OriginGuard(h.allow)}
	if h.limiter != nil {
		chain = append(chain, h.limiter.Middleware())
	}
	chain = append(chain, h.GeneratePersona)
	r.POST("/twin", chain...)
}

// GeneratePersona handles POST /twin
func (h *Handler) GeneratePersona(c *gin.Context) {
	if !h.service.Configured() {
		metrics.ProxyRejectionsTotal.WithLabelValues("missing_key").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "missing_api_key",
			"message": "Missing OPENAI_API_KEY secret.",
		})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.ProxyRejectionsTotal.WithLabelValues("too_large").Inc()
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":   "request_too_large",
				"message": fmt.Sprintf("Request body exceeds %d bytes.", tooLarge.Limit),
			})
			return
		}
		metrics.ProxyRejectionsTotal.WithLabelValues("invalid_json").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_json",
			"message": "Invalid JSON body.",
		})
		return
	}

	req, err := DecodeRequest(body)
	if err != nil {
		metrics.ProxyRejectionsTotal.WithLabelValues("invalid_json").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_json",
			"message": "Invalid JSON body.",
		})
		return
	}

	ctx := c.Request.Context()
	if req.TwinID != "" {
		ctx = logging.WithTwinID(ctx, req.TwinID)
	}

	resp, err := h.service.Generate(ctx, req)
	if err != nil {
		var ue *llm.UpstreamError
		switch {
		case errors.Is(err, ErrNotConfigured):
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "missing_api_key",
				"message": "Missing OPENAI_API_KEY secret.",
			})
		case errors.Is(err, ErrUpstreamUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "upstream_unavailable",
				"message": "Persona service is temporarily unavailable. Try again shortly.",
			})
		case errors.As(err, &ue):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "upstream_error",
				"message": ue.Error(),
				"detail":  ue.Body,
			})
		default:
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "request_failed",
				"message": "Request failed.",
				"detail":  err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
