package twin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilio-vasquez/digitaltwin/internal/metrics"
)

// Handler provides stateless HTTP endpoints over the formula library.
type Handler struct{}

// NewHandler creates a new twin handler
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes sets up twin routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/derive", h.Derive)
	r.GET("/presets", h.ListPresets)
}

// DeriveRequest is the body of POST /derive. Either State or Preset is used;
// Preset wins when both are set. Previous, when present, produces a change
// explanation.
type DeriveRequest struct {
	State    *InputState `json:"state"`
	Preset   string      `json:"preset"`
	Previous *InputState `json:"previous"`
}

// DeriveResponse is the reply of POST /derive.
type DeriveResponse struct {
	State             InputState `json:"state"`
	Metrics           Metrics    `json:"metrics"`
	ChangeExplanation string     `json:"changeExplanation"`
}

// Derive handles POST /derive
func (h *Handler) Derive(c *gin.Context) {
	var req DeriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_json",
			"message": "Invalid JSON body.",
		})
		return
	}

	var state InputState
	switch {
	case req.Preset != "":
		p, err := Preset(req.Preset)
		if errors.Is(err, ErrUnknownPreset) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "unknown_preset",
				"message": err.Error(),
			})
			return
		}
		state = p
	case req.State != nil:
		state = *req.State
	default:
		state = Default()
	}
	state = state.Normalize()

	var prev *Snapshot
	if req.Previous != nil {
		snap := SnapshotOf(req.Previous.Normalize())
		prev = &snap
	}

	metrics.DerivationsTotal.WithLabelValues("http").Inc()
	c.JSON(http.StatusOK, DeriveResponse{
		State:             state,
		Metrics:           Derive(state),
		ChangeExplanation: Explain(prev, SnapshotOf(state)),
	})
}

// PresetInfo describes one scenario preset.
type PresetInfo struct {
	Name  string     `json:"name"`
	State InputState `json:"state"`
}

// ListPresets handles GET /presets
func (h *Handler) ListPresets(c *gin.Context) {
	names := PresetNames()
	out := make([]PresetInfo, 0, len(names))
	for _, name := range names {
		s, _ := Preset(name)
		out = append(out, PresetInfo{Name: name, State: s})
	}
	c.JSON(http.StatusOK, gin.H{
		"presets": out,
		"default": Default(),
	})
}
