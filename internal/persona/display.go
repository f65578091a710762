package persona

import (
	"fmt"
	"strings"
	"time"
)

// Status is the persona panel state.
type Status string

const (
	StatusGenerating Status = "generating"
	StatusUpdated    Status = "updated"
	StatusOffline    Status = "offline"
)

// Label is the status text shown next to the persona.
func (s Status) Label() string {
	switch s {
	case StatusGenerating:
		return "Generating…"
	case StatusUpdated:
		return "Updated"
	case StatusOffline:
		return "Offline"
	default:
		return string(s)
	}
}

// Update is one change to the persona panel. Seq is the request tag it
// belongs to.
type Update struct {
	Seq         uint64 `json:"seq"`
	Status      Status `json:"status"`
	StatusLabel string `json:"statusLabel"`
	HTML        string `json:"html,omitempty"`
	Meta        string `json:"meta,omitempty"`
	Model       string `json:"model,omitempty"`
	Error       string `json:"error,omitempty"`
}

// GeneratingUpdate marks request seq as in flight.
func GeneratingUpdate(seq uint64) Update {
	return Update{Seq: seq, Status: StatusGenerating, StatusLabel: StatusGenerating.Label()}
}

// ReadyUpdate renders a successful response received at t.
func ReadyUpdate(seq uint64, r *Response, t time.Time) Update {
	return Update{
		Seq:         seq,
		Status:      StatusUpdated,
		StatusLabel: StatusUpdated.Label(),
		HTML:        RenderResponse(r),
		Meta:        MetaLine(t, r.Model),
		Model:       r.Model,
	}
}

// OfflineUpdate renders a failed request. There is no automatic retry.
func OfflineUpdate(seq uint64, err error) Update {
	return Update{
		Seq:         seq,
		Status:      StatusOffline,
		StatusLabel: StatusOffline.Label(),
		HTML:        RenderOffline(err),
		Error:       err.Error(),
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes the five markup characters, with quotes as &quot; and
// &#039;.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// RenderResponse prefers the proxy's HTML, then the escaped text, then a
// placeholder.
func RenderResponse(r *Response) string {
	if h := strings.TrimSpace(r.PersonaHTML); h != "" {
		return h
	}
	text := strings.TrimSpace(r.PersonaText)
	if text == "" {
		text = "(No persona returned.)"
	}
	return "<p>" + EscapeHTML(text) + "</p>"
}

// RenderOffline is the panel body after a failed request.
func RenderOffline(err error) string {
	return `<p class="muted"><strong>AI persona unavailable.</strong> Connect the secure backend, then try again.</p>` +
		`<p class="muted small">` + EscapeHTML(err.Error()) + `</p>`
}

// MetaLine is the footer under a rendered persona.
func MetaLine(t time.Time, model string) string {
	if model == "" {
		model = "(unknown)"
	}
	return fmt.Sprintf("Updated: %s • Model: %s", t.Format("15:04:05"), model)
}
