package diagnostics

import (
	"sync"

	"github.com/rivo/uniseg"
)

// Handler collects diagnostics raised during a parse, grounded on the
// teacher's reporter.Handler: it remembers the first fatal error and lets
// everything else (recoverable ParseErrors that a PoU reset absorbed, or
// warnings) keep accumulating for callers who want the full picture, such
// as tests.
type Handler struct {
	mu       sync.Mutex
	fatal    *Diagnostic
	warnings []*Diagnostic
}

// NewHandler returns an empty Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Report records d. If d is fatal and no fatal diagnostic has been
// recorded yet, it becomes the Handler's Fatal() result; otherwise it is
// filed as a warning (this is how an absorbed ParseError still shows up in
// a diagnostic trail even though it didn't fail the parse).
func (h *Handler) Report(d *Diagnostic) {
	if d == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if d.IsFatal() && h.fatal == nil {
		h.fatal = d
		return
	}
	h.warnings = append(h.warnings, d)
}

// Fatal returns the first fatal diagnostic reported, or nil.
func (h *Handler) Fatal() *Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fatal
}

// Warnings returns every reported diagnostic other than the one Fatal
// returns, in report order; a fatal diagnostic reported after the first
// one is among them.
func (h *Handler) Warnings() []*Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Diagnostic(nil), h.warnings...)
}

// Snippet renders a bounded, grapheme-safe preview of probed separator or
// delimiter text for inclusion in a ParseError message, truncating at a
// grapheme cluster boundary (never mid-codepoint) when it exceeds width.
//
// Grounded on the teacher's experimental/report width computation, which
// uses the same rivo/uniseg grapheme iteration to avoid slicing a
// diagnostic snippet in the middle of a multi-byte cluster.
func Snippet(text string, width int) string {
	if width <= 0 {
		return ""
	}
	gr := uniseg.NewGraphemes(text)
	var out []byte
	count := 0
	for gr.Next() {
		if count >= width {
			out = append(out, '.', '.', '.')
			break
		}
		out = append(out, gr.Str()...)
		count++
	}
	return string(out)
}
