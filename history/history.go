// Package history implements pipeline history persistence (spec C9): a
// JSON document keyed by operation name, and a compatible XML/RDF-style
// sidecar that carries each module's raw parameter record as hex instead
// of per-field text. Both formats apply the same warn-and-skip validation
// when a document references an unknown module or field.
package history

import (
	"strconv"
	"strings"
)

// Generator identifies this engine in an emitted document's "generator"
// field.
const Generator = "rawforge/pixelpipe"

// DefaultColorWorkflow is the color_workflow setting Emit records when the
// caller doesn't override it. darktable's scene-referred workflow is the
// engine's only supported processing model in v1 — there is no
// display-referred legacy path to select against yet.
const DefaultColorWorkflow = "scene-referred"

// Document is the top-level history record (spec §6 "JSON schema").
type Document struct {
	Version   string            `json:"version"`
	Generator string            `json:"generator"`
	Source    *Source           `json:"source,omitempty"`
	Settings  Settings          `json:"settings"`
	Modules   map[string]Module `json:"modules"`
	Masks     map[string]any    `json:"masks"`
}

// Source identifies the image a history document was captured against.
// Both fields are optional; a caller that doesn't track this metadata
// passes nil to Emit.
type Source struct {
	Filename string `json:"filename,omitempty"`
	Camera   string `json:"camera,omitempty"`
}

// Settings carries the pipeline-wide choices a history document must
// preserve alongside its per-module parameters.
type Settings struct {
	IOPOrder      string `json:"iop_order"`
	ColorWorkflow string `json:"color_workflow"`
}

// Module is one operation's persisted state, keyed by operation name in
// Document.Modules. Params holds one formatted text value per field name
// (spec §4.9 "Emit": float 8 significant digits trailing-zero-trimmed
// with a decimal point, integer textual, bool "true"/"false").
type Module struct {
	Enabled bool              `json:"enabled"`
	Version int               `json:"version"`
	Params  map[string]string `json:"params"`
}

// formatFloat renders v per spec §4.9: 8 significant digits, trailing
// zeros trimmed, always carrying a decimal point. Callers must coerce a
// non-finite v to 0 before calling this (Emit does so, logging a
// warning at the point it detects one).
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', 8, 64)
	if strings.ContainsRune(s, '.') {
		return s
	}
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		return s[:i] + ".0" + s[i:]
	}
	return s + ".0"
}

func formatInt(v int64) string  { return strconv.FormatInt(v, 10) }
func formatBool(v bool) string  { return strconv.FormatBool(v) }
func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
func parseInt(s string) (int64, error)     { return strconv.ParseInt(s, 10, 64) }
func parseBool(s string) (bool, error)     { return strconv.ParseBool(s) }
