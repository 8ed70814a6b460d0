package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rawforge/pixelpipe"
	"github.com/rawforge/pixelpipe/internal/paramdesc"
)

// ErrMissingVersion is returned when a document has no "version" field at
// all (spec §8 "Missing version rejects").
var ErrMissingVersion = errors.New("history: document has no version")

// ErrUnsupportedVersion is returned when a document's version major
// exceeds what this engine understands (spec §4.9 "Load": "validate the
// top-level version's major is <= 1 else fail").
var ErrUnsupportedVersion = errors.New("history: unsupported document version")

// Parse decodes raw JSON into a Document, validating only the document-
// level version gate. Field-level validation happens in Load, which
// never fails the whole document for a bad field.
func Parse(raw []byte) (*Document, error) {
	var probe struct {
		Version *string `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("history: malformed document: %w", err)
	}
	if probe.Version == nil {
		return nil, ErrMissingVersion
	}
	if major, err := versionMajor(*probe.Version); err != nil || major > 1 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, *probe.Version)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("history: malformed document: %w", err)
	}
	return &doc, nil
}

func versionMajor(v string) (int64, error) {
	major := v
	if i := strings.IndexByte(v, '.'); i >= 0 {
		major = v[:i]
	}
	return parseInt(major)
}

// Load applies doc's enabled flags and parameters onto pipe (spec §4.9
// "Load"). An operation absent from pipe's chain warns and skips the
// whole module; a field that's unknown, type-mismatched, or out of the
// record's extent warns and skips just that field (CodeOf distinguishes
// these cases via the error each Pipeline accessor returns). A version
// string other than "1.0" is logged but load still proceeds best-effort
// — only Parse's document-level gate can fail the load outright.
//
// Load does not call pipe.InvalidateCache; callers applying a full
// document (LoadJSON, LoadJSONFile) do that once afterward.
func Load(pipe *pixelpipe.Pipeline, doc *Document) {
	if doc.Version != "1.0" {
		pixelpipe.Logger().Warn("history: version mismatch, loading best-effort", "version", doc.Version)
	}

	for op, mod := range doc.Modules {
		if err := pipe.Enable(op, mod.Enabled); err != nil {
			pixelpipe.Logger().Warn("history: unknown module, skipped", "op", op)
			continue
		}
		if mod.Version != 1 {
			pixelpipe.Logger().Warn("history: module version mismatch, loading best-effort", "op", op, "version", mod.Version)
		}
		for field, text := range mod.Params {
			if err := loadField(pipe, op, field, text); err != nil {
				pixelpipe.Logger().Warn("history: parameter skipped", "op", op, "field", field, "error", err)
			}
		}
	}
}

func loadField(pipe *pixelpipe.Pipeline, op, field, text string) error {
	f, err := paramdesc.Default.Lookup(op, field)
	if err != nil {
		return err
	}
	switch f.Type {
	case paramdesc.Float32:
		v, err := parseFloat(text)
		if err != nil {
			return fmt.Errorf("%w: %v", paramdesc.ErrParameterType, err)
		}
		return pipe.SetFloat(op, field, v)
	case paramdesc.Int32, paramdesc.UInt32:
		v, err := parseInt(text)
		if err != nil {
			return fmt.Errorf("%w: %v", paramdesc.ErrParameterType, err)
		}
		return pipe.SetInt(op, field, v)
	case paramdesc.Bool:
		v, err := parseBool(text)
		if err != nil {
			return fmt.Errorf("%w: %v", paramdesc.ErrParameterType, err)
		}
		return pipe.SetBool(op, field, v)
	default:
		return fmt.Errorf("%w: unhandled field type", paramdesc.ErrParameterType)
	}
}

// LoadJSON parses raw as a JSON history document and applies it to pipe
// in one step, invalidating every module's render cache afterward.
func LoadJSON(pipe *pixelpipe.Pipeline, raw []byte) error {
	doc, err := Parse(raw)
	if err != nil {
		return &pixelpipe.Error{Code: pixelpipe.CodeFormat, Err: err}
	}
	Load(pipe, doc)
	pipe.InvalidateCache()
	return nil
}
