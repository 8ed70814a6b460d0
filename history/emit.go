package history

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/rawforge/pixelpipe"
	"github.com/rawforge/pixelpipe/internal/paramdesc"
)

// Emit walks pipe's modules in iop_order and builds the history document
// describing their current enabled flags and parameters (spec §4.9
// "Emit"). source is optional caller-supplied provenance; pass nil if the
// caller doesn't track it.
func Emit(pipe *pixelpipe.Pipeline, source *Source) (*Document, error) {
	doc := &Document{
		Version:   "1.0",
		Generator: Generator,
		Source:    source,
		Settings: Settings{
			IOPOrder:      pipe.IOPOrderKind(),
			ColorWorkflow: DefaultColorWorkflow,
		},
		Modules: make(map[string]Module),
		Masks:   map[string]any{},
	}

	for _, m := range pipe.Enumerate() {
		mod, err := emitModule(m)
		if err != nil {
			return nil, err
		}
		doc.Modules[m.Op] = mod
	}
	return doc, nil
}

func emitModule(m *pixelpipe.ModuleInstance) (Module, error) {
	n := paramdesc.Default.Count(m.Op)
	if n <= 0 {
		return Module{Enabled: m.Enabled, Version: 1, Params: map[string]string{}}, nil
	}
	params := make(map[string]string, n)
	for i := 0; i < n; i++ {
		f, err := paramdesc.Default.Index(m.Op, i)
		if err != nil {
			return Module{}, fmt.Errorf("history: emit %q: %w", m.Op, err)
		}
		s, err := emitField(m, f)
		if err != nil {
			return Module{}, err
		}
		params[f.Name] = s
	}
	return Module{Enabled: m.Enabled, Version: 1, Params: params}, nil
}

func emitField(m *pixelpipe.ModuleInstance, f paramdesc.Field) (string, error) {
	switch f.Type {
	case paramdesc.Float32:
		v, err := paramdesc.Default.GetFloat(m.Params, m.Op, f.Name)
		if err != nil {
			return "", fmt.Errorf("history: emit %q.%q: %w", m.Op, f.Name, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			pixelpipe.Logger().Warn("history: non-finite parameter coerced to 0.0",
				"op", m.Op, "field", f.Name, "value", v)
			v = 0
		}
		return formatFloat(v), nil
	case paramdesc.Int32, paramdesc.UInt32:
		v, err := paramdesc.Default.GetInt(m.Params, m.Op, f.Name)
		if err != nil {
			return "", fmt.Errorf("history: emit %q.%q: %w", m.Op, f.Name, err)
		}
		return formatInt(v), nil
	case paramdesc.Bool:
		v, err := paramdesc.Default.GetBool(m.Params, m.Op, f.Name)
		if err != nil {
			return "", fmt.Errorf("history: emit %q.%q: %w", m.Op, f.Name, err)
		}
		return formatBool(v), nil
	default:
		return "", fmt.Errorf("history: emit %q.%q: unhandled field type %v", m.Op, f.Name, f.Type)
	}
}

// Serialize renders doc as indented JSON: the canonical form the round-
// trip law compares byte-for-byte (spec §8 "History round-trip"). Map
// keys marshal in sorted order, so two documents with the same content
// always produce identical bytes.
func Serialize(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &pixelpipe.Error{Code: pixelpipe.CodeFormat, Err: err}
	}
	return data, nil
}
