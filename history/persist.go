package history

import (
	"os"
	"path/filepath"

	"github.com/rawforge/pixelpipe"
)

// writeAtomic writes data to path via a temp file in the same directory
// followed by a rename, so a crash or a concurrent reader never observes
// a partially written history file (spec §7: "No partial history write
// is left on disk: sidecar writes go to a temp path and rename
// atomically").
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".history-*.tmp")
	if err != nil {
		return &pixelpipe.Error{Code: pixelpipe.CodeIO, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &pixelpipe.Error{Code: pixelpipe.CodeIO, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &pixelpipe.Error{Code: pixelpipe.CodeIO, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &pixelpipe.Error{Code: pixelpipe.CodeIO, Err: err}
	}
	return nil
}

// SaveJSON serializes pipe's current history into a JSON document and
// writes it to path atomically.
func SaveJSON(pipe *pixelpipe.Pipeline, source *Source, path string) error {
	doc, err := Emit(pipe, source)
	if err != nil {
		return err
	}
	data, err := Serialize(doc)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// LoadJSONFile reads path and applies it to pipe.
func LoadJSONFile(pipe *pixelpipe.Pipeline, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &pixelpipe.Error{Code: pixelpipe.CodeIO, Err: err}
	}
	return LoadJSON(pipe, raw)
}

// SaveSidecar serializes pipe's current state as the XML sidecar form and
// writes it to path atomically.
func SaveSidecar(pipe *pixelpipe.Pipeline, path string) error {
	data, err := SerializeSidecar(EmitSidecar(pipe))
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// LoadSidecarFile reads path and applies its sidecar document to pipe.
func LoadSidecarFile(pipe *pixelpipe.Pipeline, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &pixelpipe.Error{Code: pixelpipe.CodeIO, Err: err}
	}
	return LoadSidecarXML(pipe, raw)
}
