package pixelpipe

import (
	"errors"
	"fmt"

	"github.com/rawforge/pixelpipe/internal/paramdesc"
)

// Errors returned by Pipeline construction, configuration, and render.
var (
	ErrUnknownModule     = errors.New("pixelpipe: unknown module")
	ErrModuleNoProcess   = errors.New("pixelpipe: module has no Process hook")
	ErrInvalidROI        = errors.New("pixelpipe: invalid region of interest")
	ErrRenderCancelled   = errors.New("pixelpipe: render cancelled")
	ErrOrderViolation    = errors.New("pixelpipe: module order violates a precedence rule")
	ErrDuplicateInstance = errors.New("pixelpipe: duplicate module instance")
)

// Code is the coarse status taxonomy every pixelpipe error maps to. It
// mirrors the status codes a future cgo export shim would return, even
// though this module's own API is idiomatic (T, error) — grounded on the
// teacher's package-level sentinel-error idiom (accelerator.go's
// ErrFallbackToCPU), generalized to one wrapper struct so the code survives
// fmt.Errorf's %w wrapping instead of needing one sentinel var per bucket.
type Code int

const (
	CodeOK Code = iota
	CodeInvalidArg
	CodeNotFound
	CodeParameterType
	CodeFormat
	CodeIO
	CodeMemory
	CodeGeneric
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidArg:
		return "invalid_arg"
	case CodeNotFound:
		return "not_found"
	case CodeParameterType:
		return "parameter_type"
	case CodeFormat:
		return "format"
	case CodeIO:
		return "io"
	case CodeMemory:
		return "memory"
	default:
		return "generic"
	}
}

// Error pairs a Code with the error that produced it.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// coded wraps err with code, or returns nil if err is nil.
func coded(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// CodeOf reports the Code carried by err, walking its Unwrap chain.
// CodeOK for a nil error; CodeGeneric for an error with no attached Code
// (e.g. one returned by an internal package that has no taxonomy of its
// own — see DESIGN.md for which packages opt in).
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeGeneric
}

// paramCode maps an error from package paramdesc onto the Code taxonomy,
// so Pipeline's parameter accessors carry a Code (letting a caller use
// CodeOf to tell "unknown op" apart from "bad field value") without
// paramdesc depending on this package back.
func paramCode(err error) Code {
	switch {
	case errors.Is(err, paramdesc.ErrUnknownOp), errors.Is(err, paramdesc.ErrUnknownField):
		return CodeNotFound
	case errors.Is(err, paramdesc.ErrParameterType), errors.Is(err, paramdesc.ErrOutOfExtent):
		return CodeParameterType
	default:
		return CodeGeneric
	}
}

// renderError wraps an error with the module instance that produced it,
// so a caller can tell which link in the chain failed without parsing
// the message text.
type renderError struct {
	Op       string
	Instance int
	Err      error
}

func (e *renderError) Error() string {
	return fmt.Sprintf("pixelpipe: %s[%d]: %v", e.Op, e.Instance, e.Err)
}

func (e *renderError) Unwrap() error { return e.Err }

func wrapRenderError(op string, instance int, err error) error {
	if err == nil {
		return nil
	}
	return &renderError{Op: op, Instance: instance, Err: err}
}
