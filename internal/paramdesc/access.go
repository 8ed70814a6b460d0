package paramdesc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// checkExtent verifies a field's byte range sits inside rec.
func checkExtent(rec []byte, f Field) error {
	if f.Offset < 0 || f.Offset+f.Size > len(rec) {
		return fmt.Errorf("%w: %q at [%d,%d) record length %d", ErrOutOfExtent, f.Name, f.Offset, f.Offset+f.Size, len(rec))
	}
	return nil
}

// SetFloat writes a float32 value into field of op's record. The bool
// return reports whether v fell outside the field's soft bounds; soft
// bounds are advisory (spec §4.1: "values outside soft bounds are
// accepted but logged"), so the write still succeeds.
func (r *Registry) SetFloat(rec []byte, op, field string, v float64) (outOfSoftBounds bool, err error) {
	f, err := r.Lookup(op, field)
	if err != nil {
		return false, err
	}
	if f.Type != Float32 {
		return false, fmt.Errorf("%w: %q.%q is %v, not float", ErrParameterType, op, field, f.Type)
	}
	if err := checkExtent(rec, f); err != nil {
		return false, err
	}
	binary.LittleEndian.PutUint32(rec[f.Offset:], math.Float32bits(float32(v)))
	return outOfSoftRange(v, f), nil
}

// GetFloat reads a float32 value from field of op's record.
func (r *Registry) GetFloat(rec []byte, op, field string) (float64, error) {
	f, err := r.Lookup(op, field)
	if err != nil {
		return 0, err
	}
	if f.Type != Float32 {
		return 0, fmt.Errorf("%w: %q.%q is %v, not float", ErrParameterType, op, field, f.Type)
	}
	if err := checkExtent(rec, f); err != nil {
		return 0, err
	}
	bits := binary.LittleEndian.Uint32(rec[f.Offset:])
	return float64(math.Float32frombits(bits)), nil
}

// SetInt writes an int32/uint32 value into field of op's record.
func (r *Registry) SetInt(rec []byte, op, field string, v int64) (outOfSoftBounds bool, err error) {
	f, err := r.Lookup(op, field)
	if err != nil {
		return false, err
	}
	if f.Type != Int32 && f.Type != UInt32 {
		return false, fmt.Errorf("%w: %q.%q is %v, not integer", ErrParameterType, op, field, f.Type)
	}
	if err := checkExtent(rec, f); err != nil {
		return false, err
	}
	binary.LittleEndian.PutUint32(rec[f.Offset:], uint32(v))
	return outOfSoftRange(float64(v), f), nil
}

// GetInt reads an int32/uint32 value from field of op's record.
func (r *Registry) GetInt(rec []byte, op, field string) (int64, error) {
	f, err := r.Lookup(op, field)
	if err != nil {
		return 0, err
	}
	if f.Type != Int32 && f.Type != UInt32 {
		return 0, fmt.Errorf("%w: %q.%q is %v, not integer", ErrParameterType, op, field, f.Type)
	}
	if err := checkExtent(rec, f); err != nil {
		return 0, err
	}
	u := binary.LittleEndian.Uint32(rec[f.Offset:])
	if f.Type == Int32 {
		return int64(int32(u)), nil
	}
	return int64(u), nil
}

// SetBool writes a bool value into field of op's record.
func (r *Registry) SetBool(rec []byte, op, field string, v bool) error {
	f, err := r.Lookup(op, field)
	if err != nil {
		return err
	}
	if f.Type != Bool {
		return fmt.Errorf("%w: %q.%q is %v, not bool", ErrParameterType, op, field, f.Type)
	}
	if err := checkExtent(rec, f); err != nil {
		return err
	}
	var u uint32
	if v {
		u = 1
	}
	binary.LittleEndian.PutUint32(rec[f.Offset:], u)
	return nil
}

// GetBool reads a bool value from field of op's record.
func (r *Registry) GetBool(rec []byte, op, field string) (bool, error) {
	f, err := r.Lookup(op, field)
	if err != nil {
		return false, err
	}
	if f.Type != Bool {
		return false, fmt.Errorf("%w: %q.%q is %v, not bool", ErrParameterType, op, field, f.Type)
	}
	if err := checkExtent(rec, f); err != nil {
		return false, err
	}
	return binary.LittleEndian.Uint32(rec[f.Offset:]) != 0, nil
}

// writeDefault seeds one field of a freshly allocated record with its
// declared Default, encoded per the field's wire type.
func writeDefault(rec []byte, f Field) {
	switch f.Type {
	case Float32:
		binary.LittleEndian.PutUint32(rec[f.Offset:], math.Float32bits(float32(f.Default)))
	case Int32, UInt32:
		binary.LittleEndian.PutUint32(rec[f.Offset:], uint32(int64(f.Default)))
	case Bool:
		var u uint32
		if f.Default != 0 {
			u = 1
		}
		binary.LittleEndian.PutUint32(rec[f.Offset:], u)
	}
}

func outOfSoftRange(v float64, f Field) bool {
	if f.SoftMin == 0 && f.SoftMax == 0 {
		return false // no bounds declared
	}
	return v < f.SoftMin || v > f.SoftMax
}
