package ioporder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors returned by the text/binary codecs.
var (
	ErrMalformedText   = errors.New("ioporder: malformed order text")
	ErrCorruptBinary   = errors.New("ioporder: corrupt binary order stream")
	ErrLengthOutOfBand = errors.New("ioporder: op name length out of bounds")
	ErrInstanceOutOfBand = errors.New("ioporder: instance out of bounds")
)

// maxOpNameLen and maxInstance are the ingest clamps spec §6 mandates for
// the binary form: "length clamped to <= 20, instance clamped to <= 1000".
const (
	maxOpNameLen = 20
	maxInstance  = 1000
)

// SerializeText renders list as "op,instance,op,instance,...". IOPOrder is
// not part of the text form; a round-trip through DeserializeText loses
// rank information by design (spec §4.2: "serialize-text(list) produces
// op,instance,...").
func SerializeText(list List) string {
	parts := make([]string, 0, len(list)*2)
	for _, e := range list {
		parts = append(parts, e.Op, strconv.Itoa(e.Instance))
	}
	return strings.Join(parts, ",")
}

// DeserializeText parses the text form back into a List. Ranks are
// reassigned at rankStart+i*stride by position, since the text form
// doesn't carry them.
func DeserializeText(s string) (List, error) {
	if s == "" {
		return List{}, nil
	}
	fields := strings.Split(s, ",")
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("%w: odd field count", ErrMalformedText)
	}
	out := make(List, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		op := fields[i]
		if op == "" {
			return nil, fmt.Errorf("%w: empty op name", ErrMalformedText)
		}
		inst, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: instance %q: %v", ErrMalformedText, fields[i+1], err)
		}
		out = append(out, Entry{Op: op, Instance: inst, IOPOrder: rankStart + (i/2)*stride})
	}
	return out, nil
}

// SerializeBinary encodes list as a flat stream of (i32 LE op-length,
// op-bytes, i32 LE instance) records.
func SerializeBinary(list List) []byte {
	buf := make([]byte, 0, len(list)*16)
	var tmp [4]byte
	for _, e := range list {
		binary.LittleEndian.PutUint32(tmp[:], uint32(len(e.Op)))
		buf = append(buf, tmp[:]...)
		buf = append(buf, e.Op...)
		binary.LittleEndian.PutUint32(tmp[:], uint32(e.Instance))
		buf = append(buf, tmp[:]...)
	}
	return buf
}

// DeserializeBinary decodes the stream SerializeBinary produces. A
// corrupted length or an out-of-band length/instance is rejected with an
// error, never by panicking or reading past the buffer (spec §8: "Corrupted
// length or instance bounds are rejected, not crashed").
func DeserializeBinary(data []byte) (List, error) {
	var out List
	i := 0
	rank := rankStart
	for i < len(data) {
		if i+4 > len(data) {
			return nil, fmt.Errorf("%w: truncated length field", ErrCorruptBinary)
		}
		n := int(binary.LittleEndian.Uint32(data[i:]))
		i += 4
		if n < 0 || n > maxOpNameLen {
			return nil, fmt.Errorf("%w: op name length %d", ErrLengthOutOfBand, n)
		}
		if i+n > len(data) {
			return nil, fmt.Errorf("%w: truncated op name", ErrCorruptBinary)
		}
		op := string(data[i : i+n])
		i += n
		if i+4 > len(data) {
			return nil, fmt.Errorf("%w: truncated instance field", ErrCorruptBinary)
		}
		inst := int(binary.LittleEndian.Uint32(data[i:]))
		i += 4
		if inst < 0 || inst > maxInstance {
			return nil, fmt.Errorf("%w: instance %d", ErrInstanceOutOfBand, inst)
		}
		out = append(out, Entry{Op: op, Instance: inst, IOPOrder: rank})
		rank += stride
	}
	return out, nil
}
