// Package ioporder implements the IOP order tables (spec C2): the
// static, version-keyed orderings that map an operation name to an
// integer sort key, plus the custom-ordering path and the text, binary
// and JSON serialization forms of an order list.
package ioporder

import (
	"fmt"
	"sort"

	"github.com/rawforge/pixelpipe/internal/cache"
)

// listCache memoizes ListFor's per-Kind output: the built-in tables never
// change at runtime, so every Pipeline built with the same Kind reuses one
// materialized List instead of re-walking builtinGroups.
var listCache = cache.New[Kind, List](len(builtinGroups))

// Kind identifies one of the built-in orderings, or Custom for a
// user-supplied list that does not match any built-in.
type Kind int

const (
	Legacy Kind = iota
	V3RAW
	V3JPEG
	V5RAW
	V5JPEG
	Custom
)

// String returns the name used in the JSON "iop_order" field and history
// sidecars.
func (k Kind) String() string {
	switch k {
	case Legacy:
		return "legacy"
	case V3RAW:
		return "v3.0-raw"
	case V3JPEG:
		return "v3.0-jpeg"
	case V5RAW:
		return "v5.0-raw"
	case V5JPEG:
		return "v5.0-jpeg"
	default:
		return "custom"
	}
}

// ParseKind parses a Kind's String() form back into a Kind. An unrecognized
// name yields Custom, since a custom list's name is caller-defined.
func ParseKind(s string) Kind {
	for k := Legacy; k <= V5JPEG; k++ {
		if k.String() == s {
			return k
		}
	}
	return Custom
}

// Entry is one operation's position in an order list.
type Entry struct {
	Op       string
	Instance int
	IOPOrder int
}

// List is an ordered sequence of Entry, lowest IOPOrder first.
type List []Entry

// stride is the gap between successive built-in ranks, leaving room for
// multi-instance modules to be inserted between two built-in ops without
// renumbering the whole table (spec §4.2: "stride 100, leaving gaps").
const stride = 100

// rankStart is the first rank assigned to a built-in table's first op.
const rankStart = 100

// builtinGroups holds each table's operation order as rank-groups: every
// op name within one group shares a single IOPOrder rank, and ranks
// advance by stride between groups. A group with more than one name is a
// "collapsed rank" (spec §4.2): the JPEG tables tie rawprepare,
// temperature, highlights, and demosaic to one rank ahead of colorin
// rather than dropping them, since non-linear JPEG input still needs
// those modules to run (ordering between them no longer matters once
// tied, but each is still a real module instance).
var builtinGroups = map[Kind][][]string{
	Legacy: {
		{"rawprepare"}, {"temperature"}, {"highlights"}, {"demosaic"},
		{"colorin"}, {"exposure"}, {"highlights2"}, {"colorout"}, {"gamma"},
	},
	V3RAW: {
		{"rawprepare"}, {"temperature"}, {"highlights"}, {"demosaic"},
		{"colorin"}, {"exposure"}, {"colorout"}, {"gamma"},
	},
	V3JPEG: {
		{"rawprepare", "temperature", "highlights", "demosaic"},
		{"colorin"}, {"exposure"}, {"colorout"}, {"gamma"},
	},
	V5RAW: {
		{"rawprepare"}, {"temperature"}, {"highlights"}, {"demosaic"},
		{"colorin"}, {"exposure"}, {"finalscale"}, {"colorout"}, {"gamma"},
	},
	V5JPEG: {
		{"rawprepare", "temperature", "highlights", "demosaic"},
		{"colorin"}, {"exposure"}, {"finalscale"}, {"colorout"}, {"gamma"},
	},
}

// ListFor returns a fresh copy of the built-in list for kind, with
// instance 0 for every op and ranks assigned at rankStart+i*stride,
// every op within a collapsed group sharing its group's rank. Custom
// returns an empty list: callers build custom lists by hand.
func ListFor(kind Kind) List {
	master, ok := listCache.Get(kind)
	if !ok {
		groups, known := builtinGroups[kind]
		if !known {
			return nil
		}
		var entries List
		rank := rankStart
		for _, group := range groups {
			for _, op := range group {
				entries = append(entries, Entry{Op: op, Instance: 0, IOPOrder: rank})
			}
			rank += stride
		}
		master = entries
		listCache.Set(kind, master)
	}
	return cloneList(master)
}

// Kind reports which built-in ordering produced list, matching on the
// sequence of operation names and on which neighboring entries share a
// rank (ignoring instance and the exact rank values, since a caller may
// have renumbered after edits). The shared-rank check is what tells a
// JPEG table's collapsed raw stage apart from the RAW table with the same
// names. Returns Custom if no built-in matches.
func KindOf(list List) Kind {
	sorted := Sort(cloneList(list))
	for k := Legacy; k <= V5JPEG; k++ {
		want := ListFor(k)
		if !sameOpSequence(sorted, want) {
			continue
		}
		tied := true
		for i := 1; i < len(want); i++ {
			if (sorted[i].IOPOrder == sorted[i-1].IOPOrder) != (want[i].IOPOrder == want[i-1].IOPOrder) {
				tied = false
				break
			}
		}
		if tied {
			return k
		}
	}
	return Custom
}

func sameOpSequence(a, b List) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Op != b[i].Op {
			return false
		}
	}
	return true
}

func cloneList(l List) List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Sort returns a stably-sorted copy of list ordered by ascending IOPOrder,
// ties broken by ascending Instance (spec: "stable sort by iop_order, ties
// broken by instance index").
func Sort(list List) List {
	out := cloneList(list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IOPOrder != out[j].IOPOrder {
			return out[i].IOPOrder < out[j].IOPOrder
		}
		return out[i].Instance < out[j].Instance
	})
	return out
}

// Rule is one hard-coded precedence constraint a custom ordering must
// satisfy (spec §4.2).
type Rule struct {
	Before, After string
}

// Rules is the fixed set of precedence constraints Validate checks an
// ordering against, built-in or custom.
var Rules = []Rule{
	{Before: "rawprepare", After: "invert"},
	{Before: "demosaic", After: "colorin"},
	{Before: "colorin", After: "colorout"},
	{Before: "colorout", After: "gamma"},
}

// Validate checks list against Rules, returning an error naming the first
// violated rule. Ops absent from list are ignored for that rule (the rule
// only constrains relative order when both ops are present).
func Validate(list List) error {
	sorted := Sort(list)
	pos := make(map[string]int, len(sorted))
	for i, e := range sorted {
		if _, dup := pos[e.Op]; !dup {
			pos[e.Op] = i
		}
	}
	for _, r := range Rules {
		bi, bok := pos[r.Before]
		ai, aok := pos[r.After]
		if bok && aok && bi > ai {
			return fmt.Errorf("ioporder: rule violated: %q must precede %q", r.Before, r.After)
		}
	}
	return nil
}
