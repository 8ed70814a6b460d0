package history

import (
	"encoding/hex"
	"encoding/xml"
	"fmt"

	"github.com/rawforge/pixelpipe"
)

// sidecarDoc is the XML sidecar's document shape: an RDF-style wrapper
// around a flat sequence of module records (spec §4.9 "Sidecar format":
// "a compatible XML-with-RDF sidecar format ... modules appear as a
// sequence"). Each module's entire parameter record travels as hex,
// unlike the JSON form's per-field text, so a third-party reader that
// only understands the record layout can still round-trip it.
type sidecarDoc struct {
	XMLName     xml.Name           `xml:"rdf:RDF"`
	XMLNSrdf    string             `xml:"xmlns:rdf,attr"`
	XMLNSpp     string             `xml:"xmlns:pp,attr"`
	Description sidecarDescription `xml:"rdf:Description"`
}

type sidecarDescription struct {
	Version   string          `xml:"pp:version,attr"`
	Generator string          `xml:"pp:generator,attr"`
	IOPOrder  string          `xml:"pp:iopOrder,attr"`
	Modules   []sidecarModule `xml:"pp:history>rdf:Seq>rdf:li"`
}

type sidecarModule struct {
	Op      string `xml:"pp:operation,attr"`
	Enabled bool   `xml:"pp:enabled,attr"`
	Version int    `xml:"pp:moduleVersion,attr"`
	Params  string `xml:"pp:params"`
}

const (
	rdfNS = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	ppNS  = "https://github.com/rawforge/pixelpipe/history"
)

// EmitSidecar builds the XML sidecar form of pipe's current state: the
// same module set Emit describes, but each module's raw parameter record
// is hex-encoded whole rather than split into per-field text.
func EmitSidecar(pipe *pixelpipe.Pipeline) *sidecarDoc {
	doc := &sidecarDoc{XMLNSrdf: rdfNS, XMLNSpp: ppNS}
	doc.Description.Version = "1.0"
	doc.Description.Generator = Generator
	doc.Description.IOPOrder = pipe.IOPOrderKind()
	for _, m := range pipe.Enumerate() {
		doc.Description.Modules = append(doc.Description.Modules, sidecarModule{
			Op:      m.Op,
			Enabled: m.Enabled,
			Version: 1,
			Params:  hex.EncodeToString(m.Params),
		})
	}
	return doc
}

// SerializeSidecar renders doc as an XML document with a standard header,
// the form SaveSidecar writes to disk.
func SerializeSidecar(doc *sidecarDoc) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &pixelpipe.Error{Code: pixelpipe.CodeFormat, Err: err}
	}
	return append([]byte(xml.Header), body...), nil
}

// ParseSidecar decodes raw XML into a sidecar document, validating only
// the document-level version (spec §4.9 "Reading the sidecar applies the
// same module/param validation as JSON").
func ParseSidecar(raw []byte) (*sidecarDoc, error) {
	var doc sidecarDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, &pixelpipe.Error{Code: pixelpipe.CodeFormat, Err: fmt.Errorf("history: malformed sidecar: %w", err)}
	}
	if doc.Description.Version == "" {
		return nil, &pixelpipe.Error{Code: pixelpipe.CodeFormat, Err: ErrMissingVersion}
	}
	return &doc, nil
}

// LoadSidecar applies doc's modules onto pipe, decoding each module's hex
// record and writing it whole via Pipeline.LoadRawParams. An unknown
// operation or malformed hex warns and skips that module. A record whose
// length doesn't match the operation's declared size warns and leaves the
// module's parameters unchanged; its enabled flag from doc has already
// been applied by then.
func LoadSidecar(pipe *pixelpipe.Pipeline, doc *sidecarDoc) {
	for _, sm := range doc.Description.Modules {
		raw, err := hex.DecodeString(sm.Params)
		if err != nil {
			pixelpipe.Logger().Warn("history: sidecar module has malformed hex params, skipped", "op", sm.Op)
			continue
		}
		if err := pipe.Enable(sm.Op, sm.Enabled); err != nil {
			pixelpipe.Logger().Warn("history: unknown module in sidecar, skipped", "op", sm.Op)
			continue
		}
		if err := pipe.LoadRawParams(sm.Op, raw); err != nil {
			pixelpipe.Logger().Warn("history: sidecar params rejected, skipped", "op", sm.Op, "error", err)
		}
	}
}

// LoadSidecarXML parses raw as an XML sidecar document and applies it to
// pipe in one step, invalidating every module's render cache afterward.
func LoadSidecarXML(pipe *pixelpipe.Pipeline, raw []byte) error {
	doc, err := ParseSidecar(raw)
	if err != nil {
		return err
	}
	LoadSidecar(pipe, doc)
	pipe.InvalidateCache()
	return nil
}
