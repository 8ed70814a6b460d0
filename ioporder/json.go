package ioporder

import "encoding/json"

// jsonEntry is the wire shape of one Entry inside the JSON document (spec
// §4.2: `{ version, order: [ {op, instance}, ... ] }`). IOPOrder is
// re-derived positionally on decode, same as the text form.
type jsonEntry struct {
	Op       string `json:"op"`
	Instance int    `json:"instance"`
}

type jsonDoc struct {
	Version string      `json:"version"`
	Order   []jsonEntry `json:"order"`
}

// JSONWrite encodes list as the `{version, order}` document.
func JSONWrite(list List, version string) ([]byte, error) {
	doc := jsonDoc{Version: version, Order: make([]jsonEntry, len(list))}
	for i, e := range list {
		doc.Order[i] = jsonEntry{Op: e.Op, Instance: e.Instance}
	}
	return json.Marshal(doc)
}

// JSONRead decodes a `{version, order}` document back into a List.
func JSONRead(data []byte) (List, string, error) {
	var doc jsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", err
	}
	out := make(List, len(doc.Order))
	for i, e := range doc.Order {
		out[i] = Entry{Op: e.Op, Instance: e.Instance, IOPOrder: rankStart + i*stride}
	}
	return out, doc.Version, nil
}
