// Package rfrule compiles a declarative JSON rule document into an ordered
// list of prioritized RouteMod templates (spec.md §4.2), the same expansion
// original_source/rfserver/rfrule.py performs with parse_l2/parse_l3/parse_l4.
package rfrule

// Document is the top-level JSON shape spec.md §4.2 describes: a
// "default-rules" object keyed by priority name.
type Document struct {
	DefaultRules map[string][]RawRule `json:"default-rules"`
}

// RawRule is one rule as authored in the JSON document.
type RawRule struct {
	Name        string    `json:"name"`
	VSOnly      bool      `json:"vs-only,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Match       *RawMatch `json:"match,omitempty"`
}

// RawMatch is the optional match block of a RawRule. Any field left empty
// is simply skipped — an unknown field in the surrounding JSON is ignored
// silently per spec.md §7 ("match block is best-effort").
type RawMatch struct {
	DLAddr  string   `json:"dl-addr,omitempty"`
	DLType  []string `json:"dl-type,omitempty"`
	NWAddr  string   `json:"nw-addr,omitempty"`
	NWProto *uint8   `json:"nw-proto,omitempty"`
	TPPort  *uint16  `json:"tp-port,omitempty"`
}
