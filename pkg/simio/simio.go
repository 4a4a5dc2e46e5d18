// Package simio reads and writes sim models in the SIM document format.
//
// A Document lists geometry by index: positions are numbered 0..num_posis-1
// and every object refers to positions, and every collection to objects, by
// their index within their type. Attributes list each distinct value once
// together with the indices of the entities that hold it.
//
// Documents are encoded as JSON (".sim", ".json") or MessagePack (".simb",
// ".msgpack").
package simio

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/design-automation/mobius-sim-go/pkg/sim"
)

// Document type and version written by Export.
const (
	DocType    = "SIM"
	DocVersion = "0.1"
)

var (
	ErrInvalidDocument = errors.New("simio: invalid document")
	ErrUnknownFormat   = errors.New("simio: unknown format")
	ErrUnrepresentable = errors.New("simio: model cannot be written as a document")
)

// Document is a serialized model.
type Document struct {
	Type       string     `json:"type" msgpack:"type"`
	Version    string     `json:"version" msgpack:"version"`
	Geometry   Geometry   `json:"geometry" msgpack:"geometry"`
	Attributes Attributes `json:"attributes" msgpack:"attributes"`
}

// Geometry holds the topology of a model by index. Plines list their
// positions with the first repeated at the end when closed. Pgons list one
// position ring per wire, boundary first. Collection lists are parallel:
// entry i of each holds the members of collection i.
type Geometry struct {
	NumPosis   int       `json:"num_posis" msgpack:"num_posis"`
	Points     []int     `json:"points" msgpack:"points"`
	Plines     [][]int   `json:"plines" msgpack:"plines"`
	Pgons      [][][]int `json:"pgons" msgpack:"pgons"`
	CollPoints [][]int   `json:"coll_points" msgpack:"coll_points"`
	CollPlines [][]int   `json:"coll_plines" msgpack:"coll_plines"`
	CollPgons  [][]int   `json:"coll_pgons" msgpack:"coll_pgons"`
	CollColls  [][]int   `json:"coll_colls" msgpack:"coll_colls"`
}

// Attributes holds the attribute data of each entity type and the model
// attributes.
type Attributes struct {
	Posis  []AttribData  `json:"posis" msgpack:"posis"`
	Verts  []AttribData  `json:"verts" msgpack:"verts"`
	Edges  []AttribData  `json:"edges" msgpack:"edges"`
	Wires  []AttribData  `json:"wires" msgpack:"wires"`
	Points []AttribData  `json:"points" msgpack:"points"`
	Plines []AttribData  `json:"plines" msgpack:"plines"`
	Pgons  []AttribData  `json:"pgons" msgpack:"pgons"`
	Colls  []AttribData  `json:"colls" msgpack:"colls"`
	Model  []ModelAttrib `json:"model" msgpack:"model"`
}

// ForType returns the attribute list of an entity type.
func (a *Attributes) ForType(t sim.EntType) *[]AttribData {
	switch t {
	case sim.Posi:
		return &a.Posis
	case sim.Vert:
		return &a.Verts
	case sim.Edge:
		return &a.Edges
	case sim.Wire:
		return &a.Wires
	case sim.Point:
		return &a.Points
	case sim.Pline:
		return &a.Plines
	case sim.Pgon:
		return &a.Pgons
	case sim.Coll:
		return &a.Colls
	}
	return nil
}

// AttribData is one attribute. Entities[i] lists the entities holding
// Values[i].
type AttribData struct {
	Name     string      `json:"name" msgpack:"name"`
	DataType string      `json:"data_type" msgpack:"data_type"`
	Values   []sim.Value `json:"values" msgpack:"values"`
	Entities [][]int     `json:"entities" msgpack:"entities"`
}

// ModelAttrib is a model attribute, encoded as a [name, value] pair.
type ModelAttrib struct {
	Name  string
	Value sim.Value
}

func (a ModelAttrib) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{a.Name, a.Value})
}

func (a *ModelAttrib) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: model attribute has %d elements, want 2", ErrInvalidDocument, len(pair))
	}
	if err := json.Unmarshal(pair[0], &a.Name); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &a.Value)
}

var (
	_ msgpack.CustomEncoder = ModelAttrib{}
	_ msgpack.CustomDecoder = (*ModelAttrib)(nil)
)

func (a ModelAttrib) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeString(a.Name); err != nil {
		return err
	}
	return enc.Encode(a.Value)
}

func (a *ModelAttrib) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("%w: model attribute has %d elements, want 2", ErrInvalidDocument, n)
	}
	if a.Name, err = dec.DecodeString(); err != nil {
		return err
	}
	return dec.Decode(&a.Value)
}

// newDocument returns an empty document whose lists are all non-nil.
func newDocument() *Document {
	return &Document{
		Type:    DocType,
		Version: DocVersion,
		Geometry: Geometry{
			Points:     []int{},
			Plines:     [][]int{},
			Pgons:      [][][]int{},
			CollPoints: [][]int{},
			CollPlines: [][]int{},
			CollPgons:  [][]int{},
			CollColls:  [][]int{},
		},
		Attributes: Attributes{
			Posis:  []AttribData{},
			Verts:  []AttribData{},
			Edges:  []AttribData{},
			Wires:  []AttribData{},
			Points: []AttribData{},
			Plines: []AttribData{},
			Pgons:  []AttribData{},
			Colls:  []AttribData{},
			Model:  []ModelAttrib{},
		},
	}
}

// Format is a document encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatMsgpack:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sim", ".json":
		return FormatJSON, nil
	case ".simb", ".msgpack":
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}
