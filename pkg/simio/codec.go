package simio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kaptinlin/jsonrepair"
	"github.com/vmihailenco/msgpack/v5"
)

// EncodeJSON writes doc as JSON. An empty indent writes a single line.
func EncodeJSON(w io.Writer, doc *Document, indent string) error {
	enc := json.NewEncoder(w)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(doc)
}

// DecodeJSON parses a JSON document. Malformed JSON, such as a truncated
// file or trailing commas, is repaired once before giving up.
func DecodeJSON(data []byte) (*Document, error) {
	var doc Document
	err := json.Unmarshal(data, &doc)
	if err == nil {
		return &doc, nil
	}
	if _, ok := err.(*json.SyntaxError); !ok {
		return nil, err
	}
	fixed, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return nil, fmt.Errorf("simio: decode json: %w", err)
	}
	doc = Document{}
	if err := json.Unmarshal([]byte(fixed), &doc); err != nil {
		return nil, fmt.Errorf("simio: decode repaired json: %w", err)
	}
	return &doc, nil
}

// EncodeMsgpack writes doc as MessagePack.
func EncodeMsgpack(w io.Writer, doc *Document) error {
	return msgpack.NewEncoder(w).Encode(doc)
}

// DecodeMsgpack parses a MessagePack document.
func DecodeMsgpack(data []byte) (*Document, error) {
	var doc Document
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("simio: decode msgpack: %w", err)
	}
	return &doc, nil
}

// Encode writes doc in format f.
func Encode(w io.Writer, doc *Document, f Format) error {
	switch f {
	case FormatJSON:
		return EncodeJSON(w, doc, "")
	case FormatMsgpack:
		return EncodeMsgpack(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Decode parses a document in format f.
func Decode(data []byte, f Format) (*Document, error) {
	switch f {
	case FormatJSON:
		return DecodeJSON(data)
	case FormatMsgpack:
		return DecodeMsgpack(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
