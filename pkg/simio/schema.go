package simio

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/design-automation/mobius-sim-go/pkg/sim"
)

var schema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	s, err := Schema()
	if err != nil {
		return nil, err
	}
	return s.Resolve(nil)
})

// Schema returns the JSON schema of a JSON-encoded Document.
func Schema() (*jsonschema.Schema, error) {
	return jsonschema.For[Document](&jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			// Any JSON value.
			reflect.TypeFor[sim.Value](): {},
			reflect.TypeFor[ModelAttrib](): {
				Type:        "array",
				PrefixItems: []*jsonschema.Schema{{Type: "string"}, {}},
			},
		},
	})
}

// Validate checks a JSON-encoded document against the schema.
func Validate(raw []byte) error {
	resolved, err := schema()
	if err != nil {
		return fmt.Errorf("simio: schema: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}
