package sim

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// DataType is the declared type of an attribute and the discriminant of
// a Value.
type DataType string

const (
	DataNumber DataType = "number"
	DataString DataType = "string"
	DataBool   DataType = "boolean"
	DataList   DataType = "list"
	DataDict   DataType = "dict"
)

// Valid reports whether dt is one of the five known data types.
func (dt DataType) Valid() bool {
	switch dt {
	case DataNumber, DataString, DataBool, DataList, DataDict:
		return true
	}
	return false
}

// ParseDataType parses a data type name.
func ParseDataType(s string) (DataType, error) {
	dt := DataType(s)
	if !dt.Valid() {
		return "", fmt.Errorf("%w: data type %q", ErrUnrecognizedValueType, s)
	}
	return dt, nil
}

// Value is an attribute value tagged with its data type. Numbers are held as
// float64, lists as []any and dicts as map[string]any, with nested elements
// normalized the same way. The zero Value is the nil value.
type Value struct {
	dt DataType
	v  any
}

// ValueOf converts x into a Value. Any Go integer or float becomes a number;
// slices and arrays become lists; maps with string keys become dicts.
// Anything else, including a top-level nil, fails with
// ErrUnrecognizedValueType.
func ValueOf(x any) (Value, error) {
	if v, ok := x.(Value); ok {
		if v.IsNil() {
			return Value{}, fmt.Errorf("%w: nil", ErrUnrecognizedValueType)
		}
		return v, nil
	}
	if x == nil {
		return Value{}, fmt.Errorf("%w: nil", ErrUnrecognizedValueType)
	}
	n, dt, err := normalize(x)
	if err != nil {
		return Value{}, err
	}
	return Value{dt: dt, v: n}, nil
}

// MustValue is like ValueOf but panics on error.
func MustValue(x any) Value {
	v, err := ValueOf(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Number returns a number value.
func Number(f float64) Value { return Value{dt: DataNumber, v: f} }

// Str returns a string value.
func Str(s string) Value { return Value{dt: DataString, v: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{dt: DataBool, v: b} }

func normalize(x any) (any, DataType, error) {
	switch x := x.(type) {
	case Value:
		return x.v, x.dt, nil
	case float64:
		return x, DataNumber, nil
	case float32:
		return float64(x), DataNumber, nil
	case int:
		return float64(x), DataNumber, nil
	case int64:
		return float64(x), DataNumber, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrUnrecognizedValueType, err)
		}
		return f, DataNumber, nil
	case string:
		return x, DataString, nil
	case bool:
		return x, DataBool, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := normalizeElem(e)
			if err != nil {
				return nil, "", err
			}
			out[i] = n
		}
		return out, DataList, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			n, err := normalizeElem(e)
			if err != nil {
				return nil, "", err
			}
			out[k] = n
		}
		return out, DataDict, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return float64(rv.Int()), DataNumber, nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint, reflect.Uintptr:
		return float64(rv.Uint()), DataNumber, nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), DataNumber, nil
	case reflect.String:
		return rv.String(), DataString, nil
	case reflect.Bool:
		return rv.Bool(), DataBool, nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			n, err := normalizeElem(rv.Index(i).Interface())
			if err != nil {
				return nil, "", err
			}
			out[i] = n
		}
		return out, DataList, nil
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, ok := iter.Key().Interface().(string)
			if !ok {
				return nil, "", fmt.Errorf("%w: map key %v (%T)", ErrUnrecognizedValueType, iter.Key().Interface(), iter.Key().Interface())
			}
			n, err := normalizeElem(iter.Value().Interface())
			if err != nil {
				return nil, "", err
			}
			out[k] = n
		}
		return out, DataDict, nil
	}
	return nil, "", fmt.Errorf("%w: %v (%T)", ErrUnrecognizedValueType, x, x)
}

// normalizeElem is normalize for container elements, where nil is allowed.
func normalizeElem(x any) (any, error) {
	if x == nil {
		return nil, nil
	}
	n, _, err := normalize(x)
	return n, err
}

// Type returns the data type, or "" for the nil value.
func (v Value) Type() DataType { return v.dt }

// IsNil reports whether v is the nil value.
func (v Value) IsNil() bool { return v.dt == "" }

// Any returns the normalized Go value: float64, string, bool, []any,
// map[string]any, or nil.
func (v Value) Any() any { return v.v }

// Float returns the number held by v.
func (v Value) Float() (float64, bool) {
	f, ok := v.v.(float64)
	return f, ok && v.dt == DataNumber
}

// Text returns the string held by v.
func (v Value) Text() (string, bool) {
	s, ok := v.v.(string)
	return s, ok && v.dt == DataString
}

// List returns the elements of a list value.
func (v Value) List() ([]any, bool) {
	l, ok := v.v.([]any)
	return l, ok
}

// Key returns the canonical form used to intern v: the literal for numbers
// and strings, compact JSON with sorted keys for everything else.
func (v Value) Key() string {
	switch v.dt {
	case DataNumber:
		return strconv.FormatFloat(v.v.(float64), 'g', -1, 64)
	case DataString:
		return v.v.(string)
	case "":
		return "null"
	}
	b, err := json.Marshal(v.v)
	if err != nil {
		return fmt.Sprint(v.v)
	}
	return string(b)
}

// Equal reports whether v and o hold structurally equal values.
func (v Value) Equal(o Value) bool {
	return v.dt == o.dt && v.Key() == o.Key()
}

func (v Value) String() string {
	if v.dt == DataString {
		return strconv.Quote(v.v.(string))
	}
	return v.Key()
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.v)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var x any
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	return v.set(x)
}

// MarshalYAML lets YAML encoders write the plain value.
func (v Value) MarshalYAML() (any, error) {
	return v.v, nil
}

var (
	_ msgpack.CustomEncoder = Value{}
	_ msgpack.CustomDecoder = (*Value)(nil)
)

func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(v.v)
}

func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	x, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	return v.set(x)
}

func (v *Value) set(x any) error {
	if x == nil {
		*v = Value{}
		return nil
	}
	nv, err := ValueOf(x)
	if err != nil {
		return err
	}
	*v = nv
	return nil
}
