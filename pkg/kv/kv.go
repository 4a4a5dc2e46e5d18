// Package kv is the key-value layer under the model archive. Keys are
// paths of string segments such as {"sim", "doc", "tower", "0001"}, joined
// with a separator byte (':' by default) when stored.
//
// Two stores are provided: Badger, backed by BadgerDB on disk or in memory,
// and Memory, a map-backed store for tests and short-lived sessions.
package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

var (
	ErrNotFound   = errors.New("kv: not found")
	ErrInvalidKey = errors.New("kv: invalid key")
)

// Key is a path of segments. Segments must not contain the separator.
type Key []string

// String joins the segments with ':' for display.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Last returns the final segment, or "" for an empty key.
func (k Key) Last() string {
	if len(k) == 0 {
		return ""
	}
	return k[len(k)-1]
}

// Entry is a key and its value.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path keys.
type Store interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key Key) ([]byte, error)

	Set(ctx context.Context, key Key, value []byte) error

	// Delete of an absent key is not an error.
	Delete(ctx context.Context, key Key) error

	// List yields the entries strictly below prefix in ascending key order.
	// An empty prefix lists everything.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchSet writes all entries or none.
	BatchSet(ctx context.Context, entries []Entry) error

	BatchDelete(ctx context.Context, keys []Key) error

	Close() error
}

// DefaultSeparator joins key segments when no separator is configured.
const DefaultSeparator byte = ':'

// Options is shared by every store.
type Options struct {
	// Separator between key segments. Zero means DefaultSeparator.
	Separator byte
}

func (o *Options) sep() string {
	if o == nil || o.Separator == 0 {
		return string(DefaultSeparator)
	}
	return string(o.Separator)
}

// encode joins k, rejecting empty keys and segments holding the separator.
func (o *Options) encode(k Key) ([]byte, error) {
	if len(k) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	sep := o.sep()
	for _, seg := range k {
		if strings.Contains(seg, sep) {
			return nil, fmt.Errorf("%w: segment %q contains %q", ErrInvalidKey, seg, sep)
		}
	}
	return []byte(strings.Join(k, sep)), nil
}

// prefix returns the encoded form of p followed by the separator, or nil
// when p is empty.
func (o *Options) prefix(p Key) ([]byte, error) {
	if len(p) == 0 {
		return nil, nil
	}
	b, err := o.encode(p)
	if err != nil {
		return nil, err
	}
	return append(b, o.sep()...), nil
}

func (o *Options) decode(b []byte) Key {
	return Key(strings.Split(string(b), o.sep()))
}

// errSeq yields a single error.
func errSeq(err error) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		yield(Entry{}, err)
	}
}
