// Package archive keeps named, versioned copies of sim models in a kv.Store.
//
// Each Save exports the model's active snapshot and stores it as a new
// revision under the model name. Revisions are never modified; the newest
// one is the head.
//
// Key layout:
//
//	{prefix}:doc:{name}:{rev}   msgpack Record
//	{prefix}:head:{name}        latest revision id
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/design-automation/mobius-sim-go/pkg/kv"
	"github.com/design-automation/mobius-sim-go/pkg/sim"
	"github.com/design-automation/mobius-sim-go/pkg/simio"
)

var (
	ErrNotFound    = errors.New("archive: not found")
	ErrInvalidName = errors.New("archive: invalid name")
)

// DefaultPrefix is the first key segment of every archive entry.
const DefaultPrefix = "sim"

// Record is one stored revision.
type Record struct {
	ID       string          `msgpack:"id" json:"id" yaml:"id"`
	Name     string          `msgpack:"name" json:"name" yaml:"name"`
	Created  time.Time       `msgpack:"created" json:"created" yaml:"created"`
	Document *simio.Document `msgpack:"document" json:"-" yaml:"-"`
}

// Options configures an Archive.
type Options struct {
	// Prefix defaults to DefaultPrefix.
	Prefix string

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Archive stores model revisions.
type Archive struct {
	store  kv.Store
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// New returns an Archive on store. opts may be nil.
func New(store kv.Store, opts *Options) *Archive {
	a := &Archive{store: store, prefix: DefaultPrefix, logger: slog.Default(), now: time.Now}
	if opts != nil {
		if opts.Prefix != "" {
			a.prefix = opts.Prefix
		}
		if opts.Logger != nil {
			a.logger = opts.Logger
		}
		if opts.Now != nil {
			a.now = opts.Now
		}
	}
	return a
}

func (a *Archive) docKey(name, rev string) kv.Key { return kv.Key{a.prefix, "doc", name, rev} }
func (a *Archive) headKey(name string) kv.Key     { return kv.Key{a.prefix, "head", name} }

// newRevID returns an id that sorts after every id created earlier.
func (a *Archive) newRevID() string {
	return fmt.Sprintf("%020d-%s", a.now().UnixNano(), uuid.NewString())
}

// Save stores the active snapshot of m as a new revision of name.
func (a *Archive) Save(ctx context.Context, name string, m *sim.Model) (Record, error) {
	if name == "" {
		return Record{}, fmt.Errorf("%w: empty", ErrInvalidName)
	}
	doc, err := simio.Export(m)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:       a.newRevID(),
		Name:     name,
		Created:  a.now().UTC(),
		Document: doc,
	}
	b, err := msgpack.Marshal(&rec)
	if err != nil {
		return Record{}, fmt.Errorf("archive: encode %s: %w", name, err)
	}
	err = a.store.BatchSet(ctx, []kv.Entry{
		{Key: a.docKey(name, rec.ID), Value: b},
		{Key: a.headKey(name), Value: []byte(rec.ID)},
	})
	if errors.Is(err, kv.ErrInvalidKey) {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err != nil {
		return Record{}, err
	}
	a.logger.Debug("archive: saved", "name", name, "rev", rec.ID, "posis", doc.Geometry.NumPosis)
	return rec, nil
}

// Head returns the latest revision id of name.
func (a *Archive) Head(ctx context.Context, name string) (string, error) {
	b, err := a.store.Get(ctx, a.headKey(name))
	if errors.Is(err, kv.ErrNotFound) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Load returns a stored revision. An empty rev loads the head.
func (a *Archive) Load(ctx context.Context, name, rev string) (Record, error) {
	if rev == "" {
		head, err := a.Head(ctx, name)
		if err != nil {
			return Record{}, err
		}
		rev = head
	}
	b, err := a.store.Get(ctx, a.docKey(name, rev))
	if errors.Is(err, kv.ErrNotFound) {
		return Record{}, fmt.Errorf("%w: %s@%s", ErrNotFound, name, rev)
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return Record{}, fmt.Errorf("archive: decode %s@%s: %w", name, rev, err)
	}
	return rec, nil
}

// Restore loads a revision into a new model.
func (a *Archive) Restore(ctx context.Context, name, rev string, opts ...sim.Option) (*sim.Model, error) {
	rec, err := a.Load(ctx, name, rev)
	if err != nil {
		return nil, err
	}
	m := sim.New(opts...)
	if err := simio.Import(m, rec.Document); err != nil {
		return nil, fmt.Errorf("archive: restore %s@%s: %w", name, rec.ID, err)
	}
	return m, nil
}

// List returns the revisions of name, oldest first, without their
// documents.
func (a *Archive) List(ctx context.Context, name string) ([]Record, error) {
	var out []Record
	for e, err := range a.store.List(ctx, kv.Key{a.prefix, "doc", name}) {
		if err != nil {
			return nil, err
		}
		var rec Record
		if err := msgpack.Unmarshal(e.Value, &rec); err != nil {
			return nil, fmt.Errorf("archive: decode %s: %w", e.Key, err)
		}
		rec.Document = nil
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return out, nil
}

// Names returns every archived model name in ascending order.
func (a *Archive) Names(ctx context.Context) ([]string, error) {
	names := []string{}
	for e, err := range a.store.List(ctx, kv.Key{a.prefix, "head"}) {
		if err != nil {
			return nil, err
		}
		names = append(names, e.Key.Last())
	}
	return names, nil
}

// Delete removes one revision, or every revision of name when rev is empty.
// Deleting the head moves it to the newest remaining revision.
func (a *Archive) Delete(ctx context.Context, name, rev string) error {
	recs, err := a.List(ctx, name)
	if err != nil {
		return err
	}
	var del []kv.Key
	var keep []Record
	for _, r := range recs {
		if rev == "" || r.ID == rev {
			del = append(del, a.docKey(name, r.ID))
		} else {
			keep = append(keep, r)
		}
	}
	if len(del) == 0 {
		return fmt.Errorf("%w: %s@%s", ErrNotFound, name, rev)
	}
	if len(keep) == 0 {
		del = append(del, a.headKey(name))
	} else if err := a.store.Set(ctx, a.headKey(name), []byte(keep[len(keep)-1].ID)); err != nil {
		return err
	}
	if err := a.store.BatchDelete(ctx, del); err != nil {
		return err
	}
	a.logger.Debug("archive: deleted", "name", name, "rev", rev, "removed", len(del))
	return nil
}
