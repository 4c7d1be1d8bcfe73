package mudgo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/mudgo/blobstore"
	"github.com/hupe1980/mudgo/modality"
)

// backing is the shared store handle of a backed container. Closing it cuts
// off every pending and future lazy load.
type backing struct {
	store  blobstore.BlobStore
	closed atomic.Bool
}

func (b *backing) close() {
	b.closed.Store(true)
}

// backedModality defers its payload to the store. Index and shape questions
// are answered from the eagerly loaded metadata; everything touching the
// payload triggers a load. Concurrent loads of the same modality are
// deduplicated.
type backedModality struct {
	name   string
	format string
	meta   *modality.Meta
	group  *blobstore.Group
	b      *backing

	sf     singleflight.Group
	mu     sync.Mutex
	loaded modality.Modality
}

var (
	_ modality.Modality     = (*backedModality)(nil)
	_ modality.Materializer = (*backedModality)(nil)
)

func newBackedModality(ctx context.Context, name, format string, g *blobstore.Group, b *backing) (*backedModality, error) {
	meta, err := modality.ReadMeta(ctx, g)
	if err != nil {
		return nil, err
	}
	if meta.Format != format {
		return nil, fmt.Errorf("modality %q: manifest says format %q, metadata says %q", name, format, meta.Format)
	}

	return &backedModality{
		name:   name,
		format: format,
		meta:   meta,
		group:  g,
		b:      b,
	}, nil
}

// Format returns the manifest format name.
func (m *backedModality) Format() string {
	return m.format
}

// ObsNames answers from the eager metadata, no payload load.
func (m *backedModality) ObsNames() []string {
	return append([]string(nil), m.meta.ObsNames...)
}

// VarNames answers from the eager metadata, no payload load.
func (m *backedModality) VarNames() []string {
	return append([]string(nil), m.meta.VarNames...)
}

// Shape answers from the eager metadata.
func (m *backedModality) Shape() modality.Shape {
	return modality.Shape{Obs: len(m.meta.ObsNames), Vars: len(m.meta.VarNames)}
}

// IsBacked always reports true. A successful Materialize replaces the
// registry entry instead of mutating the wrapper.
func (m *backedModality) IsBacked() bool {
	return true
}

// Filter always fails: the payload lives on storage and cannot be restricted
// in place. Materialize first.
func (m *backedModality) Filter(_ context.Context, axis modality.Axis, _ modality.Selector) error {
	return &modality.ErrReadOnly{Op: "filter " + axis.String()}
}

// WriteTo loads the payload and delegates to the in-memory form.
func (m *backedModality) WriteTo(ctx context.Context, g *blobstore.Group) error {
	loaded, err := m.load(ctx)
	if err != nil {
		return err
	}
	return loaded.WriteTo(ctx, g)
}

// Materialize loads the payload and returns the fully in-memory modality.
func (m *backedModality) Materialize(ctx context.Context) (modality.Modality, error) {
	return m.load(ctx)
}

func (m *backedModality) load(ctx context.Context) (modality.Modality, error) {
	m.mu.Lock()
	loaded := m.loaded
	m.mu.Unlock()
	if loaded != nil {
		return loaded, nil
	}

	v, err, _ := m.sf.Do(m.name, func() (any, error) {
		if m.b.closed.Load() {
			return nil, ErrClosed
		}
		mod, err := modality.Read(ctx, m.group, m.format)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.loaded = mod
		m.mu.Unlock()
		return mod, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(modality.Modality), nil
}
