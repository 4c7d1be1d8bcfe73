package blobstore

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"
)

// Group is a named hierarchical view into a BlobStore. Blob names inside a
// group are slash-separated relative paths; child groups are path prefixes.
type Group struct {
	store  BlobStore
	prefix string
}

// NewGroup returns the group rooted at prefix ("" for the store root).
func NewGroup(store BlobStore, prefix string) *Group {
	return &Group{store: store, prefix: prefix}
}

// Child returns the sub-group with the given name.
func (g *Group) Child(name string) *Group {
	return &Group{store: g.store, prefix: g.key(name)}
}

// Path returns the group's absolute prefix inside the store.
func (g *Group) Path() string {
	return g.prefix
}

func (g *Group) key(name string) string {
	return path.Join(g.prefix, name)
}

// Open opens a blob in the group for reading.
func (g *Group) Open(ctx context.Context, name string) (Blob, error) {
	return g.store.Open(ctx, g.key(name))
}

// Create creates a blob in the group for streaming writes.
func (g *Group) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	return g.store.Create(ctx, g.key(name))
}

// Put writes a blob in the group atomically.
func (g *Group) Put(ctx context.Context, name string, data []byte) error {
	return g.store.Put(ctx, g.key(name), data)
}

// ReadAll reads the full contents of a blob in the group.
func (g *Group) ReadAll(ctx context.Context, name string) ([]byte, error) {
	return ReadAll(ctx, g.store, g.key(name))
}

// Delete removes a blob in the group.
func (g *Group) Delete(ctx context.Context, name string) error {
	return g.store.Delete(ctx, g.key(name))
}

// List returns the relative names of all blobs in the group, sorted.
func (g *Group) List(ctx context.Context) ([]string, error) {
	prefix := g.prefix
	if prefix != "" {
		prefix += "/"
	}
	keys, err := g.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, prefix))
	}
	sort.Strings(names)
	return names, nil
}

// Clear removes every blob in the group.
func (g *Group) Clear(ctx context.Context) error {
	prefix := g.prefix
	if prefix != "" {
		prefix += "/"
	}
	keys, err := g.store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := g.store.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
