package mudgo

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/hupe1980/mudgo/annot"
	"github.com/hupe1980/mudgo/blobstore"
	"github.com/hupe1980/mudgo/index"
	"github.com/hupe1980/mudgo/membership"
	"github.com/hupe1980/mudgo/modality"
	"github.com/hupe1980/mudgo/persistence"
)

// Open reads a container from the store.
//
// By default every modality is fully materialized and the result is
// indistinguishable from a container built fresh from the same modalities.
// With WithBacked, the store handle stays attached to the container: global
// sections (indexes, membership, annotation frames) are loaded eagerly,
// modality payloads lazily on first access. Backed containers must be
// released with Close.
func Open(ctx context.Context, store blobstore.BlobStore, optFns ...OpenOption) (*Container, error) {
	oo := openOptions{}
	for _, fn := range optFns {
		fn(&oo)
	}
	opts := defaultOptions()
	for _, fn := range oo.options {
		fn(&opts)
	}

	c, err := open(ctx, store, oo.backed, opts)
	opts.logger.LogOpen(ctx, oo.backed, func() int {
		if c != nil {
			return len(c.names)
		}
		return 0
	}(), err)
	return c, err
}

func open(ctx context.Context, store blobstore.BlobStore, backed bool, opts options) (*Container, error) {
	root := blobstore.NewGroup(store, "")

	raw, err := root.ReadAll(ctx, ManifestName)
	if err != nil {
		return nil, serializationError(ManifestName, err)
	}
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, serializationError(ManifestName, err)
	}
	if m.Version != manifestVersion {
		return nil, serializationError(ManifestName, fmt.Errorf("unsupported manifest version: %d", m.Version))
	}
	switch m.Join {
	case JoinUnion.String():
		opts.join = JoinUnion
	case JoinIntersection.String():
		opts.join = JoinIntersection
	default:
		return nil, serializationError(ManifestName, fmt.Errorf("unknown join mode: %q", m.Join))
	}

	c := &Container{
		opts:   opts,
		mods:   make(map[string]modality.Modality, len(m.Modalities)),
		logger: opts.logger,
	}

	if c.obs, err = readAxis(ctx, root, obsIndexBlob, obsMembershipBlob, obsAnnotBlob); err != nil {
		return nil, err
	}
	if c.vars, err = readAxis(ctx, root, varIndexBlob, varMembershipBlob, varAnnotBlob); err != nil {
		return nil, err
	}

	var b *backing
	if backed {
		b = &backing{store: store}
		c.backing = b
	}

	for _, mm := range m.Modalities {
		g := root.Child(path.Join(modPrefix, mm.Name))

		var mod modality.Modality
		if backed {
			mod, err = newBackedModality(ctx, mm.Name, mm.Format, g, b)
		} else {
			mod, err = modality.Read(ctx, g, mm.Format)
		}
		if err != nil {
			return nil, serializationError(g.Path(), err)
		}

		c.names = append(c.names, mm.Name)
		c.mods[mm.Name] = mod
	}

	c.state = StateConsistent
	return c, nil
}

func readAxis(ctx context.Context, root *blobstore.Group, indexBlob, membershipBlob, annotBlob string) (axisState, error) {
	var st axisState

	ix, err := readIndexBlob(ctx, root, indexBlob)
	if err != nil {
		return st, err
	}
	mm, err := readMembershipBlob(ctx, root, membershipBlob)
	if err != nil {
		return st, err
	}
	frame, err := readAnnotBlob(ctx, root, annotBlob)
	if err != nil {
		return st, err
	}

	return axisState{index: ix, membership: mm, annot: frame}, nil
}

func readIndexBlob(ctx context.Context, root *blobstore.Group, name string) (*index.Index, error) {
	raw, err := root.ReadAll(ctx, name)
	if err != nil {
		return nil, serializationError(name, err)
	}
	r, err := persistence.NewReader(raw)
	if err != nil {
		return nil, serializationError(name, err)
	}
	if err := r.ReadHeader(persistence.KindIndex); err != nil {
		return nil, serializationError(name, err)
	}
	names, err := r.ReadStringSlice()
	if err != nil {
		return nil, serializationError(name, err)
	}
	ix, err := index.New(names)
	if err != nil {
		return nil, serializationError(name, err)
	}
	return ix, nil
}

func readMembershipBlob(ctx context.Context, root *blobstore.Group, name string) (*membership.Matrix, error) {
	raw, err := root.ReadAll(ctx, name)
	if err != nil {
		return nil, serializationError(name, err)
	}
	r, err := persistence.NewReader(raw)
	if err != nil {
		return nil, serializationError(name, err)
	}
	if err := r.ReadHeader(persistence.KindMembership); err != nil {
		return nil, serializationError(name, err)
	}

	length, err := r.ReadUint64()
	if err != nil {
		return nil, serializationError(name, err)
	}
	cols, err := r.ReadStringSlice()
	if err != nil {
		return nil, serializationError(name, err)
	}

	m := membership.Empty(int(length))
	for _, col := range cols {
		blob, err := r.ReadBytes()
		if err != nil {
			return nil, serializationError(name, err)
		}
		bits, err := membership.UnmarshalColumn(blob)
		if err != nil {
			return nil, serializationError(name, err)
		}
		if err := m.AppendColumn(col, bits); err != nil {
			return nil, serializationError(name, err)
		}
	}
	return m, nil
}

func readAnnotBlob(ctx context.Context, root *blobstore.Group, name string) (*annot.Frame, error) {
	raw, err := root.ReadAll(ctx, name)
	if err != nil {
		return nil, serializationError(name, err)
	}
	r, err := persistence.NewReader(raw)
	if err != nil {
		return nil, serializationError(name, err)
	}
	if err := r.ReadHeader(persistence.KindAnnot); err != nil {
		return nil, serializationError(name, err)
	}
	frame, err := persistence.ReadFrame(r)
	if err != nil {
		return nil, serializationError(name, err)
	}
	return frame, nil
}
