package mudgo

import (
	"bytes"
	"context"
	"encoding/json"
	"path"

	"github.com/hupe1980/mudgo/annot"
	"github.com/hupe1980/mudgo/blobstore"
	"github.com/hupe1980/mudgo/membership"
	"github.com/hupe1980/mudgo/modality"
	"github.com/hupe1980/mudgo/persistence"
)

// ManifestName is the root manifest blob. It is written last and acts as
// the validity marker: a destination without a readable manifest is not a
// container.
const ManifestName = "mudata.json"

const manifestVersion = 1

// Blob names of the root-level global sections.
const (
	obsIndexBlob      = "obs/index.bin"
	varIndexBlob      = "var/index.bin"
	obsMembershipBlob = "obs/membership.bin"
	varMembershipBlob = "var/membership.bin"
	obsAnnotBlob      = "obs/annot.bin"
	varAnnotBlob      = "var/annot.bin"
	modPrefix         = "mod"
)

type manifest struct {
	Version    int                `json:"version"`
	Join       string             `json:"join"`
	Modalities []manifestModality `json:"modalities"`
}

type manifestModality struct {
	Name   string `json:"name"`
	Format string `json:"format"`
}

// Local opens (or creates) a local directory as a container store.
func Local(dir string) (blobstore.BlobStore, error) {
	return blobstore.NewLocalStore(dir)
}

// Save serializes the whole container into the store: global annotation
// frames and membership matrices at the root, one child group per modality
// in registry order, each written by the modality's own writer, and the
// manifest last.
//
// Save has no partial-success contract: on error the destination is
// undefined and must be treated as invalid (the manifest is removed first,
// so a readable manifest implies a complete write).
func Save(ctx context.Context, c *Container, store blobstore.BlobStore) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	err := save(ctx, c, store)
	c.logger.LogSave(ctx, len(c.names), err)
	return err
}

func save(ctx context.Context, c *Container, store blobstore.BlobStore) error {
	root := blobstore.NewGroup(store, "")

	// The destination may be the very store a backed modality lazy-loads
	// from. Make every payload resident before deleting anything there.
	for _, name := range c.names {
		mod := c.mods[name]
		if !mod.IsBacked() {
			continue
		}
		mat, ok := mod.(modality.Materializer)
		if !ok {
			continue
		}
		if _, err := mat.Materialize(ctx); err != nil {
			return serializationError(path.Join(modPrefix, name), err)
		}
	}

	// Invalidate any previous container at the destination before touching
	// the rest of the tree.
	if err := root.Delete(ctx, ManifestName); err != nil {
		return serializationError(ManifestName, err)
	}

	ct := c.opts.compression

	if err := writeIndexBlob(ctx, root, obsIndexBlob, c.obs.index.Names(), ct); err != nil {
		return err
	}
	if err := writeIndexBlob(ctx, root, varIndexBlob, c.vars.index.Names(), ct); err != nil {
		return err
	}
	if err := writeMembershipBlob(ctx, root, obsMembershipBlob, c.obs.membership, ct); err != nil {
		return err
	}
	if err := writeMembershipBlob(ctx, root, varMembershipBlob, c.vars.membership, ct); err != nil {
		return err
	}
	if err := writeAnnotBlob(ctx, root, obsAnnotBlob, c.obs.annot, ct); err != nil {
		return err
	}
	if err := writeAnnotBlob(ctx, root, varAnnotBlob, c.vars.annot, ct); err != nil {
		return err
	}

	// Clear the whole modality tree, not just the groups of currently
	// registered modalities: the destination may hold modalities that were
	// removed since the last save.
	if err := root.Child(modPrefix).Clear(ctx); err != nil {
		return serializationError(modPrefix, err)
	}

	m := manifest{
		Version: manifestVersion,
		Join:    c.opts.join.String(),
	}
	for _, name := range c.names {
		mod := c.mods[name]
		g := root.Child(path.Join(modPrefix, name))
		if err := mod.WriteTo(ctx, g); err != nil {
			return serializationError(g.Path(), err)
		}
		m.Modalities = append(m.Modalities, manifestModality{
			Name:   name,
			Format: mod.Format(),
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return serializationError(ManifestName, err)
	}
	if err := root.Put(ctx, ManifestName, data); err != nil {
		return serializationError(ManifestName, err)
	}
	return nil
}

func writeIndexBlob(ctx context.Context, root *blobstore.Group, name string, names []string, ct persistence.CompressionType) error {
	var buf bytes.Buffer
	w := persistence.NewWriter(&buf, ct)
	if err := w.WriteHeader(persistence.KindIndex); err != nil {
		return serializationError(name, err)
	}
	if err := w.WriteStringSlice(names); err != nil {
		return serializationError(name, err)
	}
	if err := w.Finish(); err != nil {
		return serializationError(name, err)
	}
	if err := root.Put(ctx, name, buf.Bytes()); err != nil {
		return serializationError(name, err)
	}
	return nil
}

func writeMembershipBlob(ctx context.Context, root *blobstore.Group, name string, m *membership.Matrix, ct persistence.CompressionType) error {
	var buf bytes.Buffer
	w := persistence.NewWriter(&buf, ct)
	if err := w.WriteHeader(persistence.KindMembership); err != nil {
		return serializationError(name, err)
	}
	if err := w.WriteUint64(uint64(m.Len())); err != nil {
		return serializationError(name, err)
	}
	cols := m.ColumnNames()
	if err := w.WriteStringSlice(cols); err != nil {
		return serializationError(name, err)
	}
	for j := range cols {
		raw, err := m.MarshalColumn(j)
		if err != nil {
			return serializationError(name, err)
		}
		if err := w.WriteBytes(raw); err != nil {
			return serializationError(name, err)
		}
	}
	if err := w.Finish(); err != nil {
		return serializationError(name, err)
	}
	if err := root.Put(ctx, name, buf.Bytes()); err != nil {
		return serializationError(name, err)
	}
	return nil
}

func writeAnnotBlob(ctx context.Context, root *blobstore.Group, name string, f *annot.Frame, ct persistence.CompressionType) error {
	var buf bytes.Buffer
	w := persistence.NewWriter(&buf, ct)
	if err := w.WriteHeader(persistence.KindAnnot); err != nil {
		return serializationError(name, err)
	}
	if err := persistence.WriteFrame(w, f); err != nil {
		return serializationError(name, err)
	}
	if err := w.Finish(); err != nil {
		return serializationError(name, err)
	}
	if err := root.Put(ctx, name, buf.Bytes()); err != nil {
		return serializationError(name, err)
	}
	return nil
}
