// Package mudgo provides an embedded multimodal data container for Go.
//
// Mudgo aligns multiple annotated matrices (modalities) that share
// observations and variables only partially: it derives global
// observation/variable indexes across all modalities, tracks per-modality
// membership in compressed bitmaps, and persists the whole object as a
// hierarchical blob layout with optional lazy loading.
//
// # Quick Start
//
// Build and synchronize:
//
//	ctx := context.Background()
//	rna, _ := modality.NewDense(cellNames, geneNames, counts)
//	atac, _ := modality.NewDense(cellNames2, peakNames, signal)
//	mu, _ := mudgo.New(ctx, []mudgo.Mod{
//	    {Name: "rna", Modality: rna},
//	    {Name: "atac", Modality: atac},
//	})
//	nObs, nVars := mu.Shape() // union of both modalities
//
// Persist and reload:
//
//	store, _ := mudgo.Local("./data")
//	_ = mudgo.Save(ctx, mu, store)
//	mu2, _ := mudgo.Open(ctx, store)
//
// Cloud mode:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("mudata/"))
//	_ = mudgo.Save(ctx, mu, s3Store)
//
// # Synchronization Model
//
// The container never owns modality data. After mutating a modality's shape
// or index, run Update to recompute the global indexes, membership matrices,
// and annotation alignment:
//
//	rna.Filter(ctx, modality.AxisObs, modality.ByNames(keep...))
//	_ = mu.Update(ctx)
//
// Intersect restricts every modality in place to the identifiers common to
// all of them on one axis, then updates:
//
//	_ = mu.Intersect(ctx, mudgo.AxisObs)
//
// Between a modality mutation and the next Update the container is stale:
// reads keep returning the last-computed values, and State reports the gap
// only when the mutation went through the container itself (or MarkStale).
//
// # Backed Mode
//
// Open with WithBacked to defer modality payloads to the store. Indexes,
// membership, and global annotations load eagerly; a modality's payload
// loads on first use. Backed modalities are read-only for filtering until
// materialized:
//
//	mu, _ := mudgo.Open(ctx, store, mudgo.WithBacked())
//	defer mu.Close()
//	_ = mu.Materialize(ctx, "rna")
//	_ = mu.Intersect(ctx, mudgo.AxisObs) // fails unless all materialized
//
// # Key Features
//
//   - Union or intersection global indexing, deterministic first-seen order
//   - Roaring-bitmap membership matrices per axis
//   - Global and per-modality annotation frames (columns, matrices, pairwise)
//   - Checksummed binary persistence with LZ4/ZSTD block compression
//   - Cloud-native storage (S3/MinIO via BlobStore)
//   - Backed mode with lazy, deduplicated modality loading
package mudgo
