// Package modality defines the contract a per-modality annotated matrix has
// to satisfy to participate in a multimodal container, and provides Dense,
// the in-memory reference implementation.
//
// The container never owns modality data: it reads indexes and shapes,
// delegates in-place filtering, and triggers the modality's own group
// serialization.
package modality

import (
	"context"
	"fmt"

	"github.com/hupe1980/mudgo/blobstore"
)

// Axis selects one of the two data axes.
type Axis uint8

const (
	// AxisObs is the observation (row) axis.
	AxisObs Axis = iota
	// AxisVar is the variable (column) axis.
	AxisVar
)

// String returns the axis name.
func (a Axis) String() string {
	switch a {
	case AxisObs:
		return "obs"
	case AxisVar:
		return "var"
	default:
		return "unknown"
	}
}

// ErrReadOnly indicates a structural mutation against a modality that
// cannot be mutated in place (e.g. backed without prior materialization).
type ErrReadOnly struct {
	Op string
}

func (e *ErrReadOnly) Error() string {
	return fmt.Sprintf("modality is read-only: %s", e.Op)
}

// Selector selects identifiers along one axis, either by name or by a
// boolean mask over the current index. Exactly one field must be set.
type Selector struct {
	Names []string
	Mask  []bool
}

// ByNames selects the given identifiers. Order of the surviving entries
// follows the modality's own index, not the selector. With no arguments the
// selector matches nothing (distinct from the invalid zero-value Selector).
func ByNames(names ...string) Selector {
	if names == nil {
		names = []string{}
	}
	return Selector{Names: names}
}

// ByMask selects entries where the mask is true. The mask length must equal
// the current axis length.
func ByMask(mask []bool) Selector {
	return Selector{Mask: mask}
}

// Apply resolves the selector against the current axis index and returns
// the kept positions in ascending order.
func (s Selector) Apply(current []string) ([]int, error) {
	if (s.Names == nil) == (s.Mask == nil) {
		return nil, fmt.Errorf("modality: selector must set exactly one of Names or Mask")
	}

	if s.Mask != nil {
		if len(s.Mask) != len(current) {
			return nil, fmt.Errorf("modality: mask has %d entries, axis has %d", len(s.Mask), len(current))
		}
		var keep []int
		for i, ok := range s.Mask {
			if ok {
				keep = append(keep, i)
			}
		}
		return keep, nil
	}

	want := make(map[string]struct{}, len(s.Names))
	for _, name := range s.Names {
		want[name] = struct{}{}
	}
	var keep []int
	for i, name := range current {
		if _, ok := want[name]; ok {
			keep = append(keep, i)
		}
	}
	return keep, nil
}

// Shape is the (observations, variables) extent of a modality.
type Shape struct {
	Obs  int
	Vars int
}

// Modality is the per-modality matrix collaborator consumed by the
// container.
type Modality interface {
	// Format returns the registered format name used to decode the
	// modality's serialized form.
	Format() string
	// ObsNames returns the ordered observation index. Must be duplicate-free.
	ObsNames() []string
	// VarNames returns the ordered variable index. Must be duplicate-free.
	VarNames() []string
	// Shape returns the current extent.
	Shape() Shape
	// Filter restricts one axis in place to the selected identifiers,
	// preserving the relative order of survivors. Backed modalities fail
	// with ErrReadOnly until materialized.
	Filter(ctx context.Context, axis Axis, sel Selector) error
	// IsBacked reports whether the payload still lives on storage.
	IsBacked() bool
	// WriteTo serializes the modality's full self-describing form into the
	// given group.
	WriteTo(ctx context.Context, g *blobstore.Group) error
}

// Materializer is implemented by backed modalities that can be converted
// into a fully in-memory form.
type Materializer interface {
	// Materialize loads the payload and returns an in-memory modality.
	Materialize(ctx context.Context) (Modality, error)
}

// ReadFunc decodes a modality from its group.
type ReadFunc func(ctx context.Context, g *blobstore.Group) (Modality, error)

var formats = map[string]ReadFunc{}

// RegisterFormat registers a decoder under a stable format name. Format
// names are recorded in the container manifest.
func RegisterFormat(name string, fn ReadFunc) {
	formats[name] = fn
}

// Read decodes a modality group using the registered decoder for format.
func Read(ctx context.Context, g *blobstore.Group, format string) (Modality, error) {
	fn, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("modality: unknown format %q", format)
	}
	return fn(ctx, g)
}
