package mudgo

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/mudgo/annot"
	"github.com/hupe1980/mudgo/index"
	"github.com/hupe1980/mudgo/membership"
	"github.com/hupe1980/mudgo/modality"
)

// State is the container's synchronization state.
type State uint8

const (
	// StateConsistent means global indexes and membership reflect the
	// modality indexes as of the last Update/Intersect.
	StateConsistent State = iota
	// StateStale means the registry changed (or the caller marked the
	// container stale) since the last synchronization. Reads still return
	// the last-computed values.
	StateStale
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConsistent:
		return "consistent"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Mod pairs a registry name with a modality for construction.
type Mod struct {
	Name     string
	Modality modality.Modality
}

// axisState bundles everything the container derives per axis.
type axisState struct {
	index      *index.Index
	membership *membership.Matrix
	annot      *annot.Frame
}

// Container aligns multiple per-modality matrices into one multimodal
// object: a global observation/variable index, a boolean membership matrix
// per axis, and global annotation frames keyed by the global indexes.
//
// The container holds non-owning references to its modalities. Mutating a
// modality's shape or index externally is visible only after the next
// Update/Intersect; until then reads return the last-computed (possibly
// outdated) values. The container never detects this on its own — keeping
// it synchronized is the caller's responsibility.
//
// A Container is safe for concurrent readers, but synchronization passes
// and registry mutations must not race with external modality mutations;
// callers coordinate that, as the container cannot lock objects it does not
// own.
type Container struct {
	mu   sync.RWMutex
	opts options

	names []string
	mods  map[string]modality.Modality

	obs  axisState
	vars axisState

	state   State
	backing *backing
	closed  bool

	logger *Logger
}

// New builds a container from an ordered list of named modalities and runs
// the first synchronization pass. Registry order follows the slice order.
func New(ctx context.Context, mods []Mod, optFns ...Option) (*Container, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Container{
		opts:   opts,
		mods:   make(map[string]modality.Modality, len(mods)),
		obs:    axisState{index: index.Empty(), membership: membership.Empty(0), annot: annot.NewFrame(0)},
		vars:   axisState{index: index.Empty(), membership: membership.Empty(0), annot: annot.NewFrame(0)},
		logger: opts.logger,
	}

	for _, m := range mods {
		if m.Modality == nil {
			return nil, fmt.Errorf("modality %q: %w", m.Name, ErrModalityNotFound)
		}
		if _, ok := c.mods[m.Name]; ok {
			return nil, fmt.Errorf("modality %q: %w", m.Name, ErrModalityExists)
		}
		c.names = append(c.names, m.Name)
		c.mods[m.Name] = m.Modality
	}

	if err := c.Update(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Join returns the configured indexing mode.
func (c *Container) Join() JoinMode {
	return c.opts.join
}

// State returns the current synchronization state.
func (c *Container) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// MarkStale records that a modality was mutated externally. Purely advisory:
// reads keep returning last-computed values either way.
func (c *Container) MarkStale() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateStale
}

// NumModalities returns the number of registered modalities.
func (c *Container) NumModalities() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// ModNames returns the registry names in order.
func (c *Container) ModNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Mod returns the named modality.
func (c *Container) Mod(name string) (modality.Modality, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.mods[name]
	return m, ok
}

// AddModality registers a new modality at the end of the registry and marks
// the container stale. Backed containers are read-only for structural
// operations.
func (c *Container) AddModality(name string, m modality.Modality) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.backing != nil {
		return &ErrReadOnlyModality{Modality: name, Op: "add modality to backed container"}
	}
	if _, ok := c.mods[name]; ok {
		return fmt.Errorf("modality %q: %w", name, ErrModalityExists)
	}

	c.names = append(c.names, name)
	c.mods[name] = m
	c.state = StateStale
	return nil
}

// RemoveModality unregisters a modality and marks the container stale. The
// modality object itself is untouched. Backed containers are read-only for
// structural operations.
func (c *Container) RemoveModality(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.backing != nil {
		return &ErrReadOnlyModality{Modality: name, Op: "remove modality from backed container"}
	}
	if _, ok := c.mods[name]; !ok {
		return fmt.Errorf("modality %q: %w", name, ErrModalityNotFound)
	}

	delete(c.mods, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			break
		}
	}
	c.state = StateStale
	return nil
}

// Index returns the last-computed global index for the axis.
func (c *Container) Index(axis Axis) *index.Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.axis(axis).index
}

// ObsNames returns the last-computed global observation index.
func (c *Container) ObsNames() []string {
	return c.Index(AxisObs).Names()
}

// VarNames returns the last-computed global variable index.
func (c *Container) VarNames() []string {
	return c.Index(AxisVar).Names()
}

// Shape returns the last-computed global (observations, variables) extent.
func (c *Container) Shape() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.obs.index.Len(), c.vars.index.Len()
}

// Membership returns the last-computed membership matrix for the axis.
func (c *Container) Membership(axis Axis) *membership.Matrix {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.axis(axis).membership
}

// Obs returns the global observation annotation frame. Edits are allowed at
// any time, including on backed containers.
func (c *Container) Obs() *annot.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.obs.annot
}

// Var returns the global variable annotation frame.
func (c *Container) Var() *annot.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vars.annot
}

func (c *Container) axis(axis Axis) *axisState {
	if axis == AxisVar {
		return &c.vars
	}
	return &c.obs
}

// Update recomputes the global indexes and membership matrices for both
// axes from the current modality state and reconciles the global annotation
// frames: entries for identifiers that vanished are dropped, new
// identifiers get default entries, ordering tracks the new global index.
// Idempotent when nothing changed in between.
func (c *Container) Update(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	err := c.updateLocked()
	c.logger.LogUpdate(ctx, c.obs.index.Len(), c.vars.index.Len(), len(c.names), err)
	return err
}

func (c *Container) updateLocked() error {
	type axisNames struct {
		axis Axis
		get  func(modality.Modality) []string
		st   *axisState
	}

	for _, ax := range []axisNames{
		{AxisObs, modality.Modality.ObsNames, &c.obs},
		{AxisVar, modality.Modality.VarNames, &c.vars},
	} {
		sources := make([]membership.Source, 0, len(c.names))
		lists := make([][]string, 0, len(c.names))
		for _, name := range c.names {
			names := ax.get(c.mods[name])
			if dups := index.Duplicates(names); len(dups) > 0 {
				return &ErrDuplicateIndex{Modality: name, Axis: ax.axis, Names: dups}
			}
			sources = append(sources, membership.Source{Name: name, Names: names})
			lists = append(lists, names)
		}

		var global *index.Index
		if c.opts.join == JoinIntersection {
			global = index.Intersection(lists...)
		} else {
			global = index.Union(lists...)
		}

		// Annotation rows follow identifiers, not positions.
		mapping := make([]int, global.Len())
		for i := 0; i < global.Len(); i++ {
			if j, ok := ax.st.index.Lookup(global.Name(i)); ok {
				mapping[i] = j
			} else {
				mapping[i] = -1
			}
		}
		ax.st.annot.Reindex(mapping)

		ax.st.index = global
		ax.st.membership = membership.Build(global, sources)
	}

	c.state = StateConsistent
	return nil
}

// Intersect restricts every modality in place to the identifiers common to
// all modalities on the given axis, preserving each modality's own order,
// then runs Update.
//
// Intersect is not transactional: if a modality's Filter fails (for example
// a backed modality that was not materialized), the error is returned
// immediately and modalities processed earlier stay filtered. Callers
// needing to recover must inspect the registry themselves.
func (c *Container) Intersect(ctx context.Context, axis Axis) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	err := c.intersectLocked(ctx, axis)
	c.logger.LogIntersect(ctx, axis, c.axis(axis).index.Len(), err)
	return err
}

func (c *Container) intersectLocked(ctx context.Context, axis Axis) error {
	get := modality.Modality.ObsNames
	if axis == AxisVar {
		get = modality.Modality.VarNames
	}

	lists := make([][]string, 0, len(c.names))
	for _, name := range c.names {
		names := get(c.mods[name])
		if dups := index.Duplicates(names); len(dups) > 0 {
			return &ErrDuplicateIndex{Modality: name, Axis: axis, Names: dups}
		}
		lists = append(lists, names)
	}
	common := index.Intersection(lists...)

	sel := modality.ByNames(common.Names()...)
	c.state = StateStale
	for _, name := range c.names {
		if err := c.mods[name].Filter(ctx, axis, sel); err != nil {
			return translateModalityError(err, name, "intersect "+axis.String())
		}
	}

	return c.updateLocked()
}

// Materialize converts a backed modality into a fully in-memory one,
// replacing the registry entry. Materializing a modality that is already in
// memory is a no-op.
func (c *Container) Materialize(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	m, ok := c.mods[name]
	if !ok {
		return fmt.Errorf("modality %q: %w", name, ErrModalityNotFound)
	}

	mat, ok := m.(modality.Materializer)
	if !ok || !m.IsBacked() {
		return nil
	}

	loaded, err := mat.Materialize(ctx)
	c.logger.LogMaterialize(ctx, name, err)
	if err != nil {
		return serializationError(name, err)
	}
	c.mods[name] = loaded
	return nil
}

// IsBacked reports whether the container was opened in backed mode and not
// yet closed.
func (c *Container) IsBacked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backing != nil
}

// Close releases the backing store handle of a backed container. Closing a
// non-backed container is a no-op. Close is idempotent; after Close, lazy
// loads and synchronization passes fail with ErrClosed.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.backing != nil {
		c.backing.close()
	}
	return nil
}

// ModalityInfo is a read-only summary of one registered modality.
type ModalityInfo struct {
	Name   string
	Shape  modality.Shape
	Backed bool
}

// SnapshotInfo is a read-only summary of the container's structure for
// presentation layers. It never exposes internal mutable state.
type SnapshotInfo struct {
	NumObs      int
	NumVars     int
	Join        JoinMode
	State       State
	Backed      bool
	Modalities  []ModalityInfo
	ObsColumns  []string
	VarColumns  []string
	ObsMatrices []string
	VarMatrices []string
	ObsPairwise []string
	VarPairwise []string
}

// Snapshot captures the current structure of the container.
func (c *Container) Snapshot() SnapshotInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := SnapshotInfo{
		NumObs:      c.obs.index.Len(),
		NumVars:     c.vars.index.Len(),
		Join:        c.opts.join,
		State:       c.state,
		Backed:      c.backing != nil,
		ObsColumns:  c.obs.annot.Table().ColumnNames(),
		VarColumns:  c.vars.annot.Table().ColumnNames(),
		ObsMatrices: c.obs.annot.MatrixNames(),
		VarMatrices: c.vars.annot.MatrixNames(),
		ObsPairwise: c.obs.annot.PairwiseNames(),
		VarPairwise: c.vars.annot.PairwiseNames(),
	}
	for _, name := range c.names {
		m := c.mods[name]
		info.Modalities = append(info.Modalities, ModalityInfo{
			Name:   name,
			Shape:  m.Shape(),
			Backed: m.IsBacked(),
		})
	}
	return info
}
