// Package index maintains ordered, unique identifier sequences and derives
// global indexes from per-modality ones.
//
// A global index is either the union (default) or the intersection of all
// modality indexes on one axis. Union keeps first-seen order across sources
// in registry order; intersection keeps the union order, filtered to names
// present in every source.
package index

import (
	"fmt"
	"strings"
)

// ErrDuplicateNames indicates that a single index contains repeated
// identifiers. Indexes must be duplicate-free per source.
type ErrDuplicateNames struct {
	Names []string
}

func (e *ErrDuplicateNames) Error() string {
	return fmt.Sprintf("duplicate identifiers: %s", strings.Join(e.Names, ", "))
}

// Index is an ordered sequence of unique string identifiers with O(1)
// position lookup.
type Index struct {
	names []string
	pos   map[string]int
}

// New creates an Index from names. It fails with ErrDuplicateNames if any
// identifier repeats; each offender is reported once.
func New(names []string) (*Index, error) {
	if dups := Duplicates(names); len(dups) > 0 {
		return nil, &ErrDuplicateNames{Names: dups}
	}

	ix := &Index{
		names: make([]string, len(names)),
		pos:   make(map[string]int, len(names)),
	}
	copy(ix.names, names)
	for i, name := range names {
		ix.pos[name] = i
	}
	return ix, nil
}

// Empty returns an Index with no entries.
func Empty() *Index {
	return &Index{pos: make(map[string]int)}
}

// Len returns the number of identifiers.
func (ix *Index) Len() int {
	return len(ix.names)
}

// Names returns a copy of the identifiers in order.
func (ix *Index) Names() []string {
	out := make([]string, len(ix.names))
	copy(out, ix.names)
	return out
}

// Name returns the identifier at position i.
func (ix *Index) Name(i int) string {
	return ix.names[i]
}

// Lookup returns the position of name and whether it is present.
func (ix *Index) Lookup(name string) (int, bool) {
	i, ok := ix.pos[name]
	return i, ok
}

// Contains reports whether name is present.
func (ix *Index) Contains(name string) bool {
	_, ok := ix.pos[name]
	return ok
}

// Equal reports whether two indexes hold the same identifiers in the same
// order.
func (ix *Index) Equal(other *Index) bool {
	if ix.Len() != other.Len() {
		return false
	}
	for i, name := range ix.names {
		if other.names[i] != name {
			return false
		}
	}
	return true
}

// Duplicates returns the identifiers that occur more than once in names, in
// first-occurrence order. Each offender is reported once.
func Duplicates(names []string) []string {
	seen := make(map[string]int, len(names))
	var dups []string
	for _, name := range names {
		seen[name]++
		if seen[name] == 2 {
			dups = append(dups, name)
		}
	}
	return dups
}

// Union derives the global index as the order-preserving de-duplicated
// concatenation of sources. Sources are assumed duplicate-free individually;
// repeats across sources collapse to the first occurrence.
func Union(sources ...[]string) *Index {
	ix := Empty()
	for _, src := range sources {
		for _, name := range src {
			if _, ok := ix.pos[name]; ok {
				continue
			}
			ix.pos[name] = len(ix.names)
			ix.names = append(ix.names, name)
		}
	}
	return ix
}

// Intersection derives the global index restricted to identifiers present in
// every source. Order follows the union computation. With no sources the
// result is empty.
func Intersection(sources ...[]string) *Index {
	if len(sources) == 0 {
		return Empty()
	}

	counts := make(map[string]int)
	for _, src := range sources {
		for _, name := range src {
			counts[name]++
		}
	}

	union := Union(sources...)
	ix := Empty()
	for _, name := range union.names {
		if counts[name] != len(sources) {
			continue
		}
		ix.pos[name] = len(ix.names)
		ix.names = append(ix.names, name)
	}
	return ix
}
