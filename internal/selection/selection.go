// Package selection tracks the rows an operator picked in a paginated
// picker, across checkbox, row click, select-all and the calendar view.
package selection

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange = errors.New("selection: row index outside current page")
	ErrNoIdentity      = errors.New("selection: row has no identity")
	ErrRowMismatch     = errors.New("selection: row does not match page index")
)

// Mode is declared per picker.
type Mode int

const (
	Multi Mode = iota
	Single
)

// View is the three parallel views of one selection. Indices refer to the
// current page only.
type View[K comparable, T any] struct {
	Indices []int `json:"indices"`
	IDs     []K   `json:"ids"`
	Objects []T   `json:"objects"`
}

// Selection is not safe for concurrent use; the owning picker session
// serializes access.
type Selection[K comparable, T any] struct {
	mode    Mode
	key     func(T) (K, bool)
	page    []T
	ids     []K
	objects []T
	indices map[K]int
}

func New[K comparable, T any](mode Mode, key func(T) (K, bool)) *Selection[K, T] {
	return &Selection[K, T]{mode: mode, key: key, indices: map[K]int{}}
}

func (s *Selection[K, T]) Mode() Mode { return s.mode }

func (s *Selection[K, T]) Len() int { return len(s.ids) }

func (s *Selection[K, T]) Has(id K) bool {
	return s.position(id) >= 0
}

// Objects returns a copy of the selected rows in selection order.
func (s *Selection[K, T]) Objects() []T {
	return append([]T(nil), s.objects...)
}

// Page returns a copy of the current page rows.
func (s *Selection[K, T]) Page() []T {
	return append([]T(nil), s.page...)
}

// SetPage replaces the rendered page. Selected rows on other pages stay
// selected but lose their index.
func (s *Selection[K, T]) SetPage(rows []T) {
	s.page = append([]T(nil), rows...)
	s.reindex()
}

// Seed replaces the selection with objects, typically the records already
// assigned to the trip.
func (s *Selection[K, T]) Seed(objects []T) {
	s.clear()
	for _, o := range objects {
		id, ok := s.key(o)
		if !ok || s.Has(id) {
			continue
		}
		s.add(id, o)
		if s.mode == Single {
			break
		}
	}
	s.reindex()
}

// Toggle flips row. index is its position on the current page, or -1 for a
// row rendered outside the page (e.g. a selected-items chip).
func (s *Selection[K, T]) Toggle(row T, index int) error {
	id, ok := s.key(row)
	if !ok {
		return ErrNoIdentity
	}
	if index >= 0 {
		if index >= len(s.page) {
			return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(s.page))
		}
		if pid, ok := s.key(s.page[index]); !ok || pid != id {
			return ErrRowMismatch
		}
	}

	selected := s.Has(id)
	switch s.mode {
	case Single:
		s.clear()
		if !selected {
			s.add(id, row)
		}
	default:
		if selected {
			s.remove(id)
		} else {
			s.add(id, row)
		}
	}
	s.reindex()
	return nil
}

// SelectAll(true) selects exactly the rows of the current page; it never
// reaches pages the operator has not seen. SelectAll(false) clears. Single
// pickers ignore SelectAll(true).
func (s *Selection[K, T]) SelectAll(on bool) {
	if on && s.mode == Single {
		return
	}
	s.clear()
	if on {
		for _, row := range s.page {
			id, ok := s.key(row)
			if !ok || s.Has(id) {
				continue
			}
			s.add(id, row)
		}
	}
	s.reindex()
}

// SetFromExternalIDs replaces the selection with ids coming from another
// view. Each id resolves to the current page row, else the previously
// selected row, else shim(id). Ids nothing can resolve are dropped.
func (s *Selection[K, T]) SetFromExternalIDs(ids []K, shim func(K) (T, bool)) {
	prevIDs, prevObjects := s.ids, s.objects
	lookupPrev := func(id K) (T, bool) {
		for i, p := range prevIDs {
			if p == id {
				return prevObjects[i], true
			}
		}
		var zero T
		return zero, false
	}

	s.ids, s.objects = nil, nil
	for _, id := range ids {
		if s.Has(id) {
			continue
		}
		if row, ok := s.pageRow(id); ok {
			s.add(id, row)
		} else if row, ok := lookupPrev(id); ok {
			s.add(id, row)
		} else if shim != nil {
			if row, ok := shim(id); ok {
				s.add(id, row)
			}
		}
		if s.mode == Single && len(s.ids) == 1 {
			break
		}
	}
	s.reindex()
}

func (s *Selection[K, T]) View() View[K, T] {
	v := View[K, T]{
		Indices: []int{},
		IDs:     append([]K{}, s.ids...),
		Objects: append([]T{}, s.objects...),
	}
	for i, row := range s.page {
		id, ok := s.key(row)
		if !ok {
			continue
		}
		if idx, hit := s.indices[id]; hit && idx == i {
			v.Indices = append(v.Indices, i)
		}
	}
	return v
}

func (s *Selection[K, T]) pageRow(id K) (T, bool) {
	for _, row := range s.page {
		if rid, ok := s.key(row); ok && rid == id {
			return row, true
		}
	}
	var zero T
	return zero, false
}

func (s *Selection[K, T]) position(id K) int {
	for i, cur := range s.ids {
		if cur == id {
			return i
		}
	}
	return -1
}

func (s *Selection[K, T]) add(id K, row T) {
	s.ids = append(s.ids, id)
	s.objects = append(s.objects, row)
}

func (s *Selection[K, T]) remove(id K) {
	i := s.position(id)
	if i < 0 {
		return
	}
	s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
	s.objects = append(s.objects[:i:i], s.objects[i+1:]...)
}

func (s *Selection[K, T]) clear() {
	s.ids, s.objects = nil, nil
}

// reindex rebuilds the page indices and verifies the three views agree.
func (s *Selection[K, T]) reindex() {
	s.indices = make(map[K]int, len(s.ids))
	for i, row := range s.page {
		id, ok := s.key(row)
		if !ok || !s.Has(id) {
			continue
		}
		if _, dup := s.indices[id]; dup {
			continue
		}
		s.indices[id] = i
	}
	s.check()
}

// check panics on disagreement between ids, objects and indices. A
// violation is a reconciliation bug, never an operator error.
func (s *Selection[K, T]) check() {
	if len(s.ids) != len(s.objects) {
		panic(fmt.Sprintf("selection: %d ids but %d objects", len(s.ids), len(s.objects)))
	}
	if s.mode == Single && len(s.ids) > 1 {
		panic(fmt.Sprintf("selection: single picker holds %d rows", len(s.ids)))
	}
	seen := make(map[K]struct{}, len(s.ids))
	for i, id := range s.ids {
		if _, dup := seen[id]; dup {
			panic(fmt.Sprintf("selection: id %v selected twice", id))
		}
		seen[id] = struct{}{}
		oid, ok := s.key(s.objects[i])
		if !ok || oid != id {
			panic(fmt.Sprintf("selection: object %d has identity %v, want %v", i, oid, id))
		}
	}
	for id, idx := range s.indices {
		if _, ok := seen[id]; !ok {
			panic(fmt.Sprintf("selection: index %d for unselected id %v", idx, id))
		}
		if idx < 0 || idx >= len(s.page) {
			panic(fmt.Sprintf("selection: index %d outside page", idx))
		}
		if pid, ok := s.key(s.page[idx]); !ok || pid != id {
			panic(fmt.Sprintf("selection: index %d points at %v, want %v", idx, pid, id))
		}
	}
}
