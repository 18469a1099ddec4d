// Package reconcile stamps per-record mode flags on nested collections
// before they are sent to the transactional backend.
package reconcile

import (
	"reflect"

	"tripconsole/internal/domain"
)

// Record is an item of a nested collection with a single declared identity.
// Identity returns ok=false when the record has no usable key yet.
type Record[K comparable, T any] interface {
	Identity() (K, bool)
	WithMode(domain.ModeFlag) T
}

// Pass decides the flag stamped on records present on both sides.
type Pass int

const (
	// PassRefresh marks matched records NoChange.
	PassRefresh Pass = iota
	// PassRevision marks matched records Update.
	PassRevision
)

func (p Pass) matched() domain.ModeFlag {
	if p == PassRevision {
		return domain.ModeUpdate
	}
	return domain.ModeNoChange
}

func (p Pass) String() string {
	if p == PassRevision {
		return "revision"
	}
	return "refresh"
}

// Reconcile merges the incoming collection into the existing one:
//
//   - existing and incoming: merged, stamped by pass
//   - existing only: Delete
//   - incoming only, or incoming without identity: Insert
//
// Existing records keep their order; inserts follow in incoming order.
// Duplicate identities collapse last-write-wins. Existing records without
// identity cannot be matched and ride along unchanged as NoChange.
func Reconcile[K comparable, T Record[K, T]](existing, incoming []T, pass Pass) []T {
	return ReconcileWith[K, T](existing, incoming, pass, Merge[T])
}

// ReconcileWith is Reconcile with a caller-chosen merge for matched
// records. Use Replace when incoming rows are complete records whose
// cleared fields must stay cleared.
func ReconcileWith[K comparable, T Record[K, T]](existing, incoming []T, pass Pass, merge func(base, patch T) T) []T {
	incomingByID := make(map[K]T, len(incoming))
	for _, r := range incoming {
		if id, ok := r.Identity(); ok {
			incomingByID[id] = r
		}
	}

	type slot struct {
		id      K
		keyless *T
	}
	existingByID := make(map[K]T, len(existing))
	order := make([]slot, 0, len(existing))
	for i, r := range existing {
		id, ok := r.Identity()
		if !ok {
			order = append(order, slot{keyless: &existing[i]})
			continue
		}
		if _, seen := existingByID[id]; !seen {
			order = append(order, slot{id: id})
		}
		existingByID[id] = r
	}

	out := make([]T, 0, len(order)+len(incoming))
	for _, s := range order {
		if s.keyless != nil {
			out = append(out, (*s.keyless).WithMode(domain.ModeNoChange))
			continue
		}
		id := s.id
		cur := existingByID[id]
		if in, ok := incomingByID[id]; ok {
			out = append(out, merge(cur, in).WithMode(pass.matched()))
			continue
		}
		out = append(out, cur.WithMode(domain.ModeDelete))
	}

	emitted := make(map[K]struct{}, len(incomingByID))
	for _, r := range incoming {
		id, ok := r.Identity()
		if !ok {
			out = append(out, r.WithMode(domain.ModeInsert))
			continue
		}
		if _, exists := existingByID[id]; exists {
			continue
		}
		if _, done := emitted[id]; done {
			continue
		}
		emitted[id] = struct{}{}
		out = append(out, incomingByID[id].WithMode(domain.ModeInsert))
	}
	return out
}

// Collisions lists identities that occur more than once in records, in
// order of their second occurrence.
func Collisions[K comparable, T Record[K, T]](records []T) []K {
	seen := make(map[K]int, len(records))
	var dup []K
	for _, r := range records {
		id, ok := r.Identity()
		if !ok {
			continue
		}
		seen[id]++
		if seen[id] == 2 {
			dup = append(dup, id)
		}
	}
	return dup
}

// Merge returns base with every non-zero exported field of patch copied
// over it. Map fields are merged key by key. Non-struct values are
// replaced by patch.
func Merge[T any](base, patch T) T {
	out := base
	dst := reflect.ValueOf(&out).Elem()
	if dst.Kind() != reflect.Struct {
		return patch
	}
	src := reflect.ValueOf(patch)
	for i := 0; i < src.NumField(); i++ {
		field := dst.Field(i)
		if !field.CanSet() {
			continue
		}
		v := src.Field(i)
		if v.IsZero() {
			continue
		}
		if v.Kind() == reflect.Map && !field.IsNil() {
			field.Set(mergeMaps(field, v))
			continue
		}
		field.Set(v)
	}
	return out
}

func mergeMaps(base, patch reflect.Value) reflect.Value {
	out := reflect.MakeMapWithSize(base.Type(), base.Len()+patch.Len())
	for _, m := range []reflect.Value{base, patch} {
		iter := m.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
	}
	return out
}

// Replace keeps patch as is.
func Replace[T any](_, patch T) T { return patch }
