package filter

import (
	"fmt"
	"slices"
	"sort"

	"resido/internal/core/apperror"
)

// Registry holds the FieldSpec of every filterable kind.
// It is populated once at startup and read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	specs map[Kind]FieldSpec
	kinds []Kind
}

// NewRegistry validates and registers specs.
func NewRegistry(specs ...FieldSpec) (*Registry, error) {
	r := &Registry{specs: make(map[Kind]FieldSpec, len(specs))}
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.specs[s.Kind]; dup {
			return nil, fmt.Errorf("registry: kind %s registered twice", s.Kind)
		}
		r.specs[s.Kind] = cloneSpec(s)
		r.kinds = append(r.kinds, s.Kind)
	}
	sort.Slice(r.kinds, func(i, j int) bool { return r.kinds[i] < r.kinds[j] })
	return r, nil
}

// MustRegistry is NewRegistry that panics on invalid static declarations.
func MustRegistry(specs ...FieldSpec) *Registry {
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(err)
	}
	return r
}

// SpecFor returns the FieldSpec of kind.
func (r *Registry) SpecFor(kind Kind) (FieldSpec, error) {
	s, ok := r.specs[kind]
	if !ok {
		return FieldSpec{}, apperror.NewUnknownEntityKind(kind)
	}
	return cloneSpec(s), nil
}

// Kinds returns the registered kinds in ascending order.
func (r *Registry) Kinds() []Kind {
	return slices.Clone(r.kinds)
}

// CommonSortable returns the fields sortable on every given kind, in the first kind's order.
func (r *Registry) CommonSortable(kinds ...Kind) ([]string, error) {
	if len(kinds) == 0 {
		return nil, nil
	}
	first, err := r.SpecFor(kinds[0])
	if err != nil {
		return nil, err
	}
	common := slices.Clone(first.Sortable)
	for _, k := range kinds[1:] {
		s, err := r.SpecFor(k)
		if err != nil {
			return nil, err
		}
		common = slices.DeleteFunc(common, func(f string) bool { return !s.CanSort(f) })
	}
	return common, nil
}

func cloneSpec(s FieldSpec) FieldSpec {
	s.Common = slices.Clone(s.Common)
	s.Extension = slices.Clone(s.Extension)
	s.Search = slices.Clone(s.Search)
	s.Sortable = slices.Clone(s.Sortable)
	s.EagerLoads = slices.Clone(s.EagerLoads)
	return s
}
