// Package metadata describes the filterable kinds to clients: the shape of
// their records and the request parameters their listings understand.
package metadata

import (
	"slices"

	"resido/internal/domain/filter"
)

// FieldType is the data type of a record field as clients see it.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeInteger   FieldType = "integer"
	TypeNumber    FieldType = "number"
	TypeBoolean   FieldType = "boolean"
	TypeDate      FieldType = "date"
	TypeReference FieldType = "reference"
	TypeMoney     FieldType = "money"
	TypeList      FieldType = "list"
	TypeObject    FieldType = "object"
)

// FieldDef describes one record field.
type FieldDef struct {
	Name          string    `json:"name"`
	Type          FieldType `json:"type"`
	ReferenceType string    `json:"referenceType,omitempty"` // e.g. "floor" for floorId
	ReadOnly      bool      `json:"readOnly,omitempty"`
}

// FilterDef describes one filterable field and the parameters that reach it.
type FilterDef struct {
	Field    string   `json:"field"`
	Op       string   `json:"op"`
	Type     string   `json:"type"`
	Params   []string `json:"params"`
	Relation string   `json:"relation,omitempty"`
	NoSplit  bool     `json:"noSplit,omitempty"`
}

// EntityDef describes a filterable kind.
type EntityDef struct {
	Name        string      `json:"name"`
	Fields      []FieldDef  `json:"fields"`
	Filters     []FilterDef `json:"filters"`
	Search      []string    `json:"search"`
	Sortable    []string    `json:"sortable"`
	DefaultSort string      `json:"defaultSort"`
}

// Registry stores entity definitions. It is filled once at startup and read-only afterwards.
type Registry struct {
	entities map[string]EntityDef
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]EntityDef),
	}
}

// FromFilters describes every kind of reg. samples supplies a zero record per kind
// for the field listing; kinds without a sample are published with filters only.
func FromFilters(reg *filter.Registry, samples map[filter.Kind]any) (*Registry, error) {
	out := NewRegistry()
	for _, kind := range reg.Kinds() {
		spec, err := reg.SpecFor(kind)
		if err != nil {
			return nil, err
		}
		out.Register(Describe(spec, samples[kind]))
	}
	return out, nil
}

func (r *Registry) Register(def EntityDef) {
	r.entities[def.Name] = def
}

func (r *Registry) Get(name string) (EntityDef, bool) {
	d, ok := r.entities[name]
	return d, ok
}

// List returns the definitions ordered by name.
func (r *Registry) List() []EntityDef {
	list := make([]EntityDef, 0, len(r.entities))
	for _, def := range r.entities {
		list = append(list, def)
	}
	slices.SortFunc(list, func(a, b EntityDef) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return list
}
