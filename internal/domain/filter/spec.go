package filter

import (
	"fmt"
	"strings"
)

// Kind identifies a category of filterable entity.
type Kind int

const (
	KindApartment Kind = iota + 1
	KindHouse
	KindBill
)

var kindNames = map[Kind]string{
	KindApartment: "apartment",
	KindHouse:     "house",
	KindBill:      "bill",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a kind by its name.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Op is the filter operation a field supports.
type Op int

const (
	OpRange        Op = iota + 1 // min/max bounds (or bare equality)
	OpMultiValue                 // equality or IN, comma shorthand
	OpExact                      // equality only
	OpJSONContains               // every listed value must be in the JSON array
	OpRelation                   // equality or IN on a related collection
)

func (o Op) String() string {
	switch o {
	case OpRange:
		return "range"
	case OpMultiValue:
		return "multi_value"
	case OpExact:
		return "exact"
	case OpJSONContains:
		return "json_contains"
	case OpRelation:
		return "relation"
	}
	return "unknown"
}

// ValueType is the type request values are coerced to before they reach the store.
type ValueType int

const (
	TypeString ValueType = iota
	TypeInt
	TypeDecimal
	TypeBool
	TypeUUID
	TypeDate
)

func (t ValueType) String() string {
	switch t {
	case TypeInt:
		return "integer"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "boolean"
	case TypeUUID:
		return "uuid"
	case TypeDate:
		return "date"
	}
	return "string"
}

// BoundStyle selects the parameter naming of range bounds.
type BoundStyle int

const (
	BoundsSnake BoundStyle = iota // min_price / max_price
	BoundsCamel                   // minPrice / maxPrice
	BoundsNone                    // bare price compiles to equality
)

// Field declares one filterable field.
type Field struct {
	// Name is the column, on the entity or on the related collection for OpRelation.
	Name string
	Op   Op
	Type ValueType

	// Param overrides the request parameter name.
	Param string

	// Bounds applies to OpRange only.
	Bounds BoundStyle

	// NoSplit disables the comma shorthand, for values that may contain commas.
	NoSplit bool

	// Relation is the dotted relation path for OpRelation.
	Relation string
}

// ParamName returns the request parameter this field reads.
// Relation fields default to <relation>_<field>, using the last hop of the path.
func (f Field) ParamName() string {
	if f.Param != "" {
		return f.Param
	}
	if f.Op == OpRelation {
		hops := strings.Split(f.Relation, ".")
		return hops[len(hops)-1] + "_" + f.Name
	}
	return f.Name
}

// BoundKeys returns the min and max parameter names, empty for BoundsNone.
func (f Field) BoundKeys() (string, string) {
	name := f.ParamName()
	switch f.Bounds {
	case BoundsCamel:
		camel := toCamel(name)
		return "min" + camel, "max" + camel
	case BoundsNone:
		return "", ""
	}
	return "min_" + name, "max_" + name
}

func toCamel(snake string) string {
	var b strings.Builder
	for _, part := range strings.Split(snake, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// SearchField is one member of a kind's search disjunction.
type SearchField struct {
	Relation string
	Field    string
}

// FieldSpec is the declarative table of what a kind can be filtered, searched and sorted by.
type FieldSpec struct {
	Kind Kind

	// Common fields compile first; Extension holds kind-specific fields layered after them.
	Common    []Field
	Extension []Field

	// Search is the ordered list of fields the search term is matched against.
	Search []SearchField

	Sortable    []string
	DefaultSort string

	// EagerLoads names the relations loaded alongside every result.
	EagerLoads []string
}

// Fields returns common and extension fields in compile order.
func (s FieldSpec) Fields() []Field {
	out := make([]Field, 0, len(s.Common)+len(s.Extension))
	out = append(out, s.Common...)
	return append(out, s.Extension...)
}

// CanSort reports whether field is in the sort allow-list.
func (s FieldSpec) CanSort(field string) bool {
	for _, f := range s.Sortable {
		if f == field {
			return true
		}
	}
	return false
}

// Validate checks the spec's invariants.
func (s FieldSpec) Validate() error {
	if _, ok := kindNames[s.Kind]; !ok {
		return fmt.Errorf("field spec: unknown kind %d", int(s.Kind))
	}

	columns := make(map[string]Op)
	params := make(map[string]bool)
	for _, f := range s.Fields() {
		if f.Name == "" {
			return fmt.Errorf("field spec %s: field without name", s.Kind)
		}
		if f.Op < OpRange || f.Op > OpRelation {
			return fmt.Errorf("field spec %s: field %q has no operation", s.Kind, f.Name)
		}
		if (f.Op == OpRelation) != (f.Relation != "") {
			return fmt.Errorf("field spec %s: field %q: relation path is required for, and only for, relation fields", s.Kind, f.Name)
		}

		key := f.Relation + "." + f.Name
		if prev, dup := columns[key]; dup {
			return fmt.Errorf("field spec %s: field %q declared as both %s and %s", s.Kind, f.Name, prev, f.Op)
		}
		columns[key] = f.Op

		param := f.ParamName()
		if params[param] {
			return fmt.Errorf("field spec %s: parameter %q read by two fields", s.Kind, param)
		}
		params[param] = true
	}

	for _, sf := range s.Search {
		if sf.Field == "" {
			return fmt.Errorf("field spec %s: search field without name", s.Kind)
		}
	}

	if len(s.Sortable) == 0 {
		return fmt.Errorf("field spec %s: no sortable fields", s.Kind)
	}
	if !s.CanSort(s.DefaultSort) {
		return fmt.Errorf("field spec %s: default sort %q is not sortable", s.Kind, s.DefaultSort)
	}
	return nil
}
