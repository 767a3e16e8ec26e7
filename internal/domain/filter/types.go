// Package filter compiles partially-trusted request parameters into
// store-independent query plans.
//
// A plan is a Query value: an ordered list of conjoined Predicates, an optional
// search disjunction, a SortSpec and a Page. Plans own no connection or cursor;
// the storage layer translates them into SQL. Every field a plan may touch is
// declared up front in a FieldSpec, so request input can never name a column
// that was not whitelisted.
package filter

import "strings"

// Operator is the comparison applied by a Predicate.
type Operator string

const (
	Equal          Operator = "eq"            // field = value
	GreaterOrEqual Operator = "gte"           // field >= value
	LessOrEqual    Operator = "lte"           // field <= value
	InList         Operator = "in"            // field IN (values...)
	JSONContains   Operator = "json_contains" // JSON array column contains value
	Like           Operator = "like"          // substring match, only inside a search disjunction
)

// Predicate is one atomic filter condition.
//
// It is a tagged variant with three shapes:
//   - field predicate: Field, Operator, Value on the entity's own collection;
//   - relation predicate: as above, scoped to the related collection named by
//     Relation (a dotted path such as "floor.building"); matches when any
//     related record satisfies it;
//   - disjunction: Any holds field-LIKE-term pairs (possibly relation scoped),
//     at least one of which must hold.
type Predicate struct {
	Relation string
	Field    string
	Operator Operator
	Value    any

	// DateOnly compares the calendar date of a timestamp column.
	DateOnly bool

	Any []Predicate
}

// IsDisjunction reports whether p is a search disjunction.
func (p Predicate) IsDisjunction() bool {
	return len(p.Any) > 0
}

// IsRelation reports whether p is scoped to a related collection.
func (p Predicate) IsRelation() bool {
	return p.Relation != "" && !p.IsDisjunction()
}

// RelationPath splits the relation into its hops.
func (p Predicate) RelationPath() []string {
	if p.Relation == "" {
		return nil
	}
	return strings.Split(p.Relation, ".")
}

// Query is the complete, side-effect-free description of what to fetch for one entity kind.
type Query struct {
	Kind       Kind
	Predicates []Predicate
	Search     *Predicate
	Sort       SortSpec
	Page       Page
}

// Conditions returns every predicate to conjoin, search last.
func (q Query) Conditions() []Predicate {
	all := make([]Predicate, 0, len(q.Predicates)+1)
	all = append(all, q.Predicates...)
	if q.Search != nil {
		all = append(all, *q.Search)
	}
	return all
}

// WithPage returns a copy of q with a different page.
func (q Query) WithPage(p Page) Query {
	q.Page = p
	return q
}
