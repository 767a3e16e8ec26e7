package postgres

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/squirrel"

	"resido/internal/domain/filter"
)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Relation describes how a related table hangs off its parent:
// related.ForeignKey = parent.LocalKey.
type Relation struct {
	Table      string
	LocalKey   string
	ForeignKey string
}

// RelationGraph maps a table to its named relations.
type RelationGraph map[string]map[string]Relation

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Planner translates filter plans into SQL conditions on one root table.
//
// Own-column predicates become plain comparisons, relation predicates become
// correlated EXISTS sub-queries (a semi-join, so one-to-many relations never
// duplicate root rows) and the search disjunction becomes an OR of ILIKE terms.
type Planner struct {
	table   string
	columns map[string]bool
	graph   RelationGraph
}

// NewPlanner creates a planner for table. Only columns may be filtered or sorted on directly.
func NewPlanner(table string, columns []string, graph RelationGraph) *Planner {
	cols := make(map[string]bool, len(columns))
	for _, c := range columns {
		cols[c] = true
	}
	return &Planner{table: table, columns: cols, graph: graph}
}

// Table returns the root table.
func (p *Planner) Table() string {
	return p.table
}

// Where conjoins every predicate onto q.
func (p *Planner) Where(q squirrel.SelectBuilder, preds []filter.Predicate) (squirrel.SelectBuilder, error) {
	for _, pred := range preds {
		cond, err := p.condition(pred)
		if err != nil {
			return q, err
		}
		q = q.Where(cond)
	}
	return q, nil
}

// OrderBy applies the sort with the primary key as tie-break, keeping pages stable.
func (p *Planner) OrderBy(q squirrel.SelectBuilder, s filter.SortSpec) (squirrel.SelectBuilder, error) {
	if !p.columns[s.Field] {
		return q, fmt.Errorf("sort column %q is not a column of %s", s.Field, p.table)
	}
	q = q.OrderBy(p.qualify(p.table, s.Field) + " " + s.Direction.SQL())
	if s.Field != "id" {
		q = q.OrderBy(p.qualify(p.table, "id") + " ASC")
	}
	return q, nil
}

// Page applies limit and offset.
func (p *Planner) Page(q squirrel.SelectBuilder, page filter.Page) squirrel.SelectBuilder {
	if !page.Unbounded() {
		q = q.Limit(uint64(page.Limit))
	}
	if page.Offset > 0 {
		q = q.Offset(uint64(page.Offset))
	}
	return q
}

func (p *Planner) condition(pred filter.Predicate) (squirrel.Sqlizer, error) {
	switch {
	case pred.IsDisjunction():
		or := make(squirrel.Or, 0, len(pred.Any))
		for _, term := range pred.Any {
			cond, err := p.condition(term)
			if err != nil {
				return nil, err
			}
			or = append(or, cond)
		}
		return or, nil
	case pred.IsRelation():
		return p.exists(pred)
	}

	if !p.columns[pred.Field] {
		return nil, fmt.Errorf("filter column %q is not a column of %s", pred.Field, p.table)
	}
	return comparison(p.qualify(p.table, pred.Field), pred)
}

// exists renders EXISTS (SELECT 1 FROM hop1 AS r1 JOIN hop2 AS r2 ON ... WHERE r1.fk = root.lk AND rN.field op ?).
func (p *Planner) exists(pred filter.Predicate) (squirrel.Sqlizer, error) {
	if !identRe.MatchString(pred.Field) {
		return nil, fmt.Errorf("invalid relation column %q", pred.Field)
	}

	sub := squirrel.Select("1")
	parent, parentAlias := p.table, p.table
	for i, hop := range pred.RelationPath() {
		rel, ok := p.graph[parent][hop]
		if !ok {
			return nil, fmt.Errorf("unknown relation %q on %s", hop, parent)
		}
		alias := fmt.Sprintf("r%d", i+1)
		on := fmt.Sprintf("%s.%s = %s.%s", alias, rel.ForeignKey, parentAlias, rel.LocalKey)
		if i == 0 {
			sub = sub.From(rel.Table + " AS " + alias).Where(on)
		} else {
			sub = sub.Join(rel.Table + " AS " + alias + " ON " + on)
		}
		parent, parentAlias = rel.Table, alias
	}

	inner := pred
	inner.Relation = ""
	cond, err := comparison(parentAlias+"."+pred.Field, inner)
	if err != nil {
		return nil, err
	}

	sql, args, err := sub.Where(cond).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build exists: %w", err)
	}
	return squirrel.Expr("EXISTS ("+sql+")", args...), nil
}

func comparison(col string, pred filter.Predicate) (squirrel.Sqlizer, error) {
	switch pred.Operator {
	case filter.Equal, filter.InList:
		return squirrel.Eq{col: pred.Value}, nil
	case filter.GreaterOrEqual:
		if pred.DateOnly {
			return squirrel.Expr(utcDate(col)+" >= ?::date", pred.Value), nil
		}
		return squirrel.GtOrEq{col: pred.Value}, nil
	case filter.LessOrEqual:
		if pred.DateOnly {
			return squirrel.Expr(utcDate(col)+" <= ?::date", pred.Value), nil
		}
		return squirrel.LtOrEq{col: pred.Value}, nil
	case filter.JSONContains:
		doc, err := json.Marshal([]any{pred.Value})
		if err != nil {
			return nil, fmt.Errorf("encode containment value: %w", err)
		}
		return squirrel.Expr(col+" @> ?::jsonb", string(doc)), nil
	case filter.Like:
		return squirrel.ILike{col: "%" + EscapeLike(fmt.Sprint(pred.Value)) + "%"}, nil
	}
	return nil, fmt.Errorf("unsupported operator %q", pred.Operator)
}

// utcDate is the UTC calendar date of a timestamptz column, whatever the session zone.
func utcDate(col string) string {
	return "(" + col + " AT TIME ZONE 'UTC')::date"
}

func (p *Planner) qualify(table, col string) string {
	return table + "." + col
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes term match literally inside a LIKE pattern.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}
