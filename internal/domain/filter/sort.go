package filter

import (
	"math"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection normalizes raw into Asc or Desc.
// Anything that is not case-insensitively "asc" or "desc" yields def, and Desc when def is empty.
func ParseDirection(raw string, def Direction) Direction {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(Asc):
		return Asc
	case string(Desc):
		return Desc
	}
	if def == Asc {
		return Asc
	}
	return Desc
}

// SQL returns the keyword for an ORDER BY clause.
func (d Direction) SQL() string {
	if d == Asc {
		return "ASC"
	}
	return "DESC"
}

// SortSpec is a single-column ordering.
type SortSpec struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// String renders the spec as an ORDER BY term.
func (s SortSpec) String() string {
	return s.Field + " " + s.Direction.SQL()
}

// Pagination defaults.
const (
	DefaultPerPage = 15
	MaxPerPage     = 100
	MaxOffset      = math.MaxInt32
)

// Page is a limit/offset window. A zero Limit means unbounded.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Unbounded reports whether the page has no limit.
func (p Page) Unbounded() bool {
	return p.Limit <= 0
}

// Number returns the 1-based page number.
func (p Page) Number() int {
	if p.Limit <= 0 {
		return 1
	}
	return p.Offset/p.Limit + 1
}

// Window returns items[offset:offset+limit], clamped to the slice bounds.
func Window[T any](items []T, p Page) []T {
	p.Offset = max(p.Offset, 0)
	if p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if !p.Unbounded() && p.Limit < end-p.Offset {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}
