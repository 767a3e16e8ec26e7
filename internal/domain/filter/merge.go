package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Record is the attribute surface the merger needs from every entity it orders.
type Record interface {
	EntityKind() Kind
	// SortValue returns the value of a sortable field; false when the entity lacks it.
	SortValue(field string) (any, bool)
}

// Merge concatenates the per-kind results in ascending Kind order and stably
// sorts them by s. Entities that compare equal keep their concatenation order,
// so ties across kinds resolve apartment before house. Entities lacking the
// sort field (or holding nil) go last in both directions.
func Merge[T Record](results map[Kind][]T, s SortSpec) []T {
	kinds := make([]Kind, 0, len(results))
	total := 0
	for k, items := range results {
		kinds = append(kinds, k)
		total += len(items)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	merged := make([]T, 0, total)
	for _, k := range kinds {
		merged = append(merged, results[k]...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, aok := merged[i].SortValue(s.Field)
		b, bok := merged[j].SortValue(s.Field)
		aok = aok && a != nil
		bok = bok && b != nil
		switch {
		case !aok:
			return false
		case !bok:
			return true
		}
		c := Compare(a, b)
		if s.Direction == Asc {
			return c < 0
		}
		return c > 0
	})
	return merged
}

// Compare orders two sort values of the same dynamic type.
// Mismatched types fall back to comparing their string forms.
func Compare(a, b any) int {
	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareBool(x, y)
		}
	case uuid.UUID:
		if y, ok := b.(uuid.UUID); ok {
			return strings.Compare(x.String(), y.String())
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		if c, ok := compareNumbers(a, b); ok {
			return c
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func compareOrdered[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func compareBool(x, y bool) int {
	switch {
	case x == y:
		return 0
	case !x:
		return -1
	}
	return 1
}

// compareNumbers orders two Go numbers of any width. Integers compare as
// int64 so large ids keep their precision; a float on either side widens both.
func compareNumbers(a, b any) (int, bool) {
	aInt, _ := numberKind(a)
	bInt, ok := numberKind(b)
	if !ok {
		return 0, false
	}
	if aInt && bInt {
		x, errX := cast.ToInt64E(a)
		y, errY := cast.ToInt64E(b)
		if errX == nil && errY == nil {
			return compareOrdered(x, y), true
		}
	}
	x, errX := cast.ToFloat64E(a)
	y, errY := cast.ToFloat64E(b)
	if errX != nil || errY != nil {
		return 0, false
	}
	return compareOrdered(x, y), true
}

// numberKind keeps strings and bools out of numeric comparison, which cast would coerce.
func numberKind(v any) (integer, ok bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true, true
	case float32, float64:
		return false, true
	}
	return false, false
}
