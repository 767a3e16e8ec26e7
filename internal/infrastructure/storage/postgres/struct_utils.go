package postgres

import (
	"reflect"
	"slices"
	"sync"
)

// Columns returns the column names of T's "db" tags, embedded structs included.
// Fields tagged db:"-" or untagged are skipped.
//
//	cols := Columns[property.Apartment]()
//	// ["id", "identifier", "description", ...]
func Columns[T any]() []string {
	var zero T
	return slices.Clone(metadataFor(reflect.TypeOf(zero)).columns)
}

type fieldPath struct {
	index  []int
	column string
}

type typeMetadata struct {
	columns []string
	fields  []fieldPath
}

var typeCache sync.Map // reflect.Type -> *typeMetadata

func metadataFor(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	collectFields(t, nil, meta)
	actual, _ := typeCache.LoadOrStore(t, meta)
	return actual.(*typeMetadata)
}

func collectFields(t reflect.Type, prefix []int, meta *typeMetadata) {
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(slices.Clone(prefix), i)

		if f.Anonymous {
			collectFields(f.Type, index, meta)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.columns = append(meta.columns, tag)
		meta.fields = append(meta.fields, fieldPath{index: index, column: tag})
	}
}

// StructToMap converts a struct to column->value using "db" tags.
// Columns listed in exclude are left out, e.g. generated keys on insert.
func StructToMap(v any, exclude ...string) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataFor(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, f := range meta.fields {
		if slices.Contains(exclude, f.column) {
			continue
		}
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}
