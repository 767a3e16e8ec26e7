package metadata

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"resido/internal/core/id"
	"resido/internal/domain/filter"
)

var (
	idType      = reflect.TypeOf(id.ID{})
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// Describe builds the definition of spec's kind. sample may be nil.
func Describe(spec filter.FieldSpec, sample any) EntityDef {
	def := EntityDef{
		Name:        spec.Kind.String(),
		Fields:      make([]FieldDef, 0),
		Filters:     make([]FilterDef, 0, len(spec.Common)+len(spec.Extension)),
		Search:      make([]string, 0, len(spec.Search)),
		Sortable:    append([]string{}, spec.Sortable...),
		DefaultSort: spec.DefaultSort,
	}
	if sample != nil {
		def.Fields = Inspect(sample)
	}

	for _, f := range spec.Fields() {
		def.Filters = append(def.Filters, describeFilter(f))
	}
	for _, sf := range spec.Search {
		name := sf.Field
		if sf.Relation != "" {
			name = sf.Relation + "." + sf.Field
		}
		def.Search = append(def.Search, name)
	}
	return def
}

func describeFilter(f filter.Field) FilterDef {
	param := f.ParamName()
	fd := FilterDef{
		Field:    f.Name,
		Op:       f.Op.String(),
		Type:     f.Type.String(),
		Relation: f.Relation,
		NoSplit:  f.NoSplit,
	}

	if f.Op != filter.OpRange {
		fd.Params = []string{param, filter.NestedKey(filter.ParamFilters, param)}
		return fd
	}
	if minKey, maxKey := f.BoundKeys(); minKey != "" {
		fd.Params = append(fd.Params, minKey, maxKey)
	} else {
		fd.Params = append(fd.Params, param, filter.NestedKey(filter.ParamFilters, param))
	}
	fd.Params = append(fd.Params,
		filter.NestedKey(filter.ParamFilters, param, "min"),
		filter.NestedKey(filter.ParamFilters, param, "max"),
	)
	return fd
}

// Inspect lists the JSON fields of a struct, flattening embedded structs.
func Inspect(entity any) []FieldDef {
	t := reflect.TypeOf(entity)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	fields := make([]FieldDef, 0, t.NumField())
	inspectStruct(t, &fields)
	return fields
}

func inspectStruct(t reflect.Type, out *[]FieldDef) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.PkgPath != "" { // unexported
			continue
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			inspectStruct(field.Type, out)
			continue
		}

		name := jsonName(field)
		if name == "-" {
			continue
		}
		fDef := FieldDef{
			Name:     name,
			ReadOnly: isReadOnly(field),
		}
		mapFieldType(&fDef, field)
		*out = append(*out, fDef)
	}
}

func mapFieldType(def *FieldDef, field reflect.StructField) {
	t := field.Type
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t {
	case idType:
		def.Type = TypeReference
		// FloorID -> floor
		if base, ok := strings.CutSuffix(field.Name, "ID"); ok && base != "" {
			def.ReferenceType = strings.ToLower(base)
		}
		return
	case timeType:
		def.Type = TypeDate
		return
	case decimalType:
		if strings.Contains(field.Name, "Amount") || strings.Contains(field.Name, "Price") {
			def.Type = TypeMoney
		} else {
			def.Type = TypeNumber
		}
		return
	}

	switch t.Kind() {
	case reflect.String:
		def.Type = TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		def.Type = TypeInteger
	case reflect.Float32, reflect.Float64:
		def.Type = TypeNumber
	case reflect.Bool:
		def.Type = TypeBoolean
	case reflect.Slice, reflect.Array:
		def.Type = TypeList
	case reflect.Struct:
		def.Type = TypeObject
	default:
		def.Type = TypeString
	}
}

func jsonName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			return parts[0]
		}
	}
	runes := []rune(field.Name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func isReadOnly(field reflect.StructField) bool {
	switch field.Name {
	case "ID", "CreatedAt", "UpdatedAt", "Version", "Number", "PaidAmount":
		return true
	}
	return false
}
