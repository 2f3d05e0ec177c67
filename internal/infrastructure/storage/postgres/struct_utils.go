package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the "db" tag names of T, descending into embedded
// structs such as entity.Catalog. Repositories call it once at construction.
//
//	columns := ExtractDBColumns[customer.Customer]()
//	// ["id", "deletion_mark", "version", "code", "name", "email", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, columnsOf(field.Type)...)
			continue
		}
		if tag := field.Tag.Get("db"); tag != "" && tag != "-" {
			cols = append(cols, tag)
		}
	}
	return cols
}

// structLayout is the cached tag layout of one struct type.
type structLayout struct {
	tagged   []taggedField
	embedded []int
}

type taggedField struct {
	index int
	tag   string
}

var layouts sync.Map // reflect.Type -> *structLayout

func layoutOf(t reflect.Type) *structLayout {
	if cached, ok := layouts.Load(t); ok {
		return cached.(*structLayout)
	}

	l := &structLayout{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			l.embedded = append(l.embedded, i)
			continue
		}
		if tag := field.Tag.Get("db"); tag != "" && tag != "-" {
			l.tagged = append(l.tagged, taggedField{index: i, tag: tag})
		}
	}

	actual, _ := layouts.LoadOrStore(t, l)
	return actual.(*structLayout)
}

// StructToMap converts a struct to a column map using "db" tags.
// Fields without a tag or tagged "-" are skipped. The layout of each type
// is computed once and reused.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	l := layoutOf(rv.Type())
	res := make(map[string]any, len(l.tagged))
	for _, f := range l.tagged {
		res[f.tag] = rv.Field(f.index).Interface()
	}
	for _, idx := range l.embedded {
		for k, val := range StructToMap(rv.Field(idx).Interface()) {
			res[k] = val
		}
	}
	return res
}

// FilterColumns keeps only the entries of m whose key is in allowed.
func FilterColumns(m map[string]any, allowed []string) map[string]any {
	set := make(map[string]struct{}, len(allowed))
	for _, c := range allowed {
		set[c] = struct{}{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, ok := set[k]; ok {
			out[k] = v
		}
	}
	return out
}
