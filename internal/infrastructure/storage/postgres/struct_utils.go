package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns lists the "db" tags of T in field order, descending into
// embedded structs such as entity.BaseEntity.
//
//	columns := ExtractDBColumns[inventory.Batch]()
//	// ["id", "pharmacy_id", ..., "product_name", "batch_no", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataFor(reflect.TypeOf(zero))
	cols := make([]string, len(meta))
	for i, f := range meta {
		cols[i] = f.column
	}
	return cols
}

type columnField struct {
	column string
	index  []int
}

var typeCache sync.Map // reflect.Type -> []columnField

// metadataFor returns the column fields of t, computed once per type.
func metadataFor(t reflect.Type) []columnField {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.([]columnField)
	}
	var fields []columnField
	if t.Kind() == reflect.Struct {
		fields = collectColumns(t, nil)
	}
	typeCache.Store(t, fields)
	return fields
}

func collectColumns(t reflect.Type, prefix []int) []columnField {
	var out []columnField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			out = append(out, collectColumns(field.Type, index)...)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		out = append(out, columnField{column: tag, index: index})
	}
	return out
}

// StructToMap converts a struct to column => value using "db" tags. The
// result feeds squirrel's SetMap for inserts and updates.
func StructToMap(v any, omit ...string) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataFor(rv.Type())
	res := make(map[string]any, len(meta))
	for _, f := range meta {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	for _, col := range omit {
		delete(res, col)
	}
	return res
}
