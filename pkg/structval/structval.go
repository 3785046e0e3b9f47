// Package structval converts between google.protobuf.Value trees and plain Go values.
//
// Dialogflow carries context and intent parameters as schema-less structs. The
// assertion engine compares them against expectations written in YAML or Go
// literals, so both sides are brought into one canonical native form:
//
//	nil, float64, string, bool, []any, map[string]any
//
// ToStruct and ToNative never fail. Values that have no structpb equivalent
// (channels, funcs, non-string map keys) become Null.
package structval

import (
	"reflect"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct converts a native Go value into a structpb.Value.
func ToStruct(v any) *structpb.Value {
	switch x := v.(type) {
	case nil:
		return structpb.NewNullValue()
	case *structpb.Value:
		if x == nil {
			return structpb.NewNullValue()
		}
		return x
	case *structpb.Struct:
		if x == nil {
			return structpb.NewNullValue()
		}
		return structpb.NewStructValue(x)
	case *structpb.ListValue:
		if x == nil {
			return structpb.NewNullValue()
		}
		return structpb.NewListValue(x)
	case bool:
		return structpb.NewBoolValue(x)
	case string:
		return structpb.NewStringValue(x)
	case []byte:
		return structpb.NewStringValue(string(x))
	case float64:
		return structpb.NewNumberValue(x)
	case float32:
		return structpb.NewNumberValue(float64(x))
	case int:
		return structpb.NewNumberValue(float64(x))
	case int32:
		return structpb.NewNumberValue(float64(x))
	case int64:
		return structpb.NewNumberValue(float64(x))
	case []any:
		return structpb.NewListValue(listOf(len(x), func(i int) any { return x[i] }))
	case []string:
		return structpb.NewListValue(listOf(len(x), func(i int) any { return x[i] }))
	case map[string]any:
		return structpb.NewStructValue(MapToStruct(x))
	}
	return reflectToStruct(reflect.ValueOf(v))
}

// reflectToStruct handles the remaining numeric widths, typed slices and
// string-keyed maps (yaml.v3 and json both produce a few of these).
func reflectToStruct(rv reflect.Value) *structpb.Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return structpb.NewNullValue()
		}
		return ToStruct(rv.Elem().Interface())
	case reflect.Bool:
		return structpb.NewBoolValue(rv.Bool())
	case reflect.String:
		return structpb.NewStringValue(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return structpb.NewNumberValue(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return structpb.NewNumberValue(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return structpb.NewNumberValue(rv.Float())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return structpb.NewListValue(&structpb.ListValue{})
		}
		return structpb.NewListValue(listOf(rv.Len(), func(i int) any { return rv.Index(i).Interface() }))
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return structpb.NewNullValue()
		}
		fields := make(map[string]*structpb.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			fields[iter.Key().String()] = ToStruct(iter.Value().Interface())
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields})
	}
	return structpb.NewNullValue()
}

func listOf(n int, at func(int) any) *structpb.ListValue {
	values := make([]*structpb.Value, n)
	for i := 0; i < n; i++ {
		values[i] = ToStruct(at(i))
	}
	return &structpb.ListValue{Values: values}
}

// ToNative converts a structpb.Value into its native Go form.
// A nil value, or one with no kind set, converts to nil.
func ToNative(v *structpb.Value) any {
	if v == nil {
		return nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil
	case *structpb.Value_NumberValue:
		return k.NumberValue
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_StructValue:
		return StructToMap(k.StructValue)
	case *structpb.Value_ListValue:
		return listToSlice(k.ListValue)
	}
	return nil
}

// StructToMap converts a structpb.Struct into a map. A nil struct yields a nil map.
func StructToMap(s *structpb.Struct) map[string]any {
	if s == nil {
		return nil
	}
	m := make(map[string]any, len(s.GetFields()))
	for k, v := range s.GetFields() {
		m[k] = ToNative(v)
	}
	return m
}

// MapToStruct converts a string-keyed map into a structpb.Struct. A nil map
// yields a nil struct.
func MapToStruct(m map[string]any) *structpb.Struct {
	if m == nil {
		return nil
	}
	fields := make(map[string]*structpb.Value, len(m))
	for k, v := range m {
		fields[k] = ToStruct(v)
	}
	return &structpb.Struct{Fields: fields}
}

func listToSlice(l *structpb.ListValue) []any {
	if l == nil {
		return nil
	}
	out := make([]any, len(l.GetValues()))
	for i, v := range l.GetValues() {
		out[i] = ToNative(v)
	}
	return out
}

// Normalize returns v in the canonical native form: every number becomes a
// float64, every list a []any and every map a map[string]any.
func Normalize(v any) any {
	return ToNative(ToStruct(v))
}
