package drift

import (
	"encoding/json"
	"reflect"
	"time"
)

type undefinedValue struct{}

// Undefined marks a value as absent. Object keys holding Undefined are
// dropped by Normalize, unlike keys holding nil which stay as null.
var Undefined any = undefinedValue{}

func isUndefined(v any) bool {
	_, ok := v.(undefinedValue)
	return ok
}

// isMissing reports nil, Undefined and nil pointers, maps and slices.
func isMissing(v any) bool {
	if v == nil || isUndefined(v) {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// isoTimeLayout is the ISO-8601 form with millisecond precision.
const isoTimeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(isoTimeLayout)
}

// Normalize returns a canonical copy of v: times become ISO-8601 strings,
// Undefined object entries are dropped, nil containers become nil and
// arrays keep their order. Objects are returned as map[string]any, whose
// keys encoding/json always emits in sorted order.
//
// The input must be acyclic.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil, undefinedValue:
		return nil
	case bool, string, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return val
	case time.Time:
		return formatTime(val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return formatTime(*val)
	case []any:
		if val == nil {
			return nil
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		if val == nil {
			return nil
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			if isUndefined(item) {
				continue
			}
			out[k] = Normalize(item)
		}
		return out
	}

	if obj, ok := asObject(v); ok {
		return Normalize(obj)
	}
	if arr, ok := asArray(v); ok {
		return Normalize(arr)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

// asObject views v as a JSON object. Maps with string keys other than
// map[string]any are copied through reflection.
func asObject(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, m != nil
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// asArray views v as a JSON array. Byte slices are not arrays; encoding/json
// writes them as base64 strings.
func asArray(v any) ([]any, bool) {
	if a, ok := v.([]any); ok {
		return a, a != nil
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() || rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
	case reflect.Array:
	default:
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
