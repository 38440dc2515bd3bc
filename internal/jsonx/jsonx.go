// Package jsonx navigates decoded JSON leniently. Lookups never fail: a
// missing or wrong-shaped member yields the zero value for the requested shape.
package jsonx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Object is a decoded JSON object.
type Object = map[string]any

// Decode parses body keeping numbers as json.Number so their literal text
// survives the round trip to string.
func Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected trailing data after top-level value")
	}
	return v, nil
}

// String returns obj[key] rendered as a string. Strings are returned as-is,
// numbers as their literal text and booleans as "true"/"false". Anything else
// (null, objects, arrays, missing) yields "".
func String(obj Object, key string) string {
	if obj == nil {
		return ""
	}
	return Scalar(obj[key])
}

// Scalar renders a single decoded value the way String does.
func Scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// Obj returns obj[key] when it is an object, nil otherwise.
func Obj(obj Object, key string) Object {
	if obj == nil {
		return nil
	}
	o, _ := obj[key].(map[string]any)
	return o
}

// Objects returns the object elements of the array at obj[key], skipping any
// element that is not an object. The result is never nil.
func Objects(obj Object, key string) []Object {
	var arr []any
	if obj != nil {
		arr, _ = obj[key].([]any)
	}
	return ObjectsOf(arr)
}

// ObjectsOf filters arr down to its object elements. The result is never nil.
func ObjectsOf(arr []any) []Object {
	out := make([]Object, 0, len(arr))
	for _, el := range arr {
		if o, ok := el.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out
}

// Strings returns the non-empty scalar elements of the array at obj[key].
// The result is never nil.
func Strings(obj Object, key string) []string {
	var arr []any
	if obj != nil {
		arr, _ = obj[key].([]any)
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		if s := Scalar(el); s != "" {
			out = append(out, s)
		}
	}
	return out
}
