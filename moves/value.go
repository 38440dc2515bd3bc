package moves

import (
	"strconv"
	"strings"
	"time"
)

// Time layouts used by the Moves API.
const (
	LayoutDate      = "20060102"
	LayoutTimestamp = "20060102T150405Z0700"
)

// Value is a scalar leaf of an API response kept as its literal text. The
// API is loose about types, so conversion happens on access and falls back
// to the supplied default when the text does not parse.
type Value string

func (v Value) String() string { return string(v) }

// IsZero reports whether the field was absent, null or not a scalar.
func (v Value) IsZero() bool { return v == "" }

// Int64 truncates fractional values.
func (v Value) Int64(def int64) int64 {
	s := strings.TrimSpace(string(v))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return def
}

func (v Value) Float64(def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	if err != nil {
		return def
	}
	return f
}

// Bool accepts the forms strconv.ParseBool does.
func (v Value) Bool(def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(string(v)))
	if err != nil {
		return def
	}
	return b
}

// Time parses the value with layout, typically LayoutDate or LayoutTimestamp.
func (v Value) Time(layout string, def time.Time) time.Time {
	t, err := time.Parse(layout, strings.TrimSpace(string(v)))
	if err != nil {
		return def
	}
	return t
}

// Seconds reads a duration expressed in (possibly fractional) seconds.
func (v Value) Seconds(def time.Duration) time.Duration {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	if err != nil {
		return def
	}
	return time.Duration(f * float64(time.Second))
}
