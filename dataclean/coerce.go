package dataclean

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type cellStatus int

const (
	cellOK cellStatus = iota
	cellMissing
	cellUnconvertible
	cellNonFinite
)

// toFloat converts a raw cell to float64. converted reports whether a
// non-float64 value had to be coerced.
func toFloat(v any) (f float64, status cellStatus, converted bool) {
	switch x := v.(type) {
	case nil:
		return 0, cellMissing, false
	case float64:
		f = x
	case float32:
		f, converted = float64(x), true
	case int:
		f, converted = float64(x), true
	case int8:
		f, converted = float64(x), true
	case int16:
		f, converted = float64(x), true
	case int32:
		f, converted = float64(x), true
	case int64:
		f, converted = float64(x), true
	case uint:
		f, converted = float64(x), true
	case uint8:
		f, converted = float64(x), true
	case uint16:
		f, converted = float64(x), true
	case uint32:
		f, converted = float64(x), true
	case uint64:
		f, converted = float64(x), true
	case bool:
		converted = true
		if x {
			f = 1
		}
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, cellUnconvertible, false
		}
		f, converted = parsed, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, cellUnconvertible, false
		}
		f, converted = parsed, true
	case []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return 0, cellUnconvertible, false
		}
		f, converted = parsed, true
	default:
		return 0, cellUnconvertible, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, cellNonFinite, converted
	}
	return f, cellOK, converted
}

// Coerce converts a raw cell to a finite float64 using the same rules as
// Clean. It reports false for missing, unconvertible and non-finite values.
func Coerce(v any) (float64, bool) {
	f, status, _ := toFloat(v)
	return f, status == cellOK
}
