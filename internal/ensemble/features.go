package ensemble

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FeatureVector maps feature names to values.
type FeatureVector map[string]float64

// ValidationMode controls how absent features are handled.
type ValidationMode string

const (
	// Lenient fills any absent feature with 0.0.
	Lenient ValidationMode = "lenient"
	// Strict rejects requests missing a required feature; optional ones are still zero-filled.
	Strict ValidationMode = "strict"
	// Defaults rejects missing required features like Strict and fills
	// absent optional ones from Schema.Defaults.
	Defaults ValidationMode = "defaults"
)

// requiresAll reports whether m rejects requests missing a required feature.
func (m ValidationMode) requiresAll() bool {
	return m == Strict || m == Defaults
}

// ParseValidationMode accepts "lenient", "strict", "defaults", or "" (lenient).
func ParseValidationMode(s string) (ValidationMode, error) {
	switch ValidationMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Lenient:
		return Lenient, nil
	case Strict:
		return Strict, nil
	case Defaults:
		return Defaults, nil
	default:
		return "", fmt.Errorf("invalid validation mode %q", s)
	}
}

// Coerce converts loosely typed input (decoded JSON, form values) into a
// FeatureVector. Nil values and blank strings are dropped as missing;
// anything else that is not a finite number is a MalformedFeatureError.
func Coerce(raw map[string]any) (FeatureVector, error) {
	out := make(FeatureVector, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// sorted so the reported error is stable
	sort.Strings(keys)

	for _, k := range keys {
		v, ok, err := coerceValue(raw[k])
		if err != nil || (ok && !isFinite(v)) {
			return nil, &MalformedFeatureError{Feature: k, Value: raw[k]}
		}
		if ok {
			out[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	return out, nil
}

func coerceValue(v any) (float64, bool, error) {
	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return t, true, nil
	case float32:
		return float64(t), true, nil
	case int:
		return float64(t), true, nil
	case int32:
		return float64(t), true, nil
	case int64:
		return float64(t), true, nil
	case bool:
		if t {
			return 1, true, nil
		}
		return 0, true, nil
	case json.Number:
		f, err := t.Float64()
		return f, err == nil, err
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil, err
	default:
		return 0, false, fmt.Errorf("unsupported type %T", v)
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// vectorize lays features out in schema order. Absent features are
// zero-filled unless fill is set and the schema has a default for them.
func vectorize(s Schema, fv FeatureVector, fill bool) []float64 {
	x := make([]float64, len(s.Features))
	for i, name := range s.Features {
		v, ok := fv[name]
		if !ok && fill {
			v = s.Defaults[name]
		}
		x[i] = v
	}
	return x
}

func missingRequired(s Schema, fv FeatureVector) []string {
	var missing []string
	for _, name := range s.Required {
		if _, ok := fv[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
