package numeric

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	PositiveInfinityToken = "Inf"
	NegativeInfinityToken = "-Inf"
)

// Float is a float64 that survives JSON encoding. NaN encodes as null and
// ±Inf as the strings "Inf" and "-Inf", matching the series line format.
type Float float64

// Ptr wraps v for optional record fields.
func Ptr(v float64) *Float {
	f := Float(v)
	return &f
}

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return json.Marshal(PositiveInfinityToken)
	case math.IsInf(v, -1):
		return json.Marshal(NegativeInfinityToken)
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}

	var token string
	if err := json.Unmarshal(data, &token); err == nil {
		switch token {
		case PositiveInfinityToken:
			*f = Float(math.Inf(1))
		case NegativeInfinityToken:
			*f = Float(math.Inf(-1))
		default:
			return fmt.Errorf("invalid float token %q", token)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Floats converts a slice for JSON encoding.
func Floats(values []float64) []Float {
	result := make([]Float, len(values))
	for i, v := range values {
		result[i] = Float(v)
	}
	return result
}
