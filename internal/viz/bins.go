package viz

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// DefaultBinCount is the number of histogram buckets used when none is configured.
const DefaultBinCount = 10

var (
	// ErrNonNumericValue is wrapped by NonNumericValueError.
	ErrNonNumericValue = errors.New("non-numeric histogram value")
	// ErrInvalidBinCount is returned for a bin count below one.
	ErrInvalidBinCount = errors.New("bin count must be at least 1")
	// ErrNoValues is returned when no row carries a value to bin.
	ErrNoValues = errors.New("no values to bin")
)

// NonNumericValueError reports the first row whose value could not be binned.
type NonNumericValueError struct {
	Row   int
	Key   string
	Value any
}

func (e *NonNumericValueError) Error() string {
	return fmt.Sprintf("row %d: %s = %v is not numeric", e.Row, e.Key, e.Value)
}

func (e *NonNumericValueError) Unwrap() error { return ErrNonNumericValue }

// ComputeBins partitions the numeric values under valueKey into binCount
// equal-width buckets spanning [min, max]. Rows where the key is missing or
// nil are skipped; see CountMissing. Any other non-numeric value fails the
// whole computation.
//
// When every value is equal the width is zero and all values land in the
// first bucket.
func ComputeBins(rows []Row, valueKey string, binCount int) ([]Bin, error) {
	if binCount < 1 {
		return nil, ErrInvalidBinCount
	}

	values := make([]float64, 0, len(rows))
	for i, row := range rows {
		raw, ok := row.Get(valueKey)
		if !ok || raw == nil {
			continue
		}
		f, ok := ToFloat(raw)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &NonNumericValueError{Row: i, Key: valueKey, Value: raw}
		}
		values = append(values, f)
	}
	if len(values) == 0 {
		return nil, ErrNoValues
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	k := float64(binCount)
	step := (hi - lo) / k
	// The width overflows when the extremes sit near ±MaxFloat64.
	wide := math.IsInf(step, 0)
	if wide {
		step = hi/k - lo/k
	}

	bins := make([]Bin, binCount)
	for i := range bins {
		from := bound(lo, hi, step, i, binCount, wide)
		to := bound(lo, hi, step, i+1, binCount, wide)
		bins[i].Range = formatBound(from) + " - " + formatBound(to)
	}

	for _, v := range values {
		idx := 0
		if step > 0 {
			pos := (v - lo) / step
			if wide {
				pos = v/step - lo/step
			}
			idx = int(math.Floor(pos))
		}
		idx = max(0, min(idx, binCount-1))
		bins[idx].Count++
	}
	return bins, nil
}

// bound returns the i-th bucket edge. Wide ranges interpolate between the
// extremes so no intermediate sum leaves the float64 range.
func bound(lo, hi, step float64, i, binCount int, wide bool) float64 {
	if !wide {
		return lo + float64(i)*step
	}
	t := float64(i) / float64(binCount)
	return lo*(1-t) + hi*t
}

// CountMissing returns how many rows have no value under key.
func CountMissing(rows []Row, key string) int {
	n := 0
	for _, row := range rows {
		if !row.Has(key) {
			n++
		}
	}
	return n
}

// formatBound rounds half up, as bucket labels are read by people.
func formatBound(f float64) string {
	r := math.Floor(f + 0.5)
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// ToFloat converts a scalar to float64. Strings are not parsed.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
