// Package numeric holds the windowed transforms shared by every series
// computation. All functions are pure: inputs are never modified and the
// result is always a freshly allocated slice.
//
// Ratios are never guarded. A division by zero yields NaN or ±Inf and that
// value is returned as-is, callers filter with math.IsNaN / math.IsInf.
package numeric

import "math"

// Deltas returns values[i] - values[i-offset]. Indices left of the start
// are read as noValue, so the result has the same length as the input.
func Deltas(values []float64, offset int, noValue float64) []float64 {
	result := make([]float64, len(values))
	for i, v := range values {
		prev := noValue
		if j := i - offset; j >= 0 && j < len(values) {
			prev = values[j]
		}
		result[i] = v - prev
	}
	return result
}

// SlidingWindow returns windows of n consecutive values. Without partial
// windows there are len-n+1 windows of exactly n values. With partial
// windows there is one window per index, ending at that index and holding
// at most n values.
func SlidingWindow(values []float64, n int, includePartial bool) [][]float64 {
	if n <= 0 {
		return nil
	}

	if includePartial {
		windows := make([][]float64, len(values))
		for i := range values {
			from := i - n + 1
			if from < 0 {
				from = 0
			}
			windows[i] = values[from : i+1]
		}
		return windows
	}

	if len(values) < n {
		return [][]float64{}
	}
	windows := make([][]float64, 0, len(values)-n+1)
	for i := 0; i+n <= len(values); i++ {
		windows = append(windows, values[i:i+n])
	}
	return windows
}

// MovingSum sums each sliding window.
func MovingSum(values []float64, bucket int, includePartial bool) []float64 {
	windows := SlidingWindow(values, bucket, includePartial)
	result := make([]float64, len(windows))
	for i, w := range windows {
		result[i] = Sum(w)
	}
	return result
}

// MovingAverage averages each sliding window.
func MovingAverage(values []float64, bucket int, includePartial bool) []float64 {
	windows := SlidingWindow(values, bucket, includePartial)
	result := make([]float64, len(windows))
	for i, w := range windows {
		result[i] = Mean(w)
	}
	return result
}

// MovingAverageNonZero averages the non-zero entries of each sliding
// window. A window with no non-zero entry averages to 0.
func MovingAverageNonZero(values []float64, bucket int, includePartial bool) []float64 {
	windows := SlidingWindow(values, bucket, includePartial)
	result := make([]float64, len(windows))
	for i, w := range windows {
		var sum float64
		var count int
		for _, v := range w {
			if v != 0 {
				sum += v
				count++
			}
		}
		if count > 0 {
			result[i] = sum / float64(count)
		}
	}
	return result
}

// GrowthRates returns the ratio of each value to its predecessor, one
// entry shorter than the input. With sinceDaysAgo > 0 both terms are
// first reduced by the value sinceDaysAgo entries before the predecessor,
// so growth is measured against that baseline instead of zero. A baseline
// left of the start reads as 0.
func GrowthRates(values []float64, sinceDaysAgo int) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	result := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		base := 0.0
		if sinceDaysAgo > 0 {
			if j := i - 1 - sinceDaysAgo; j >= 0 {
				base = values[j]
			}
		}
		result[i-1] = (values[i] - base) / (values[i-1] - base)
	}
	return result
}

// DoublingTimes converts growth rates into days-to-double. Negative
// results mean shrinking and +Inf means no growth, neither is clamped.
func DoublingTimes(values []float64, sinceDaysAgo int) []float64 {
	rates := GrowthRates(values, sinceDaysAgo)
	for i, r := range rates {
		rates[i] = DoublingTime(r)
	}
	return rates
}

// DoublingTime is 1/log2(rate).
func DoublingTime(rate float64) float64 {
	return 1 / math.Log2(rate)
}

// SymmetricGrowth returns (v[i]-v[i-1]) / mean(v[i], v[i-1]) for every
// i > 0, one entry shorter than the input.
func SymmetricGrowth(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	result := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		result[i-1] = (values[i] - values[i-1]) / (0.5 * (values[i] + values[i-1]))
	}
	return result
}

func Sum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// Mean of an empty slice is NaN.
func Mean(values []float64) float64 {
	return Sum(values) / float64(len(values))
}

// ArgMax returns the index of the largest value in values[from:to],
// the first one on ties. NaN entries are skipped; -1 when none qualify.
func ArgMax(values []float64, from, to int) int {
	best := -1
	for i := from; i < to; i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		if best < 0 || values[i] > values[best] {
			best = i
		}
	}
	return best
}

// ArgMin is the counterpart of ArgMax.
func ArgMin(values []float64, from, to int) int {
	best := -1
	for i := from; i < to; i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		if best < 0 || values[i] < values[best] {
			best = i
		}
	}
	return best
}

// Bounds returns the smallest and largest non-NaN value and whether any
// such value exists.
func Bounds(values []float64) (float64, float64, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	found := false
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		found = true
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, found
}
