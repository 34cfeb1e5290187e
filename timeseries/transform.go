package timeseries

import (
	"math"
	"time"

	"github.com/bitmark-inc/covid-trends/numeric"
)

// derive keeps every attribute of ts except its values. skipped is the
// number of leading entries the transform consumed, start moves forward
// by that many days.
func (ts TimeSeries) derive(skipped int, values []float64) TimeSeries {
	return ts.With(WithValues(ts.Start.AddDate(0, 0, skipped), values))
}

// Deltas returns differences against the value offset days earlier,
// reading days before the start as 0.
func (ts TimeSeries) Deltas(offset int) TimeSeries {
	return ts.derive(0, numeric.Deltas(ts.Values, offset, 0))
}

// MovingAverage averages over bucket days. Without partial windows the
// first bucket-1 days are dropped.
func (ts TimeSeries) MovingAverage(bucket int, includePartial bool) TimeSeries {
	return ts.derive(windowSkip(bucket, includePartial), numeric.MovingAverage(ts.Values, bucket, includePartial)).
		With(WithIntValues(false))
}

// MovingSum sums over bucket days.
func (ts TimeSeries) MovingSum(bucket int, includePartial bool) TimeSeries {
	return ts.derive(windowSkip(bucket, includePartial), numeric.MovingSum(ts.Values, bucket, includePartial))
}

func (ts TimeSeries) GrowthRates(sinceDaysAgo int) TimeSeries {
	return ts.derive(1, numeric.GrowthRates(ts.Values, sinceDaysAgo)).With(WithIntValues(false))
}

func (ts TimeSeries) DoublingTimes(sinceDaysAgo int) TimeSeries {
	return ts.derive(1, numeric.DoublingTimes(ts.Values, sinceDaysAgo)).With(WithIntValues(false))
}

func (ts TimeSeries) SymmetricGrowth() TimeSeries {
	return ts.derive(1, numeric.SymmetricGrowth(ts.Values)).With(WithIntValues(false))
}

// Scale multiplies every value by factor.
func (ts TimeSeries) Scale(factor float64) TimeSeries {
	return ts.mapValues(func(v float64) float64 { return v * factor })
}

// Offset adds delta to every value.
func (ts TimeSeries) Offset(delta float64) TimeSeries {
	return ts.mapValues(func(v float64) float64 { return v + delta })
}

// DivideByScalar divides every value by divisor; a zero divisor yields
// the usual NaN/Inf values.
func (ts TimeSeries) DivideByScalar(divisor float64) TimeSeries {
	return ts.mapValues(func(v float64) float64 { return v / divisor }).With(WithIntValues(false))
}

// PerCapita scales to values per 100,000 people.
func (ts TimeSeries) PerCapita(population float64) TimeSeries {
	return ts.DivideByScalar(population).Scale(1e5)
}

func (ts TimeSeries) mapValues(f func(float64) float64) TimeSeries {
	values := make([]float64, len(ts.Values))
	for i, v := range ts.Values {
		values[i] = f(v)
	}
	return ts.derive(0, values)
}

// CoerceIncreasing replaces every value that falls below its predecessor
// with the predecessor, so the result never decreases. NaN entries are
// carried through and do not reset the running maximum.
func (ts TimeSeries) CoerceIncreasing() TimeSeries {
	values := ts.ValuesCopy()
	running := math.NaN()
	for i, v := range values {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(running) || v >= running:
			running = v
		default:
			values[i] = running
		}
	}
	return ts.derive(0, values)
}

// TrimLeadingZeros drops leading near-zero values beyond the first
// maxLeadingZeros of them and advances Start accordingly.
func (ts TimeSeries) TrimLeadingZeros(maxLeadingZeros int) TimeSeries {
	if maxLeadingZeros < 0 {
		maxLeadingZeros = 0
	}

	zeros := 0
	for zeros < len(ts.Values) && isNearZero(ts.Values[zeros]) {
		zeros++
	}
	if zeros <= maxLeadingZeros {
		return ts
	}

	skip := zeros - maxLeadingZeros
	return ts.derive(skip, ts.Values[skip:])
}

// Restrict returns the part of the series between from and to inclusive.
// Days outside the span are filled with DefaultValue.
func (ts TimeSeries) Restrict(from, to time.Time) TimeSeries {
	n := DaysBetween(from, to) + 1
	if n < 0 {
		n = 0
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = ts.ValueAt(Date(from).AddDate(0, 0, i))
	}
	return ts.With(WithValues(from, values))
}

// Tail returns the last n days, or the whole series if it is shorter.
func (ts TimeSeries) Tail(n int) TimeSeries {
	if n >= len(ts.Values) {
		return ts
	}
	if n < 0 {
		n = 0
	}
	skip := len(ts.Values) - n
	return ts.derive(skip, ts.Values[skip:])
}

func windowSkip(bucket int, includePartial bool) int {
	if includePartial || bucket <= 1 {
		return 0
	}
	return bucket - 1
}

const nearZero = 1e-9

func isNearZero(v float64) bool {
	return math.Abs(v) < nearZero
}
