// Package extrema locates the reversals of a daily series and derives the
// current trend from them.
package extrema

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/bitmark-inc/covid-trends/numeric"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

const (
	DefaultSampleWindow = 7
	kernelRadius        = 10
)

type Type string

const (
	GlobalMax Type = "GLOBAL_MAX"
	GlobalMin Type = "GLOBAL_MIN"
	LocalMax  Type = "LOCAL_MAX"
	LocalMin  Type = "LOCAL_MIN"
	Endpoint  Type = "ENDPOINT"
)

func (t Type) IsMax() bool {
	return t == GlobalMax || t == LocalMax
}

func (t Type) IsMin() bool {
	return t == GlobalMin || t == LocalMin
}

// Info is one detected extremum. PercentChange is relative to the
// preceding extremum and nil for the first one.
type Info struct {
	Metric        string
	Date          time.Time
	Value         float64
	Type          Type
	PercentChange *numeric.Float
}

type jsonInfo struct {
	Metric        string         `json:"metric"`
	Date          string         `json:"date"`
	Value         numeric.Float  `json:"value"`
	Type          Type           `json:"type"`
	PercentChange *numeric.Float `json:"percent_change"`
}

func (e Info) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonInfo{
		Metric:        e.Metric,
		Date:          e.Date.Format(timeseries.DateLayout),
		Value:         numeric.Float(e.Value),
		Type:          e.Type,
		PercentChange: e.PercentChange,
	})
}

// Summary holds the extrema of one series ordered by date.
type Summary struct {
	Metric  string
	Extrema []Info
}

func (s Summary) Len() int {
	return len(s.Extrema)
}

// At returns the extremum on date.
func (s Summary) At(date time.Time) (Info, bool) {
	date = timeseries.Date(date)
	i := sort.Search(len(s.Extrema), func(i int) bool {
		return !s.Extrema[i].Date.Before(date)
	})
	if i < len(s.Extrema) && s.Extrema[i].Date.Equal(date) {
		return s.Extrema[i], true
	}
	return Info{}, false
}

func (s Summary) Dates() []time.Time {
	dates := make([]time.Time, len(s.Extrema))
	for i, e := range s.Extrema {
		dates[i] = e.Date
	}
	return dates
}

func (s Summary) MarshalJSON() ([]byte, error) {
	extrema := s.Extrema
	if extrema == nil {
		extrema = []Info{}
	}
	return json.Marshal(struct {
		Metric  string `json:"metric"`
		Extrema []Info `json:"extrema"`
	}{s.Metric, extrema})
}

// kernelWeight is 1 at the center and max(0, 0.01-0.001|offset|) elsewhere.
func kernelWeight(offset int) float64 {
	if offset == 0 {
		return 1
	}
	return math.Max(0, 0.01-0.001*math.Abs(float64(offset)))
}

// Smooth convolves values with the fixed extrema kernel. Neighbors past
// either end and NaN neighbors contribute nothing; a NaN value stays NaN.
func Smooth(values []float64) []float64 {
	result := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			result[i] = math.NaN()
			continue
		}
		var sum float64
		for off := -kernelRadius; off <= kernelRadius; off++ {
			j := i + off
			if j < 0 || j >= len(values) || math.IsNaN(values[j]) {
				continue
			}
			sum += kernelWeight(off) * values[j]
		}
		result[i] = sum
	}
	return result
}

type candidate struct {
	index int
	isMax bool
	kind  Type
}

// Find detects the extrema of ts. Extrema closer than sampleWindow days
// are collapsed into the most pronounced one, and every run of two
// minima or two maxima is split by the opposite extremum of the raw
// values between them, so interior extrema alternate between minima and
// maxima. Both ends of the series are always reported.
func Find(ts timeseries.TimeSeries, sampleWindow int) Summary {
	if sampleWindow < 1 {
		sampleWindow = 1
	}

	summary := Summary{Metric: ts.Metric}
	n := ts.Len()
	if n == 0 {
		return summary
	}

	raw := ts.Values
	smoothed := Smooth(raw)

	rawLo, rawHi, rawOK := numeric.Bounds(raw)
	lo, hi, ok := numeric.Bounds(smoothed)

	var found []candidate
	if rawOK && ok && rawLo != rawHi && lo != hi {
		found = localExtrema(smoothed, sampleWindow)
		found = collapse(found, smoothed, sampleWindow)
		found = reconcile(found, raw, smoothed, sampleWindow)
	}

	found = append([]candidate{{index: 0, kind: Endpoint}}, found...)
	if n > 1 {
		found = append(found, candidate{index: n - 1, kind: Endpoint})
	}

	if rawOK && ok && rawLo != rawHi && lo != hi {
		for i := range found {
			c := &found[i]
			s := smoothed[c.index]
			switch {
			case (c.kind == Endpoint || c.isMax) && s == hi:
				c.kind, c.isMax = GlobalMax, true
			case (c.kind == Endpoint || !c.isMax) && s == lo:
				c.kind, c.isMax = GlobalMin, false
			}
		}
		found = alternate(found, smoothed, n)
	}

	summary.Extrema = make([]Info, len(found))
	for i, c := range found {
		info := Info{
			Metric: ts.Metric,
			Date:   ts.DateAt(c.index),
			Value:  raw[c.index],
			Type:   c.kind,
		}
		if i > 0 {
			prev := summary.Extrema[i-1].Value
			info.PercentChange = numeric.Ptr((info.Value - prev) / prev * 100)
		}
		summary.Extrema[i] = info
	}
	return summary
}

// alternate resolves runs of two minima or two maxima created by upgrading
// an endpoint to a global extremum. The less pronounced of the pair loses:
// an interior extremum is dropped, an endpoint falls back to Endpoint.
// Ties keep the endpoint.
func alternate(found []candidate, smoothed []float64, n int) []candidate {
	isEnd := func(c candidate) bool {
		return c.index == 0 || c.index == n-1
	}

	var result []candidate
	for _, c := range found {
		keep := true
		for keep && len(result) > 0 && c.kind != Endpoint {
			last := len(result) - 1
			prev := result[last]
			if prev.kind == Endpoint || prev.isMax != c.isMax {
				break
			}

			current := moreExtreme(smoothed[c.index], smoothed[prev.index], c.isMax) ||
				(smoothed[c.index] == smoothed[prev.index] && isEnd(c) && !isEnd(prev))
			switch {
			case !current && isEnd(c):
				c.kind = Endpoint
			case !current:
				keep = false
			case isEnd(prev):
				result[last].kind = Endpoint
			default:
				result = result[:last]
				continue
			}
			break
		}

		if keep {
			result = append(result, c)
		}
	}
	return result
}

// localExtrema returns the interior indices that are the smallest or the
// largest value within win days on either side. Flat neighborhoods
// qualify as both and are dropped.
func localExtrema(values []float64, win int) []candidate {
	var found []candidate
	for i := 1; i < len(values)-1; i++ {
		if math.IsNaN(values[i]) {
			continue
		}

		isMin, isMax := true, true
		for j := i - win; j <= i+win; j++ {
			if j < 0 || j >= len(values) || j == i || math.IsNaN(values[j]) {
				continue
			}
			if values[j] < values[i] {
				isMin = false
			}
			if values[j] > values[i] {
				isMax = false
			}
		}

		switch {
		case isMin && isMax:
		case isMax:
			found = append(found, candidate{index: i, isMax: true, kind: LocalMax})
		case isMin:
			found = append(found, candidate{index: i, isMax: false, kind: LocalMin})
		}
	}
	return found
}

// collapse merges neighboring extrema of the same type no more than win
// days apart, keeping the most pronounced one, the earliest on ties.
func collapse(found []candidate, values []float64, win int) []candidate {
	var kept []candidate
	for _, c := range found {
		if len(kept) > 0 {
			last := &kept[len(kept)-1]
			if last.isMax == c.isMax && c.index-last.index <= win {
				if moreExtreme(values[c.index], values[last.index], c.isMax) {
					*last = c
				}
				continue
			}
		}
		kept = append(kept, c)
	}
	return kept
}

// reconcile makes a single pass over consecutive extrema of the same type
// more than win days apart and inserts the opposite extremum of the raw
// values strictly between them. When no raw value qualifies the less
// pronounced of the pair is dropped instead.
func reconcile(found []candidate, raw, smoothed []float64, win int) []candidate {
	if len(found) < 2 {
		return found
	}

	result := []candidate{found[0]}
	for _, c := range found[1:] {
		prev := result[len(result)-1]
		if prev.isMax != c.isMax {
			result = append(result, c)
			continue
		}

		between := -1
		if c.index-prev.index > win {
			if c.isMax {
				between = numeric.ArgMin(raw, prev.index+1, c.index)
			} else {
				between = numeric.ArgMax(raw, prev.index+1, c.index)
			}
		}

		if between < 0 {
			if moreExtreme(smoothed[c.index], smoothed[prev.index], c.isMax) {
				result[len(result)-1] = c
			}
			continue
		}

		opposite := candidate{index: between, isMax: !c.isMax, kind: LocalMin}
		if opposite.isMax {
			opposite.kind = LocalMax
		}
		result = append(result, opposite, c)
	}
	return result
}

func moreExtreme(v, than float64, isMax bool) bool {
	if isMax {
		return v > than
	}
	return v < than
}
