package extrema

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/covid-trends/timeseries"
)

var day0 = time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

func newSeries(values ...float64) timeseries.TimeSeries {
	return timeseries.New(timeseries.Key{AreaID: "texas", Metric: "cases"}, day0, values)
}

func ramp(from, to int) []float64 {
	var values []float64
	step := 1
	if to < from {
		step = -1
	}
	for v := from; v != to+step; v += step {
		values = append(values, float64(v))
	}
	return values
}

func indexTypes(ts timeseries.TimeSeries, s Summary) ([]int, []Type) {
	var indices []int
	var types []Type
	for _, e := range s.Extrema {
		indices = append(indices, ts.IndexOf(e.Date))
		types = append(types, e.Type)
	}
	return indices, types
}

func TestKernel(t *testing.T) {
	assert.Equal(t, 1.0, kernelWeight(0))
	assert.InDelta(t, 0.009, kernelWeight(1), 1e-12)
	assert.InDelta(t, 0.009, kernelWeight(-1), 1e-12)
	assert.InDelta(t, 0.001, kernelWeight(9), 1e-12)
	assert.Equal(t, 0.0, kernelWeight(10))
	assert.Equal(t, 0.0, kernelWeight(15))
}

func TestSmooth(t *testing.T) {
	smoothed := Smooth([]float64{0, 0, 100, 0, 0})
	assert.InDelta(t, 0.8, smoothed[0], 1e-12)
	assert.InDelta(t, 0.9, smoothed[1], 1e-12)
	assert.InDelta(t, 100, smoothed[2], 1e-12)
	assert.InDelta(t, 0.9, smoothed[3], 1e-12)

	withNaN := Smooth([]float64{1, math.NaN(), 1})
	assert.True(t, math.IsNaN(withNaN[1]))
	assert.InDelta(t, 1.008, withNaN[0], 1e-12)
}

func TestFindTriangleWave(t *testing.T) {
	var values []float64
	values = append(values, ramp(0, 10)...)
	values = append(values, ramp(9, 0)...)
	values = append(values, ramp(1, 15)...)
	values = append(values, ramp(14, 5)...)
	ts := newSeries(values...)

	summary := Find(ts, 7)
	indices, types := indexTypes(ts, summary)

	assert.Equal(t, []int{0, 10, 20, 35, 45}, indices)
	assert.Equal(t, []Type{GlobalMin, LocalMax, LocalMin, GlobalMax, Endpoint}, types)
	assert.Equal(t, "cases", summary.Metric)

	e := summary.Extrema
	assert.Nil(t, e[0].PercentChange)
	assert.Equal(t, 10.0, e[1].Value)
	require.NotNil(t, e[3].PercentChange)
	assert.True(t, math.IsInf(float64(*e[1].PercentChange), 1), "change from zero is unguarded")
	assert.InDelta(t, -100, float64(*e[2].PercentChange), 1e-9)
	assert.InDelta(t, -66.6667, float64(*e[4].PercentChange), 1e-3)
}

func TestFindCollapsesNearbyPeaks(t *testing.T) {
	ts := newSeries(0, 5, 10, 9, 10.5, 9, 5, 0, 0, 0, 0, 0, 0, 0, 3, 6, 9, 12, 15, 18)

	indices, types := indexTypes(ts, Find(ts, 4))
	assert.Equal(t, []int{0, 4, 9, 19}, indices)
	assert.Equal(t, []Type{GlobalMin, LocalMax, LocalMin, GlobalMax}, types)
}

func TestFindConstantSeries(t *testing.T) {
	ts := newSeries(5, 5, 5, 5, 5, 5, 5, 5, 5, 5)

	summary := Find(ts, 7)
	require.Len(t, summary.Extrema, 2)
	assert.Equal(t, Endpoint, summary.Extrema[0].Type)
	assert.Equal(t, Endpoint, summary.Extrema[1].Type)
	assert.Equal(t, day0, summary.Extrema[0].Date)
	assert.Equal(t, day0.AddDate(0, 0, 9), summary.Extrema[1].Date)
	assert.InDelta(t, 0, float64(*summary.Extrema[1].PercentChange), 1e-12)
}

func TestFindMonotonicSeries(t *testing.T) {
	ts := newSeries(ramp(1, 10)...)

	indices, types := indexTypes(ts, Find(ts, 3))
	assert.Equal(t, []int{0, 9}, indices)
	assert.Equal(t, []Type{GlobalMin, GlobalMax}, types)
}

func TestFindShortSeries(t *testing.T) {
	assert.Empty(t, Find(newSeries(), 7).Extrema)

	single := Find(newSeries(3), 7)
	require.Len(t, single.Extrema, 1)
	assert.Equal(t, Endpoint, single.Extrema[0].Type)
	assert.Nil(t, single.Extrema[0].PercentChange)

	allNaN := Find(newSeries(math.NaN(), math.NaN(), math.NaN()), 7)
	require.Len(t, allNaN.Extrema, 2)
}

func TestCollapse(t *testing.T) {
	values := make([]float64, 20)
	values[2], values[4], values[12] = 10, 10.5, 1

	found := []candidate{
		{index: 2, isMax: true, kind: LocalMax},
		{index: 4, isMax: true, kind: LocalMax},
		{index: 12, isMax: false, kind: LocalMin},
	}
	kept := collapse(found, values, 4)
	require.Len(t, kept, 2)
	assert.Equal(t, 4, kept[0].index)
	assert.Equal(t, 12, kept[1].index)

	values[4] = 10
	kept = collapse(found, values, 4)
	assert.Equal(t, 2, kept[0].index, "ties keep the earliest")

	kept = collapse(found, values, 1)
	assert.Len(t, kept, 3)
}

func TestReconcile(t *testing.T) {
	raw := []float64{5, 4, 1, 0, 2, 3, 9, 3, 2, 1, 0, 4, 5, 6, 7, 0, 2}

	found := []candidate{
		{index: 3, kind: LocalMin},
		{index: 10, kind: LocalMin},
		{index: 15, kind: LocalMin},
	}
	result := reconcile(found, raw, raw, 2)

	var indices []int
	for _, c := range result {
		indices = append(indices, c.index)
	}
	assert.Equal(t, []int{3, 6, 10, 14, 15}, indices)
	assert.True(t, result[1].isMax)
	assert.Equal(t, LocalMax, result[1].kind)

	close := []candidate{
		{index: 3, kind: LocalMin},
		{index: 5, kind: LocalMin},
	}
	result = reconcile(close, raw, raw, 7)
	require.Len(t, result, 1)
	assert.Equal(t, 3, result[0].index)
}

func TestFindAlternates(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for run := 0; run < 500; run++ {
		n := 1 + r.Intn(80)
		win := 1 + r.Intn(12)
		values := make([]float64, n)
		for i := range values {
			switch r.Intn(4) {
			case 0:
				values[i] = float64(r.Intn(4))
			case 1:
				values[i] = 1
			default:
				values[i] = r.Float64() * 100
			}
		}

		summary := Find(newSeries(values...), win)
		assertAlternates(t, summary, "run %d: %v win %d", run, values, win)
		for i := 1; i < len(summary.Extrema); i++ {
			require.True(t, summary.Extrema[i-1].Date.Before(summary.Extrema[i].Date))
		}
	}
}

func assertAlternates(t *testing.T, s Summary, msgAndArgs ...interface{}) {
	e := s.Extrema
	for i := range e {
		if e[i].Type == Endpoint {
			require.True(t, i == 0 || i == len(e)-1, msgAndArgs...)
		}
		if i == 0 || e[i].Type == Endpoint || e[i-1].Type == Endpoint {
			continue
		}
		require.NotEqual(t, e[i-1].Type.IsMax(), e[i].Type.IsMax(), msgAndArgs...)
	}
}

func TestFindGlobalEndpointAfterSameType(t *testing.T) {
	ts := newSeries(7, 2, 5, 1, 3, 5, 7, 3, 0, 6, 6, 2, 0, 0)

	summary := Find(ts, 3)
	indices, types := indexTypes(ts, summary)

	// the last day is the global minimum, so the local minimum at day 8
	// before it is dropped
	assert.Equal(t, []int{0, 3, 6, 13}, indices)
	assert.Equal(t, []Type{Endpoint, LocalMin, GlobalMax, GlobalMin}, types)
	require.NotNil(t, summary.Extrema[3].PercentChange)
	assert.InDelta(t, -100, float64(*summary.Extrema[3].PercentChange), 1e-9)
	assertAlternates(t, summary)
}

func TestAlternate(t *testing.T) {
	smoothed := []float64{9, 5, 8, 1, 9}

	// interior maximum next to a global endpoint maximum of the same value
	result := alternate([]candidate{
		{index: 0, isMax: true, kind: GlobalMax},
		{index: 2, isMax: true, kind: LocalMax},
		{index: 3, isMax: false, kind: LocalMin},
		{index: 4, isMax: true, kind: GlobalMax},
	}, smoothed, 5)
	require.Len(t, result, 3)
	assert.Equal(t, 0, result[0].index)
	assert.Equal(t, GlobalMax, result[0].kind)
	assert.Equal(t, 3, result[1].index)
	assert.Equal(t, GlobalMax, result[2].kind)

	// two endpoints of the same type with nothing between them
	result = alternate([]candidate{
		{index: 0, isMax: true, kind: GlobalMax},
		{index: 1, isMax: true, kind: GlobalMax},
	}, []float64{3, 3}, 2)
	require.Len(t, result, 2)
	assert.Equal(t, GlobalMax, result[0].kind)
	assert.Equal(t, Endpoint, result[1].kind)
}

func TestSummaryAccessors(t *testing.T) {
	ts := newSeries(ramp(1, 10)...)
	summary := Find(ts, 3)

	e, ok := summary.At(day0.AddDate(0, 0, 9).Add(5 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, 10.0, e.Value)

	_, ok = summary.At(day0.AddDate(0, 0, 4))
	assert.False(t, ok)

	assert.Equal(t, []time.Time{day0, day0.AddDate(0, 0, 9)}, summary.Dates())

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date":"2020-06-01","value":1,"type":"GLOBAL_MIN","percent_change":null`)
	assert.Contains(t, string(data), `"percent_change":900`)

	data, err = json.Marshal(Summary{})
	require.NoError(t, err)
	assert.Equal(t, `{"metric":"","extrema":[]}`, string(data))
}
