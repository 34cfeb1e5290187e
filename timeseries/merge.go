package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bitmark-inc/covid-trends/schema"
)

var (
	ErrNoFragments = fmt.Errorf("no fragments to merge")
)

// MergeOptions controls the post-processing applied to every merged series.
type MergeOptions struct {
	// Source tags merged series; empty keeps the source of the first fragment.
	Source string
	// DefaultValue fills days no fragment covers.
	DefaultValue float64
	// MaxLeadingZeros is the number of leading zero days kept, negative
	// disables trimming.
	MaxLeadingZeros int
	// CumulativeMetrics are coerced increasing. Rates must not be listed.
	CumulativeMetrics []string
	// IntegerMetrics are marked integer valued.
	IntegerMetrics []string
}

// DefaultMergeOptions suits cumulative case and death counts.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{
		MaxLeadingZeros:   3,
		CumulativeMetrics: []string{"cases", "deaths"},
		IntegerMetrics:    []string{"cases", "deaths"},
	}
}

func (o MergeOptions) isCumulative(metric string) bool {
	return contains(o.CumulativeMetrics, metric)
}

func (o MergeOptions) isInteger(metric string) bool {
	return contains(o.IntegerMetrics, metric)
}

// Finish applies coercion and leading zero trimming to a merged series.
func (o MergeOptions) Finish(ts TimeSeries) TimeSeries {
	if o.Source != "" {
		ts = ts.With(WithSource(o.Source))
	}
	if o.isInteger(ts.Metric) {
		ts = ts.With(WithIntValues(true))
	}
	if o.isCumulative(ts.Metric) {
		ts = ts.CoerceIncreasing()
	}
	if o.MaxLeadingZeros >= 0 {
		ts = ts.TrimLeadingZeros(o.MaxLeadingZeros)
	}
	return ts
}

// Merge combines two partial series of the same key. The result spans the
// union of both spans and holds the larger of the two values on every day,
// where a series reads as its DefaultValue outside its own span. NaN loses
// against any number. Attributes other than the values come from a.
func Merge(a, b TimeSeries) TimeSeries {
	if a.IsEmpty() {
		return b.With(WithDefaultValue(maxOf(a.DefaultValue, b.DefaultValue)))
	}
	if b.IsEmpty() {
		return a.With(WithDefaultValue(maxOf(a.DefaultValue, b.DefaultValue)))
	}

	start := earliest(a.Start, b.Start)
	end := latest(a.End(), b.End())

	values := make([]float64, DaysBetween(start, end)+1)
	for i := range values {
		date := start.AddDate(0, 0, i)
		values[i] = maxOf(a.ValueAt(date), b.ValueAt(date))
	}

	return a.With(
		WithValues(start, values),
		WithDefaultValue(maxOf(a.DefaultValue, b.DefaultValue)),
	)
}

// MergeAll reduces partial series pairwise with Merge. Max-merge is
// associative and commutative so the order of series does not matter.
func MergeAll(series []TimeSeries) (TimeSeries, error) {
	if len(series) == 0 {
		return TimeSeries{}, ErrNoFragments
	}

	merged := series[0]
	for _, s := range series[1:] {
		merged = Merge(merged, s)
	}
	return merged, nil
}

// FromFragments builds one continuous series out of the raw observations
// of a single key. Days with several observations keep the largest; days
// without any read as defaultValue.
func FromFragments(fragments []schema.Fragment, defaultValue float64) (TimeSeries, error) {
	if len(fragments) == 0 {
		return TimeSeries{}, ErrNoFragments
	}

	first := fragments[0]
	start, end := Date(first.Date), Date(first.Date)
	for _, f := range fragments[1:] {
		start = earliest(start, Date(f.Date))
		end = latest(end, Date(f.Date))
	}

	values := make([]float64, DaysBetween(start, end)+1)
	seen := make([]bool, len(values))
	for _, f := range fragments {
		i := DaysBetween(start, f.Date)
		if seen[i] {
			values[i] = maxOf(values[i], f.Value)
		} else {
			values[i] = f.Value
			seen[i] = true
		}
	}
	for i := range values {
		if !seen[i] {
			values[i] = defaultValue
		}
	}

	return TimeSeries{
		Source:       first.Source,
		AreaID:       first.AreaID,
		Metric:       first.Metric,
		Qualifier:    first.Qualifier,
		DefaultValue: defaultValue,
		Start:        start,
		Values:       values,
	}, nil
}

// GroupFragments buckets fragments by key.
func GroupFragments(fragments []schema.Fragment) map[Key][]schema.Fragment {
	groups := make(map[Key][]schema.Fragment)
	for _, f := range fragments {
		key := Key{AreaID: f.AreaID, Metric: f.Metric, Qualifier: f.Qualifier}
		groups[key] = append(groups[key], f)
	}
	return groups
}

// MergeGroup merges the fragments of one key. Fragments from each source
// form one partial series and the partial series are max-merged.
func MergeGroup(fragments []schema.Fragment, opts MergeOptions) (TimeSeries, error) {
	if len(fragments) == 0 {
		return TimeSeries{}, ErrNoFragments
	}

	bySource := make(map[string][]schema.Fragment)
	var sources []string
	for _, f := range fragments {
		if _, ok := bySource[f.Source]; !ok {
			sources = append(sources, f.Source)
		}
		bySource[f.Source] = append(bySource[f.Source], f)
	}

	partials := make([]TimeSeries, 0, len(sources))
	for _, source := range sources {
		partial, err := FromFragments(bySource[source], opts.DefaultValue)
		if err != nil {
			return TimeSeries{}, err
		}
		partials = append(partials, partial)
	}

	merged, err := MergeAll(partials)
	if err != nil {
		return TimeSeries{}, err
	}
	return opts.Finish(merged), nil
}

// MergeFragments produces exactly one series per distinct key, sorted by key.
func MergeFragments(fragments []schema.Fragment, opts MergeOptions) ([]TimeSeries, error) {
	if len(fragments) == 0 {
		return nil, ErrNoFragments
	}

	groups := GroupFragments(fragments)
	result := make([]TimeSeries, 0, len(groups))
	for _, group := range groups {
		ts, err := MergeGroup(group, opts)
		if err != nil {
			return nil, err
		}
		result = append(result, ts)
	}
	SortByKey(result)
	return result, nil
}

// SortByKey orders series by area, metric, then qualifier.
func SortByKey(series []TimeSeries) {
	sort.Slice(series, func(i, j int) bool {
		return KeyLess(series[i].Key(), series[j].Key())
	})
}

func KeyLess(a, b Key) bool {
	if a.AreaID != b.AreaID {
		return a.AreaID < b.AreaID
	}
	if a.Metric != b.Metric {
		return a.Metric < b.Metric
	}
	return a.Qualifier < b.Qualifier
}

func maxOf(a, b float64) float64 {
	if math.IsNaN(a) {
		return b
	}
	if math.IsNaN(b) {
		return a
	}
	return math.Max(a, b)
}

func earliest(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
