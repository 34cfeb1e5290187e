// Package timeseries holds the daily series value type, the transforms
// that derive new series from it, the merge engine that turns raw
// fragments into one series per key, and the tab-separated line codec.
//
// A TimeSeries is never modified after construction. Every operation
// returns a new value, so series can be shared freely between goroutines.
package timeseries

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Key identifies one series.
type Key struct {
	AreaID    string `json:"area" bson:"area"`
	Metric    string `json:"metric" bson:"metric"`
	Qualifier string `json:"qualifier" bson:"qualifier"`
}

func (k Key) String() string {
	if k.Qualifier == "" {
		return fmt.Sprintf("%s/%s", k.AreaID, k.Metric)
	}
	return fmt.Sprintf("%s/%s/%s", k.AreaID, k.Metric, k.Qualifier)
}

// TimeSeries is a continuous run of daily values. Values[i] belongs to the
// date Start+i.
type TimeSeries struct {
	Source       string
	AreaID       string
	Metric       string
	Qualifier    string
	IntValues    bool
	DefaultValue float64
	Start        time.Time
	Values       []float64
}

// Date truncates t to its calendar day in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a yyyy-mm-dd date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DaysBetween returns the whole number of calendar days from a to b. It
// counts dates, not durations, so spans of any length are exact.
func DaysBetween(a, b time.Time) int {
	return dayNumber(b) - dayNumber(a)
}

// dayNumber counts days since 0001-01-01 in the proleptic Gregorian
// calendar.
func dayNumber(t time.Time) int {
	y := t.Year() - 1
	return 365*y + floorDiv(y, 4) - floorDiv(y, 100) + floorDiv(y, 400) + t.YearDay() - 1
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func (ts TimeSeries) Key() Key {
	return Key{AreaID: ts.AreaID, Metric: ts.Metric, Qualifier: ts.Qualifier}
}

func (ts TimeSeries) Len() int {
	return len(ts.Values)
}

func (ts TimeSeries) IsEmpty() bool {
	return len(ts.Values) == 0
}

// End is the date of the last value. For an empty series it is the day
// before Start.
func (ts TimeSeries) End() time.Time {
	return ts.DateAt(len(ts.Values) - 1)
}

func (ts TimeSeries) DateAt(i int) time.Time {
	return ts.Start.AddDate(0, 0, i)
}

// IndexOf returns the index of date, which may fall outside [0, Len()).
func (ts TimeSeries) IndexOf(date time.Time) int {
	return DaysBetween(ts.Start, date)
}

// Contains reports whether date falls within the series span.
func (ts TimeSeries) Contains(date time.Time) bool {
	i := ts.IndexOf(date)
	return i >= 0 && i < len(ts.Values)
}

// ValueAt returns the value on date, or DefaultValue outside the span.
func (ts TimeSeries) ValueAt(date time.Time) float64 {
	i := ts.IndexOf(date)
	if i < 0 || i >= len(ts.Values) {
		return ts.DefaultValue
	}
	return ts.Values[i]
}

// Last returns the final value, or DefaultValue for an empty series.
func (ts TimeSeries) Last() float64 {
	if len(ts.Values) == 0 {
		return ts.DefaultValue
	}
	return ts.Values[len(ts.Values)-1]
}

// ValuesCopy returns a copy safe for the caller to modify.
func (ts TimeSeries) ValuesCopy() []float64 {
	values := make([]float64, len(ts.Values))
	copy(values, ts.Values)
	return values
}

// Option overrides one field when deriving a series with With.
type Option func(*TimeSeries)

func WithSource(source string) Option {
	return func(ts *TimeSeries) { ts.Source = source }
}

func WithArea(areaID string) Option {
	return func(ts *TimeSeries) { ts.AreaID = areaID }
}

func WithMetric(metric string) Option {
	return func(ts *TimeSeries) { ts.Metric = metric }
}

func WithQualifier(qualifier string) Option {
	return func(ts *TimeSeries) { ts.Qualifier = qualifier }
}

func WithIntValues(intValues bool) Option {
	return func(ts *TimeSeries) { ts.IntValues = intValues }
}

func WithDefaultValue(v float64) Option {
	return func(ts *TimeSeries) { ts.DefaultValue = v }
}

// WithValues replaces the values and their start date. The slice is taken
// over by the new series and must not be modified afterwards.
func WithValues(start time.Time, values []float64) Option {
	return func(ts *TimeSeries) {
		ts.Start = Date(start)
		ts.Values = values
	}
}

// With returns a copy of ts with the given overrides applied. Fields not
// overridden keep their current value.
func (ts TimeSeries) With(opts ...Option) TimeSeries {
	derived := ts
	for _, opt := range opts {
		opt(&derived)
	}
	return derived
}

// New builds a series for key starting at start.
func New(key Key, start time.Time, values []float64, opts ...Option) TimeSeries {
	ts := TimeSeries{
		AreaID:    key.AreaID,
		Metric:    key.Metric,
		Qualifier: key.Qualifier,
		Start:     Date(start),
		Values:    values,
	}
	return ts.With(opts...)
}
