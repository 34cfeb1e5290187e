package score

import (
	"time"

	"github.com/bitmark-inc/covid-trends/extrema"
	"github.com/bitmark-inc/covid-trends/numeric"
	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

const (
	week              = 7
	fortnight         = 14
	month             = 28
	doublingSmoothing = 7
)

// HotspotInfo summarizes how fast a cumulative series is growing. Fields
// that need more history than the series holds, or a population the area
// directory does not know, are nil.
type HotspotInfo struct {
	AreaID   string          `json:"area"`
	AreaType schema.AreaType `json:"area_type"`
	Metric   string          `json:"metric"`
	Date     time.Time       `json:"date"`

	Value          numeric.Float  `json:"value"`
	ValuePerCapita *numeric.Float `json:"value_per_capita"`

	DailyChange            *numeric.Float `json:"daily_change"`
	DailyChange7           *numeric.Float `json:"daily_change_7"`
	DailyChange28          *numeric.Float `json:"daily_change_28"`
	DailyChangePerCapita   *numeric.Float `json:"daily_change_per_capita"`
	DailyChange7PerCapita  *numeric.Float `json:"daily_change_7_per_capita"`
	DailyChange28PerCapita *numeric.Float `json:"daily_change_28_per_capita"`

	Change7           *numeric.Float `json:"change_7"`
	Change14          *numeric.Float `json:"change_14"`
	Change28          *numeric.Float `json:"change_28"`
	Change7PerCapita  *numeric.Float `json:"change_7_per_capita"`
	Change14PerCapita *numeric.Float `json:"change_14_per_capita"`
	Change28PerCapita *numeric.Float `json:"change_28_per_capita"`

	PercentInLast7     *numeric.Float `json:"percent_in_last_7"`
	PercentInLast7Of28 *numeric.Float `json:"percent_in_last_7_of_28"`

	DoublingTimeDays        *numeric.Float `json:"doubling_time_days"`
	DoublingTimeDays14      *numeric.Float `json:"doubling_time_days_14"`
	DoublingTimeDays28      *numeric.Float `json:"doubling_time_days_28"`
	DoublingTimeDaysRatio28 *numeric.Float `json:"doubling_time_days_ratio_28"`

	SeverityByChange   *RiskLevel `json:"severity_by_change"`
	SeverityByDoubling *RiskLevel `json:"severity_by_doubling"`
	TotalSeverity      int        `json:"total_severity"`

	Peak7      *numeric.Float `json:"peak_7"`
	Peak7Date  *time.Time     `json:"peak_7_date"`
	Peak14     *numeric.Float `json:"peak_14"`
	Peak14Date *time.Time     `json:"peak_14_date"`

	TrendDays                *int           `json:"trend_days"`
	ChangeSinceTrendExtremum *numeric.Float `json:"change_since_trend_extremum"`

	ThreeDayPercentChange *numeric.Float `json:"three_day_percent_change"`
	SevenDayPercentChange *numeric.Float `json:"seven_day_percent_change"`
}

// Hotspot computes the hotspot summary of a cumulative series for area.
func Hotspot(ts timeseries.TimeSeries, area schema.AreaInfo, cfg RiskConfig) HotspotInfo {
	info := HotspotInfo{
		AreaID:   ts.AreaID,
		AreaType: area.Type,
		Metric:   ts.Metric,
		Date:     ts.End(),
		Value:    numeric.Float(ts.Last()),
	}
	if ts.IsEmpty() {
		return info
	}

	population, hasPopulation := area.PopulationValue()
	perCapita := func(v *numeric.Float) *numeric.Float {
		if v == nil || !hasPopulation {
			return nil
		}
		return numeric.Ptr(float64(*v) / population * 1e5)
	}

	// true day-over-day differences, dated on the later day
	deltas := ts.Deltas(1).Tail(ts.Len() - 1)
	d := deltas.Values

	info.ValuePerCapita = perCapita(&info.Value)

	info.DailyChange = lastMean(d, 1)
	info.DailyChange7 = lastMean(d, week)
	info.DailyChange28 = lastMean(d, month)
	info.DailyChangePerCapita = perCapita(info.DailyChange)
	info.DailyChange7PerCapita = perCapita(info.DailyChange7)
	info.DailyChange28PerCapita = perCapita(info.DailyChange28)

	info.Change7 = lastSum(d, week)
	info.Change14 = lastSum(d, fortnight)
	info.Change28 = lastSum(d, month)
	info.Change7PerCapita = perCapita(info.Change7)
	info.Change14PerCapita = perCapita(info.Change14)
	info.Change28PerCapita = perCapita(info.Change28)

	info.PercentInLast7 = ratio(info.DailyChange7, &info.Value)
	info.PercentInLast7Of28 = ratio(info.DailyChange7, info.DailyChange28)

	smoothed := ts.MovingAverage(doublingSmoothing, false)
	info.DoublingTimeDays = lastDoublingTime(smoothed, 0)
	info.DoublingTimeDays14 = lastDoublingTime(smoothed, fortnight)
	info.DoublingTimeDays28 = lastDoublingTime(smoothed, month)
	info.DoublingTimeDaysRatio28 = ratio(info.DoublingTimeDays, info.DoublingTimeDays28)

	if base, ok := cfg.BaseLevel(ts.Metric); ok && info.DailyChange7PerCapita != nil {
		level := SeverityByChange(float64(*info.DailyChange7PerCapita), base)
		info.SeverityByChange = &level
		info.TotalSeverity += level.Level()
	}
	if info.DoublingTimeDays != nil {
		level := SeverityByDoubling(float64(*info.DoublingTimeDays), cfg.Doubling)
		info.SeverityByDoubling = &level
		info.TotalSeverity += level.Level()
	}

	info.Peak7, info.Peak7Date = peak(deltas, week)
	info.Peak14, info.Peak14Date = peak(deltas, fortnight)

	sampleWindow := cfg.SampleWindow
	if sampleWindow <= 0 {
		sampleWindow = extrema.DefaultSampleWindow
	}
	if trendSeries := deltas.MovingAverage(week, false); !trendSeries.IsEmpty() {
		if trend, ok := extrema.CurrentTrend(extrema.Find(trendSeries, sampleWindow)); ok {
			days := trend.Days
			info.TrendDays = &days
			info.ChangeSinceTrendExtremum = numeric.Ptr(trend.PercentChange)
		}
	}

	info.ThreeDayPercentChange = windowChange(d, 3)
	info.SevenDayPercentChange = windowChange(d, week)

	return info
}

// lastMean averages the last n values, nil if there are fewer.
func lastMean(values []float64, n int) *numeric.Float {
	if len(values) < n || n <= 0 {
		return nil
	}
	return numeric.Ptr(numeric.Mean(values[len(values)-n:]))
}

func lastSum(values []float64, n int) *numeric.Float {
	if len(values) < n || n <= 0 {
		return nil
	}
	return numeric.Ptr(numeric.Sum(values[len(values)-n:]))
}

func ratio(a, b *numeric.Float) *numeric.Float {
	if a == nil || b == nil {
		return nil
	}
	return numeric.Ptr(float64(*a) / float64(*b))
}

// lastDoublingTime is the latest doubling time measured against the value
// sinceDaysAgo days before, nil when the baseline predates the series.
func lastDoublingTime(ts timeseries.TimeSeries, sinceDaysAgo int) *numeric.Float {
	if ts.Len() < sinceDaysAgo+2 {
		return nil
	}
	tail := ts.Tail(sinceDaysAgo + 2)
	return numeric.Ptr(tail.DoublingTimes(sinceDaysAgo).Last())
}

// peak finds the largest total over bucket consecutive days and the last
// day of that window.
func peak(deltas timeseries.TimeSeries, bucket int) (*numeric.Float, *time.Time) {
	sums := deltas.MovingSum(bucket, false)
	i := numeric.ArgMax(sums.Values, 0, sums.Len())
	if i < 0 {
		return nil, nil
	}
	date := sums.DateAt(i)
	return numeric.Ptr(sums.Values[i]), &date
}

// windowChange compares the mean of the last n values with the mean of
// the n values before them, as a percentage.
func windowChange(values []float64, n int) *numeric.Float {
	if len(values) < 2*n {
		return nil
	}
	end := len(values)
	recent := numeric.Mean(values[end-n:])
	previous := numeric.Mean(values[end-2*n : end-n])
	return numeric.Ptr(ChangeRate(recent, previous))
}
