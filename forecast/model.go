package forecast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bitmark-inc/covid-trends/timeseries"
)

// Model names a published forecast whose CSV rows can be imported as
// series. The name doubles as the series qualifier.
type Model string

const (
	IHME Model = "IHME"
	LANL Model = "LANL"
	YYG  Model = "YYG"
)

var (
	ErrUnknownModel  = fmt.Errorf("unknown forecast model")
	ErrMissingColumn = fmt.Errorf("missing column")
)

// Record is one CSV row keyed by header name.
type Record map[string]string

// Estimate is what a model row says about one region on one day.
type Estimate struct {
	Region string
	Date   time.Time
	Values map[string]float64
}

type layout struct {
	region  string
	date    string
	metrics map[string]string
}

var layouts = map[Model]layout{
	IHME: {
		region: "location_name",
		date:   "date",
		metrics: map[string]string{
			"deaths":       "totdea_mean",
			"daily_deaths": "deaths_mean",
		},
	},
	LANL: {
		region: "state",
		date:   "dates",
		metrics: map[string]string{
			"deaths": "q.50",
		},
	},
	YYG: {
		region: "region",
		date:   "date",
		metrics: map[string]string{
			"deaths":       "predicted_total_deaths_mean",
			"daily_deaths": "predicted_deaths_mean",
			"infected":     "predicted_total_infected_mean",
		},
	},
}

// Models lists every supported model.
func Models() []Model {
	return []Model{IHME, LANL, YYG}
}

func ParseModel(s string) (Model, error) {
	m := Model(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := layouts[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
	}
	return m, nil
}

// Metrics returns the metric names the model publishes.
func (m Model) Metrics() []string {
	l, ok := layouts[m]
	if !ok {
		return nil
	}
	metrics := make([]string, 0, len(l.metrics))
	for metric := range l.metrics {
		metrics = append(metrics, metric)
	}
	return metrics
}

// Extract reads the region, date and metric values out of one row. Blank
// and NA cells read as NaN.
func (m Model) Extract(record Record) (Estimate, error) {
	l, ok := layouts[m]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %q", ErrUnknownModel, string(m))
	}

	region, ok := record[l.region]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %s", ErrMissingColumn, l.region)
	}

	rawDate, ok := record[l.date]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %s", ErrMissingColumn, l.date)
	}
	date, err := timeseries.ParseDate(strings.TrimSpace(rawDate))
	if err != nil {
		return Estimate{}, fmt.Errorf("%s %s: %w", m, l.date, err)
	}

	values := make(map[string]float64, len(l.metrics))
	for metric, column := range l.metrics {
		raw, ok := record[column]
		if !ok {
			return Estimate{}, fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
		v, err := parseCell(raw)
		if err != nil {
			return Estimate{}, fmt.Errorf("%s %s: %w", m, column, err)
		}
		values[metric] = v
	}

	return Estimate{
		Region: strings.TrimSpace(region),
		Date:   date,
		Values: values,
	}, nil
}

func parseCell(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "NA") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(raw, 64)
}
