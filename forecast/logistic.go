// Package forecast projects where a cumulative series levels off.
//
// Under logistic growth the symmetric daily growth rate is a linear
// function of the cumulative total, with slope -k and intercept k*L. A
// least squares line through (total, growth) therefore gives the
// asymptotic total L as -intercept/slope. The fit is repeated over every
// window of W consecutive days so the projection can be followed over time.
package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/bitmark-inc/covid-trends/numeric"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

const (
	DefaultWindow   = 20
	MinWindow       = 4
	ConfidenceLevel = 0.95
)

var (
	ErrWindowTooSmall = fmt.Errorf("window must hold at least %d days", MinWindow)
)

// Prediction is the fit of one window.
type Prediction struct {
	// Date is the first day after the window.
	Date      time.Time
	Intercept float64
	Slope     float64
	// KTotal is the projected asymptotic total.
	KTotal float64
	// PeakGrowth is the projected largest daily increase.
	PeakGrowth float64
	DaysToPeak float64
	MinSlope   float64
	MaxSlope   float64
	// MinKTotal and MaxKTotal are +Inf when the matching slope bound is not
	// negative.
	MinKTotal float64
	MaxKTotal float64
}

// HasBoundedConfidence reports whether the slope and both of its
// confidence bounds are strictly negative. Only such predictions carry a
// finite asymptote and may be surfaced.
func (p Prediction) HasBoundedConfidence() bool {
	return p.Slope < 0 && p.MinSlope < 0 && p.MaxSlope < 0
}

type jsonPrediction struct {
	Date                 string        `json:"date"`
	Intercept            numeric.Float `json:"intercept"`
	Slope                numeric.Float `json:"slope"`
	KTotal               numeric.Float `json:"k_total"`
	PeakGrowth           numeric.Float `json:"peak_growth"`
	DaysToPeak           numeric.Float `json:"days_to_peak"`
	MinSlope             numeric.Float `json:"min_slope"`
	MaxSlope             numeric.Float `json:"max_slope"`
	MinKTotal            numeric.Float `json:"min_k_total"`
	MaxKTotal            numeric.Float `json:"max_k_total"`
	HasBoundedConfidence bool          `json:"has_bounded_confidence"`
}

func (p Prediction) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonPrediction{
		Date:                 p.Date.Format(timeseries.DateLayout),
		Intercept:            numeric.Float(p.Intercept),
		Slope:                numeric.Float(p.Slope),
		KTotal:               numeric.Float(p.KTotal),
		PeakGrowth:           numeric.Float(p.PeakGrowth),
		DaysToPeak:           numeric.Float(p.DaysToPeak),
		MinSlope:             numeric.Float(p.MinSlope),
		MaxSlope:             numeric.Float(p.MaxSlope),
		MinKTotal:            numeric.Float(p.MinKTotal),
		MaxKTotal:            numeric.Float(p.MaxKTotal),
		HasBoundedConfidence: p.HasBoundedConfidence(),
	})
}

// FitWindow fits one window of cumulative values. The window must hold at
// least MinWindow values; the returned Date is left zero.
func FitWindow(window []float64) Prediction {
	x := window[1:]
	y := numeric.SymmetricGrowth(window)

	reg := numeric.Regress(x, y)
	minSlope, maxSlope := reg.SlopeConfidenceInterval(ConfidenceLevel)

	kTotal := asymptote(reg.Intercept, reg.Slope)
	last := window[len(window)-1]

	return Prediction{
		Intercept:  reg.Intercept,
		Slope:      reg.Slope,
		KTotal:     kTotal,
		PeakGrowth: 0.25 * kTotal * reg.Intercept,
		DaysToPeak: math.Log((kTotal-last)/last) / reg.Intercept,
		MinSlope:   minSlope,
		MaxSlope:   maxSlope,
		MinKTotal:  asymptote(reg.Intercept, minSlope),
		MaxKTotal:  asymptote(reg.Intercept, maxSlope),
	}
}

// Predict fits every window of size consecutive days of ts. Prediction i
// covers ts.Start+i .. ts.Start+i+size-1 and is dated ts.Start+i+size.
// A series shorter than the window yields no predictions.
func Predict(ts timeseries.TimeSeries, size int) ([]Prediction, error) {
	if size < MinWindow {
		return nil, ErrWindowTooSmall
	}

	windows := numeric.SlidingWindow(ts.Values, size, false)
	predictions := make([]Prediction, len(windows))
	for i, w := range windows {
		p := FitWindow(w)
		p.Date = ts.DateAt(i + size)
		predictions[i] = p
	}
	return predictions, nil
}

// Bounded keeps the predictions with bounded confidence.
func Bounded(predictions []Prediction) []Prediction {
	result := make([]Prediction, 0, len(predictions))
	for _, p := range predictions {
		if p.HasBoundedConfidence() {
			result = append(result, p)
		}
	}
	return result
}

// PredictBounded is Predict followed by Bounded.
func PredictBounded(ts timeseries.TimeSeries, size int) ([]Prediction, error) {
	predictions, err := Predict(ts, size)
	if err != nil {
		return nil, err
	}
	return Bounded(predictions), nil
}

func asymptote(intercept, slope float64) float64 {
	if math.IsNaN(slope) {
		return math.NaN()
	}
	if slope >= 0 {
		return math.Inf(1)
	}
	return -intercept / slope
}
