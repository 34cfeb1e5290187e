package extrema

import (
	"encoding/json"
	"math"

	"github.com/bitmark-inc/covid-trends/numeric"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

// An earlier extremum anchors the current trend when it lies at least
// anchorDays back, or at least minAnchorDays back with a relative change
// of minAnchorChange, or at any distance with a change of anchorChange.
const (
	anchorDays      = 14
	minAnchorDays   = 7
	minAnchorChange = 0.10
	anchorChange    = 0.20
)

// Trend describes the movement from an anchor extremum to the latest one.
type Trend struct {
	Current Info
	Anchor  Info
	// Days is positive while rising and negative while falling.
	Days          int
	PercentChange float64
}

func (t Trend) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Current       Info          `json:"current"`
		Anchor        Info          `json:"anchor"`
		Days          int           `json:"days"`
		PercentChange numeric.Float `json:"percent_change"`
	}{t.Current, t.Anchor, t.Days, numeric.Float(t.PercentChange)})
}

// CurrentTrend derives the trend ending at the latest extremum. It falls
// back to the earliest extremum when none qualifies as an anchor, and
// reports false for an empty summary.
func CurrentTrend(s Summary) (Trend, bool) {
	if len(s.Extrema) == 0 {
		return Trend{}, false
	}

	current := s.Extrema[len(s.Extrema)-1]
	anchor := s.Extrema[0]
	for i := len(s.Extrema) - 2; i >= 0; i-- {
		if isAnchor(current, s.Extrema[i]) {
			anchor = s.Extrema[i]
			break
		}
	}

	days := timeseries.DaysBetween(anchor.Date, current.Date)
	switch {
	case current.Value > anchor.Value:
	case current.Value < anchor.Value:
		days = -days
	default:
		days = 0
	}

	return Trend{
		Current:       current,
		Anchor:        anchor,
		Days:          days,
		PercentChange: (current.Value - anchor.Value) / anchor.Value * 100,
	}, true
}

func isAnchor(current, candidate Info) bool {
	days := timeseries.DaysBetween(candidate.Date, current.Date)
	change := math.Abs(current.Value-candidate.Value) / math.Abs(current.Value)

	return days >= anchorDays ||
		(days >= minAnchorDays && change >= minAnchorChange) ||
		change >= anchorChange
}
