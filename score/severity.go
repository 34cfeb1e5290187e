package score

import (
	"fmt"
	"math"
	"strings"
)

// RiskLevel is the ordinal hotspot severity. Its integer value is used
// when severities are summed.
type RiskLevel int

const (
	RiskMinor RiskLevel = iota
	RiskMarginal
	RiskModerate
	RiskUrgent
	RiskSevere
	RiskCritical
)

var riskLevelNames = []string{"MINOR", "MARGINAL", "MODERATE", "URGENT", "SEVERE", "CRITICAL"}

func (l RiskLevel) String() string {
	if l < RiskMinor || l > RiskCritical {
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
	return riskLevelNames[l]
}

func (l RiskLevel) Level() int {
	return int(l)
}

func (l RiskLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *RiskLevel) UnmarshalText(text []byte) error {
	name := strings.ToUpper(string(text))
	for i, n := range riskLevelNames {
		if n == name {
			*l = RiskLevel(i)
			return nil
		}
	}
	return fmt.Errorf("invalid risk level %q", string(text))
}

// Multiples of the base level at which change-based severity rises.
const (
	criticalChange = 500
	severeChange   = 100
	urgentChange   = 20
	moderateChange = 5
	marginalChange = 1
)

// SeverityByChange buckets a per-capita daily change against multiples of
// the metric's base level.
func SeverityByChange(dailyChangePerCapita, baseLevel float64) RiskLevel {
	switch v := dailyChangePerCapita; {
	case v >= criticalChange*baseLevel:
		return RiskCritical
	case v >= severeChange*baseLevel:
		return RiskSevere
	case v >= urgentChange*baseLevel:
		return RiskUrgent
	case v >= moderateChange*baseLevel:
		return RiskModerate
	case v >= marginalChange*baseLevel:
		return RiskMarginal
	}
	return RiskMinor
}

// DoublingThresholds are the largest doubling times, in days, that still
// reach each level. Faster doubling is more severe.
type DoublingThresholds struct {
	Critical float64 `mapstructure:"critical"`
	Severe   float64 `mapstructure:"severe"`
	Urgent   float64 `mapstructure:"urgent"`
	Moderate float64 `mapstructure:"moderate"`
	Marginal float64 `mapstructure:"marginal"`
}

func DefaultDoublingThresholds() DoublingThresholds {
	return DoublingThresholds{
		Critical: 2,
		Severe:   3,
		Urgent:   4,
		Moderate: 10, // a 10 day doubling time must still rate moderate
		Marginal: 14,
	}
}

// SeverityByDoubling buckets a doubling time. Shrinking, flat and
// undefined series (negative, zero, infinite or NaN times) are minor.
func SeverityByDoubling(days float64, thresholds DoublingThresholds) RiskLevel {
	if math.IsNaN(days) || math.IsInf(days, 0) || days <= 0 {
		return RiskMinor
	}

	switch {
	case days <= thresholds.Critical:
		return RiskCritical
	case days <= thresholds.Severe:
		return RiskSevere
	case days <= thresholds.Urgent:
		return RiskUrgent
	case days <= thresholds.Moderate:
		return RiskModerate
	case days <= thresholds.Marginal:
		return RiskMarginal
	}
	return RiskMinor
}

// RiskConfig parameterizes the hotspot computation.
type RiskConfig struct {
	// BaseLevels is the per-capita daily change per metric that counts as
	// marginal. Metrics without a base level get no change severity.
	BaseLevels   map[string]float64
	Doubling     DoublingThresholds
	SampleWindow int
}

func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		BaseLevels: map[string]float64{
			"deaths": 0.01,
			"cases":  0.1,
		},
		Doubling:     DefaultDoublingThresholds(),
		SampleWindow: 7,
	}
}

func (c RiskConfig) BaseLevel(metric string) (float64, bool) {
	base, ok := c.BaseLevels[metric]
	return base, ok && base > 0
}
