package timeseries

import (
	"encoding/json"

	"github.com/bitmark-inc/covid-trends/numeric"
)

type jsonSeries struct {
	Source       string          `json:"source"`
	AreaID       string          `json:"area"`
	Metric       string          `json:"metric"`
	Qualifier    string          `json:"qualifier,omitempty"`
	IntValues    bool            `json:"int_values"`
	DefaultValue numeric.Float   `json:"default_value"`
	Start        string          `json:"start"`
	End          string          `json:"end"`
	Values       []numeric.Float `json:"values"`
}

func (ts TimeSeries) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonSeries{
		Source:       ts.Source,
		AreaID:       ts.AreaID,
		Metric:       ts.Metric,
		Qualifier:    ts.Qualifier,
		IntValues:    ts.IntValues,
		DefaultValue: numeric.Float(ts.DefaultValue),
		Start:        ts.Start.Format(DateLayout),
		End:          ts.End().Format(DateLayout),
		Values:       numeric.Floats(ts.Values),
	})
}

func (ts *TimeSeries) UnmarshalJSON(data []byte) error {
	var js jsonSeries
	if err := json.Unmarshal(data, &js); err != nil {
		return err
	}

	start, err := ParseDate(js.Start)
	if err != nil {
		return err
	}

	values := make([]float64, len(js.Values))
	for i, v := range js.Values {
		values[i] = float64(v)
	}

	*ts = TimeSeries{
		Source:       js.Source,
		AreaID:       js.AreaID,
		Metric:       js.Metric,
		Qualifier:    js.Qualifier,
		IntValues:    js.IntValues,
		DefaultValue: float64(js.DefaultValue),
		Start:        start,
		Values:       values,
	}
	return nil
}
