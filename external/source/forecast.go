package source

import (
	"bytes"
	"context"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/covid-trends/forecast"
	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/utils"
)

// Forecast imports the published csv of a forecast model. Every series it
// produces is qualified with the model name.
type Forecast struct {
	name     string
	location string
	model    forecast.Model
}

func NewForecast(name, location string, model forecast.Model) *Forecast {
	return &Forecast{
		name:     name,
		location: location,
		model:    model,
	}
}

func (f *Forecast) Name() string {
	return f.name
}

func (f *Forecast) Fragments(ctx context.Context) ([]schema.Fragment, error) {
	data, err := fetch(ctx, f.location)
	if err != nil {
		return nil, err
	}
	return ParseForecast(f.name, f.model, data)
}

// ParseForecast decodes a model csv. Rows the model cannot read are
// skipped; missing estimates produce no fragment.
func ParseForecast(source string, model forecast.Model, data []byte) ([]schema.Fragment, error) {
	records, err := readRecords(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var fragments []schema.Fragment
	skipped := 0
	for _, r := range records {
		estimate, err := model.Extract(r)
		if err != nil {
			skipped++
			continue
		}

		areaID := utils.EnNameToKey(estimate.Region)
		for metric, v := range estimate.Values {
			if math.IsNaN(v) {
				continue
			}
			fragments = append(fragments, schema.Fragment{
				Source:    source,
				AreaID:    areaID,
				Metric:    metric,
				Qualifier: string(model),
				Date:      estimate.Date,
				Value:     v,
			})
		}
	}

	if skipped > 0 {
		log.WithFields(log.Fields{
			"prefix":  logPrefix,
			"source":  source,
			"model":   model,
			"skipped": skipped,
		}).Warn("skip unreadable forecast rows")
	}
	return fragments, nil
}
