package source

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/timeseries"
	"github.com/bitmark-inc/covid-trends/utils"
)

var defaultCDSMetrics = []string{"cases", "deaths"}

// cdsLocation is one entry of the coronadatascraper timeseries-byLocation
// data set, keyed by the full location name.
type cdsLocation struct {
	Level       string                        `json:"level"`
	Population  *int64                        `json:"population"`
	Coordinates []float64                     `json:"coordinates"`
	Dates       map[string]map[string]float64 `json:"dates"`
}

// AreaProvider is implemented by sources that also describe their areas.
type AreaProvider interface {
	Areas() []schema.AreaInfo
}

type CDS struct {
	sync.Mutex
	name     string
	location string
	metrics  []string
	areas    []schema.AreaInfo
}

// NewCDS - new coronadatascraper source
func NewCDS(name, location string, metrics ...string) *CDS {
	if len(metrics) == 0 {
		metrics = defaultCDSMetrics
	}
	return &CDS{
		name:     name,
		location: location,
		metrics:  metrics,
	}
}

func (c *CDS) Name() string {
	return c.name
}

func (c *CDS) Fragments(ctx context.Context) ([]schema.Fragment, error) {
	data, err := fetch(ctx, c.location)
	if err != nil {
		return nil, err
	}

	fragments, areas, err := ParseCDS(c.name, data, c.metrics)
	if err != nil {
		log.WithFields(log.Fields{"prefix": logPrefix, "source": c.name, "error": err}).Error("decode cds json")
		return nil, err
	}

	c.Lock()
	c.areas = areas
	c.Unlock()

	return fragments, nil
}

// Areas returns the areas seen by the last successful Fragments call.
func (c *CDS) Areas() []schema.AreaInfo {
	c.Lock()
	defer c.Unlock()
	return c.areas
}

// ParseCDS decodes a timeseries-byLocation document. Area ids are the
// normalized location names; the parent of "A, B, C" is "B, C".
func ParseCDS(source string, data []byte, metrics []string) ([]schema.Fragment, []schema.AreaInfo, error) {
	var locations map[string]cdsLocation
	if err := json.Unmarshal(data, &locations); err != nil {
		return nil, nil, err
	}

	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	sort.Strings(names)

	var fragments []schema.Fragment
	areas := make([]schema.AreaInfo, 0, len(names))
	for _, name := range names {
		loc := locations[name]
		areaID := utils.EnNameToKey(name)

		area := schema.AreaInfo{
			ID:         areaID,
			Type:       schema.ParseAreaType(loc.Level),
			Population: loc.Population,
		}
		if i := strings.Index(name, ","); i >= 0 {
			area.Parent = utils.EnNameToKey(name[i+1:])
		}
		if len(loc.Coordinates) == 2 {
			lng, lat := loc.Coordinates[0], loc.Coordinates[1]
			area.Longitude, area.Latitude = &lng, &lat
		}
		areas = append(areas, area)

		for rawDate, values := range loc.Dates {
			date, err := timeseries.ParseDate(rawDate)
			if err != nil {
				log.WithFields(log.Fields{"prefix": logPrefix, "name": name, "date": rawDate}).Warn("skip invalid cds date")
				continue
			}
			for _, metric := range metrics {
				v, ok := values[metric]
				if !ok {
					continue
				}
				fragments = append(fragments, schema.Fragment{
					Source: source,
					AreaID: areaID,
					Metric: metric,
					Date:   date,
					Value:  v,
				})
			}
		}
	}
	return fragments, areas, nil
}
