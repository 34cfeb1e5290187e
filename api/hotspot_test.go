package api

import (
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/covid-trends/area"
	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

// doubling every five days for sixty days
func exponentialSeries(areaID string) timeseries.TimeSeries {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100 * math.Pow(2, float64(i)/5)
	}
	return timeseries.New(casesKey(areaID), start, values)
}

func county(id string, pop int64) schema.AreaInfo {
	return schema.AreaInfo{ID: id, Type: schema.AreaCounty, Parent: "texas", Population: &pop}
}

func TestGetHotspot(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	s.cache.EXPECT().Get(casesKey("harris")).Return(exponentialSeries("harris"), true).Times(1)
	s.directory.EXPECT().Find("harris").Return(county("harris", 1000000), nil).Times(1)

	w := s.do("GET", "/api/series/harris/cases/hotspot", nil)
	assert.Equal(t, http.StatusOK, w.Code, "wrong status code")

	body := decode(t, w)
	assert.Equal(t, "harris", body["area"])
	assert.Equal(t, "county", body["area_type"])
	assert.Equal(t, 7.0, body["total_severity"])
	assert.InDelta(t, 3163.7129, body["daily_change_7_per_capita"], 1e-3)
}

func TestGetHotspotUnknownArea(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	s.cache.EXPECT().Get(casesKey("atlantis")).Return(exponentialSeries("atlantis"), true).Times(1)
	s.directory.EXPECT().Find("atlantis").Return(schema.AreaInfo{}, area.ErrAreaNotFound).Times(1)

	w := s.do("GET", "/api/series/atlantis/cases/hotspot", nil)
	assert.Equal(t, http.StatusOK, w.Code, "wrong status code")

	body := decode(t, w)
	assert.Equal(t, "unknown", body["area_type"])
	assert.Nil(t, body["value_per_capita"])
	assert.Nil(t, body["severity_by_change"])
	assert.NotNil(t, body["severity_by_doubling"])
}

func TestGetHotspots(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	s.cache.EXPECT().LoadedAt().Return(loadedAt).AnyTimes()
	s.cache.EXPECT().Find("cases", "").Return([]timeseries.TimeSeries{
		exponentialSeries("atlantis"),
		exponentialSeries("harris"),
	}).Times(2)
	s.directory.EXPECT().Find(gomock.Any()).DoAndReturn(func(id string) (schema.AreaInfo, error) {
		if id == "harris" {
			return county("harris", 1000000), nil
		}
		return schema.AreaInfo{}, area.ErrAreaNotFound
	}).AnyTimes()

	w := s.do("GET", "/api/hotspots", nil)
	assert.Equal(t, http.StatusOK, w.Code, "wrong status code")

	body := decode(t, w)
	assert.Equal(t, "cases", body["metric"])
	hotspots := body["hotspots"].([]interface{})
	require.Len(t, hotspots, 2)
	assert.Equal(t, "harris", hotspots[0].(map[string]interface{})["area"])
	assert.Equal(t, "atlantis", hotspots[1].(map[string]interface{})["area"])

	w = s.do("GET", "/api/hotspots?type=county&limit=5", nil)
	assert.Equal(t, http.StatusOK, w.Code, "wrong status code")
	hotspots = decode(t, w)["hotspots"].([]interface{})
	require.Len(t, hotspots, 1)
	assert.Equal(t, "harris", hotspots[0].(map[string]interface{})["area"])
}

func TestGetHotspotsEmpty(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	s.cache.EXPECT().LoadedAt().Return(loadedAt).Times(1)
	s.cache.EXPECT().Find("deaths", "").Return(nil).Times(1)

	w := s.do("GET", "/api/hotspots?metric=deaths", nil)
	assert.Equal(t, http.StatusOK, w.Code, "wrong status code")
	assert.Equal(t, []interface{}{}, decode(t, w)["hotspots"])
}

func TestGetHotspotsErrors(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	s.cache.EXPECT().LoadedAt().Return(time.Time{}).Times(1)
	w := s.do("GET", "/api/hotspots", nil)
	assertErrorCode(t, w, http.StatusServiceUnavailable, errorCacheNotLoaded)

	s.cache.EXPECT().LoadedAt().Return(loadedAt).Times(2)
	w = s.do("GET", "/api/hotspots?type=galaxy", nil)
	assertErrorCode(t, w, http.StatusBadRequest, errorInvalidAreaType)

	w = s.do("GET", "/api/hotspots?limit=-1", nil)
	assertErrorCode(t, w, http.StatusBadRequest, errorInvalidParameters)
}
