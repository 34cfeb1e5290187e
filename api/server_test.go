package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/covid-trends/api/mocks"
	"github.com/bitmark-inc/covid-trends/area"
	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

var (
	start    = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	loadedAt = time.Date(2020, 5, 1, 8, 0, 0, 0, time.UTC)
)

type testServer struct {
	ctl       *gomock.Controller
	store     *mocks.MockSeriesStore
	cache     *mocks.MockSeriesCache
	directory *mocks.MockDirectory
	router    *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	ctl := gomock.NewController(t)
	st := mocks.NewMockSeriesStore(ctl)
	cache := mocks.NewMockSeriesCache(ctl)
	directory := mocks.NewMockDirectory(ctl)

	s := NewServer(st, cache, directory, nil, Options{
		Version:     "test",
		AdminAPIKey: "secret",
	})

	gin.SetMode(gin.TestMode)
	return &testServer{
		ctl:       ctl,
		store:     st,
		cache:     cache,
		directory: directory,
		router:    s.setupRouter(),
	}
}

func (ts *testServer) do(method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, expected ErrorResponse) {
	assert.Equal(t, status, w.Code, "wrong status code")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, expected, resp)
}

func casesKey(areaID string) timeseries.Key {
	return timeseries.Key{AreaID: areaID, Metric: "cases"}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	s.store.EXPECT().Ping().Return(nil).Times(1)
	s.cache.EXPECT().Len().Return(3).Times(1)
	s.cache.EXPECT().LoadedAt().Return(loadedAt).Times(1)

	w := s.do("GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code, "wrong status code")

	body := decode(t, w)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, 3.0, body["series"])
}

func TestHealthzStoreDown(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	s.store.EXPECT().Ping().Return(fmt.Errorf("connection refused")).Times(1)

	w := s.do("GET", "/healthz", nil)
	assertErrorCode(t, w, http.StatusInternalServerError, errorInternalServer)
}

func TestReloadRequiresAPIToken(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	w := s.do("POST", "/secret/reload", nil)
	assertErrorCode(t, w, http.StatusForbidden, errorInvalidAPIToken)

	w = s.do("POST", "/secret/reload", map[string]string{"Api-Token": "guess"})
	assertErrorCode(t, w, http.StatusForbidden, errorInvalidAPIToken)
}

func TestReload(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	gomock.InOrder(
		s.cache.EXPECT().Reload().Return(nil),
		s.cache.EXPECT().Len().Return(12).Times(2),
	)
	s.cache.EXPECT().LoadedAt().Return(loadedAt).Times(1)

	w := s.do("POST", "/secret/reload", map[string]string{"Api-Token": "secret"})
	assert.Equal(t, http.StatusOK, w.Code, "wrong status code")

	body := decode(t, w)
	assert.Equal(t, 12.0, body["series"])
	assert.Equal(t, "2020-05-01T08:00:00Z", body["loaded_at"])
}

func TestReloadError(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	s.cache.EXPECT().Reload().Return(fmt.Errorf("store is down")).Times(1)

	w := s.do("POST", "/secret/reload", map[string]string{"Api-Token": "secret"})
	assertErrorCode(t, w, http.StatusInternalServerError, errorInternalServer)
}

func TestGetSeries(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	ts := timeseries.New(casesKey("texas"), start, []float64{1, math.NaN(), math.Inf(1)}, timeseries.WithSource("cds"))
	s.cache.EXPECT().Get(casesKey("texas")).Return(ts, true).Times(1)

	w := s.do("GET", "/api/series/texas/cases", nil)
	assert.Equal(t, http.StatusOK, w.Code, "wrong status code")

	body := decode(t, w)
	assert.Equal(t, "texas", body["area"])
	assert.Equal(t, "2020-03-01", body["start"])
	assert.Equal(t, "2020-03-03", body["end"])
	assert.Equal(t, []interface{}{1.0, nil, "Inf"}, body["values"])
}

func TestGetSeriesRestricted(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	key := timeseries.Key{AreaID: "texas", Metric: "deaths", Qualifier: "IHME"}
	ts := timeseries.New(key, start, []float64{1, 2, 3, 4})
	s.cache.EXPECT().Get(key).Return(ts, true).Times(1)

	w := s.do("GET", "/api/series/texas/deaths?qualifier=IHME&from=2020-03-02&to=2020-03-05", nil)
	assert.Equal(t, http.StatusOK, w.Code, "wrong status code")

	body := decode(t, w)
	assert.Equal(t, "IHME", body["qualifier"])
	assert.Equal(t, "2020-03-02", body["start"])
	assert.Equal(t, []interface{}{2.0, 3.0, 4.0, 0.0}, body["values"])
}

func TestGetSeriesErrors(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	s.cache.EXPECT().Get(casesKey("atlantis")).Return(timeseries.TimeSeries{}, false).Times(1)
	w := s.do("GET", "/api/series/atlantis/cases", nil)
	assertErrorCode(t, w, http.StatusNotFound, errorSeriesNotFound)

	ts := timeseries.New(casesKey("texas"), start, []float64{1, 2})
	s.cache.EXPECT().Get(casesKey("texas")).Return(ts, true).Times(3)

	w = s.do("GET", "/api/series/texas/cases?from=yesterday", nil)
	assertErrorCode(t, w, http.StatusBadRequest, errorInvalidDate)

	w = s.do("GET", "/api/series/texas/cases?from=2020-03-02&to=2020-03-01", nil)
	assertErrorCode(t, w, http.StatusBadRequest, errorInvalidDate)

	w = s.do("GET", "/api/series/texas/cases?from=0001-01-01", nil)
	assertErrorCode(t, w, http.StatusBadRequest, errorInvalidDate)
}

func TestGetArea(t *testing.T) {
	s := newTestServer(t)
	defer s.ctl.Finish()

	pop := int64(28995881)
	s.directory.EXPECT().Find("texas").Return(schema.AreaInfo{ID: "texas", Type: schema.AreaState, Population: &pop}, nil).Times(1)
	s.directory.EXPECT().Find("atlantis").Return(schema.AreaInfo{}, area.NewMultipleDirectoryErrors([]error{area.ErrAreaNotFound})).Times(1)

	w := s.do("GET", "/api/areas/texas", nil)
	assert.Equal(t, http.StatusOK, w.Code, "wrong status code")
	body := decode(t, w)
	assert.Equal(t, "state", body["type"])
	assert.Equal(t, 28995881.0, body["population"])

	w = s.do("GET", "/api/areas/atlantis", nil)
	assertErrorCode(t, w, http.StatusNotFound, errorAreaNotFound)
}
