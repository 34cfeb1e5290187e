package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bitmark-inc/covid-trends/extrema"
	"github.com/bitmark-inc/covid-trends/forecast"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

// seriesFromRequest looks up the series named by the path and the
// qualifier query. It aborts the request when there is none.
func (s *Server) seriesFromRequest(c *gin.Context) (timeseries.TimeSeries, bool) {
	key := timeseries.Key{
		AreaID:    c.Param("area"),
		Metric:    c.Param("metric"),
		Qualifier: c.Query("qualifier"),
	}

	ts, ok := s.cache.Get(key)
	if !ok {
		abortWithEncoding(c, http.StatusNotFound, errorSeriesNotFound)
		return timeseries.TimeSeries{}, false
	}
	return ts, true
}

// positiveQuery reads an optional positive integer query parameter.
func positiveQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// maxSeriesDays bounds the span a restricted series may cover.
const maxSeriesDays = 100 * 366

func dateQuery(c *gin.Context, name string, fallback time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	t, err := timeseries.ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *Server) getSeries(c *gin.Context) {
	ts, ok := s.seriesFromRequest(c)
	if !ok {
		return
	}

	from, okFrom := dateQuery(c, "from", ts.Start)
	to, okTo := dateQuery(c, "to", ts.End())
	if !okFrom || !okTo || to.Before(from) || timeseries.DaysBetween(from, to) >= maxSeriesDays {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidDate)
		return
	}
	if !from.Equal(ts.Start) || !to.Equal(ts.End()) {
		ts = ts.Restrict(from, to)
	}

	c.JSON(http.StatusOK, ts)
}

func (s *Server) getExtrema(c *gin.Context) {
	ts, ok := s.seriesFromRequest(c)
	if !ok {
		return
	}

	window, ok := positiveQuery(c, "sample_window", s.opts.Risk.SampleWindow)
	if !ok {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters)
		return
	}

	summary := extrema.Find(ts, window)
	var current *extrema.Trend
	if trend, ok := extrema.CurrentTrend(summary); ok {
		current = &trend
	}

	c.JSON(http.StatusOK, gin.H{
		"extrema": summary,
		"trend":   current,
	})
}

func (s *Server) getForecast(c *gin.Context) {
	ts, ok := s.seriesFromRequest(c)
	if !ok {
		return
	}

	window, ok := positiveQuery(c, "window", s.opts.ForecastWindow)
	if !ok {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters)
		return
	}

	predictions, err := forecast.PredictBounded(ts, window)
	if err == forecast.ErrWindowTooSmall {
		abortWithEncoding(c, http.StatusBadRequest, errorWindowTooSmall)
		return
	}
	if shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"window":      window,
		"predictions": predictions,
	})
}
