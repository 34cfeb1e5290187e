package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitmark-inc/covid-trends/area"
	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/score"
)

const defaultHotspotMetric = "cases"

func (s *Server) getHotspot(c *gin.Context) {
	ts, ok := s.seriesFromRequest(c)
	if !ok {
		return
	}

	info := area.Lookup(s.directory, ts.AreaID)
	c.JSON(http.StatusOK, score.Hotspot(ts, info, s.opts.Risk))
}

// getHotspots ranks every area holding a series of the metric.
func (s *Server) getHotspots(c *gin.Context) {
	if s.cache.LoadedAt().IsZero() {
		abortWithEncoding(c, http.StatusServiceUnavailable, errorCacheNotLoaded)
		return
	}

	metric := c.DefaultQuery("metric", defaultHotspotMetric)

	filter := score.Filter{
		Ancestor: c.Query("ancestor"),
	}
	if t := c.Query("type"); t != "" {
		filter.Type = schema.ParseAreaType(t)
		if filter.Type == schema.AreaUnknown {
			abortWithEncoding(c, http.StatusBadRequest, errorInvalidAreaType)
			return
		}
	}

	limit, ok := positiveQuery(c, "limit", s.opts.HotspotLimit)
	if !ok {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters)
		return
	}
	filter.Limit = limit

	hotspots := score.Rank(s.cache, s.directory, metric, s.opts.Risk, filter)
	if hotspots == nil {
		hotspots = []score.HotspotInfo{}
	}

	c.JSON(http.StatusOK, gin.H{
		"metric":   metric,
		"hotspots": hotspots,
	})
}

func (s *Server) getArea(c *gin.Context) {
	if s.directory == nil {
		abortWithEncoding(c, http.StatusNotFound, errorAreaNotFound)
		return
	}

	info, err := s.directory.Find(c.Param("area"))
	if errors.Is(err, area.ErrAreaNotFound) {
		abortWithEncoding(c, http.StatusNotFound, errorAreaNotFound)
		return
	}
	if shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, info)
}
