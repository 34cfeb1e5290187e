package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/bitmark-inc/covid-trends/area"
	"github.com/bitmark-inc/covid-trends/forecast"
	"github.com/bitmark-inc/covid-trends/metrics"
	"github.com/bitmark-inc/covid-trends/score"
	"github.com/bitmark-inc/covid-trends/store"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "gin")
}

const defaultHotspotLimit = 50

//go:generate mockgen -destination=mocks/cache.go -package=mocks github.com/bitmark-inc/covid-trends/api SeriesCache
//go:generate mockgen -destination=mocks/store.go -package=mocks github.com/bitmark-inc/covid-trends/store SeriesStore
//go:generate mockgen -destination=mocks/directory.go -package=mocks github.com/bitmark-inc/covid-trends/area Directory

// SeriesCache is the in-memory view of the store the handlers read from.
type SeriesCache interface {
	Get(key timeseries.Key) (timeseries.TimeSeries, bool)
	Find(metric, qualifier string) []timeseries.TimeSeries
	Reload() error
	Len() int
	LoadedAt() time.Time
}

// Options configures the handlers.
type Options struct {
	Version        string
	AdminAPIKey    string
	Risk           score.RiskConfig
	ForecastWindow int
	HotspotLimit   int
}

// Server to run a http server instance
type Server struct {
	// Server instance
	server *http.Server

	// Stores
	store     store.Pinger
	cache     SeriesCache
	directory area.Directory

	metrics *metrics.Metrics
	opts    Options
}

// NewServer new instance of server
func NewServer(st store.Pinger, cache SeriesCache, directory area.Directory, m *metrics.Metrics, opts Options) *Server {
	if opts.ForecastWindow <= 0 {
		opts.ForecastWindow = forecast.DefaultWindow
	}
	if opts.HotspotLimit <= 0 {
		opts.HotspotLimit = defaultHotspotLimit
	}
	if opts.Risk.BaseLevels == nil {
		opts.Risk = score.DefaultRiskConfig()
	}
	if m == nil {
		m = metrics.NewMetricsForTesting()
	}

	return &Server{
		store:     st,
		cache:     cache,
		directory: directory,
		metrics:   m,
		opts:      opts,
	}
}

// Run to run the server
func (s *Server) Run(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.setupRouter(),
	}

	return s.server.ListenAndServe()
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         10 * time.Second,
	}))
	r.Use(s.observe())

	apiRoute := r.Group("/api")
	apiRoute.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET"},
		AllowHeaders:     []string{"Origin"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowAllOrigins:  true,
		MaxAge:           12 * time.Hour,
	}))

	seriesRoute := apiRoute.Group("/series/:area/:metric")
	{
		seriesRoute.GET("", s.getSeries)
		seriesRoute.GET("/extrema", s.getExtrema)
		seriesRoute.GET("/forecast", s.getForecast)
		seriesRoute.GET("/hotspot", s.getHotspot)
	}

	apiRoute.GET("/areas/:area", s.getArea)
	apiRoute.GET("/hotspots", s.getHotspots)

	secretRoute := r.Group("/secret")
	secretRoute.Use(s.apikeyAuthentication(s.opts.AdminAPIKey))
	{
		secretRoute.POST("/reload", s.reload)
	}

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// Shutdown to shutdown the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// observe logs every request and records its duration.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.RequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(latency.Seconds())

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": latency,
			"client":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.Error(c.Errors.String())
		} else {
			entry.Debug("request")
		}
	}
}

// shouldInterupt sends error message and determine if it should interupt the current flow
func shouldInterupt(err error, c *gin.Context) bool {
	if err == nil {
		return false
	}

	log.Error(err)
	abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer, err)
	return true
}

func (s *Server) healthz(c *gin.Context) {
	// Ping db
	err := s.store.Ping()
	if shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"version":   s.opts.Version,
		"series":    s.cache.Len(),
		"loaded_at": s.cache.LoadedAt(),
	})
}

func (s *Server) reload(c *gin.Context) {
	if shouldInterupt(s.cache.Reload(), c) {
		return
	}
	s.metrics.CachedSeries.Set(float64(s.cache.Len()))

	c.JSON(http.StatusOK, gin.H{
		"series":    s.cache.Len(),
		"loaded_at": s.cache.LoadedAt(),
	})
}

func responseWithEncoding(c *gin.Context, code int, obj ErrorResponse) {
	acceptEncoding := c.GetHeader("Accept-Encoding")
	switch acceptEncoding {
	default:
		c.JSON(code, obj)
	}
}

func abortWithEncoding(c *gin.Context, code int, obj ErrorResponse, errors ...error) {
	for _, err := range errors {
		c.Error(err)
	}
	responseWithEncoding(c, code, obj)
	c.Abort()
}
