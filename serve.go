package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bitmark-inc/covid-trends/api"
	"github.com/bitmark-inc/covid-trends/metrics"
	"github.com/bitmark-inc/covid-trends/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analytics api",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// reloadPeriodically reloads the cache on every tick until ctx is done.
func reloadPeriodically(ctx context.Context, clock clockwork.Clock, cache *store.Cache, m *metrics.Metrics, interval time.Duration) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := cache.Reload(); err != nil {
				log.WithField("prefix", logPrefix).Errorf("periodic cache reload: %s", err)
				continue
			}
			m.CachedSeries.Set(float64(cache.Len()))
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := newServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	risk, err := riskConfig()
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()
	clock := clockwork.NewRealClock()
	cache := store.NewCache(svc.store, clock)
	if err := cache.Reload(); err != nil {
		log.WithField("prefix", logPrefix).Warnf("initial cache load: %s", err)
	}
	m.CachedSeries.Set(float64(cache.Len()))

	if interval := viper.GetDuration("server.reload_interval"); interval > 0 {
		go reloadPeriodically(ctx, clock, cache, m, interval)
	}

	server := api.NewServer(svc.store, cache, svc.directory, m, api.Options{
		Version:        viper.GetString("server.version"),
		AdminAPIKey:    viper.GetString("server.apikey.admin"),
		Risk:           risk,
		ForecastWindow: viper.GetInt("forecast.window"),
		HotspotLimit:   viper.GetInt("server.hotspot_limit"),
	})
	log.WithField("prefix", logPrefix).Info("Initialized http server")

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.WithField("prefix", logPrefix).Info("Server is preparing to shutdown")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithField("prefix", logPrefix).Error("Server Shutdown:", err)
		}
	}()

	err = server.Run(":" + viper.GetString("server.port"))
	sentry.Flush(2 * time.Second)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
