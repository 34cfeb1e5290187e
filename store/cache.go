package store

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/covid-trends/timeseries"
)

const cacheLogPrefix = "cache"

// Cache holds every merged series in memory. It starts empty and only
// changes on Reload, which swaps in a fresh snapshot from the loader.
// Readers see either the old or the new snapshot, never a mix.
type Cache struct {
	mu       sync.RWMutex
	loader   SeriesLoader
	clock    clockwork.Clock
	series   map[timeseries.Key]timeseries.TimeSeries
	keys     []timeseries.Key
	loadedAt time.Time
}

func NewCache(loader SeriesLoader, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		loader: loader,
		clock:  clock,
		series: map[timeseries.Key]timeseries.TimeSeries{},
	}
}

// Reload replaces the cached series. On error the previous snapshot is kept.
func (c *Cache) Reload() error {
	all, err := c.loader.LoadAll()
	if err != nil {
		log.WithField("prefix", cacheLogPrefix).Errorf("reload with error: %s", err)
		return err
	}

	series := make(map[timeseries.Key]timeseries.TimeSeries, len(all))
	keys := make([]timeseries.Key, 0, len(all))
	for _, ts := range all {
		if _, ok := series[ts.Key()]; !ok {
			keys = append(keys, ts.Key())
		}
		series[ts.Key()] = ts
	}
	sort.Slice(keys, func(i, j int) bool { return timeseries.KeyLess(keys[i], keys[j]) })

	c.mu.Lock()
	c.series = series
	c.keys = keys
	c.loadedAt = c.clock.Now()
	c.mu.Unlock()

	log.WithField("prefix", cacheLogPrefix).Infof("%d series loaded", len(keys))
	return nil
}

func (c *Cache) Get(key timeseries.Key) (timeseries.TimeSeries, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ts, ok := c.series[key]
	return ts, ok
}

// Find returns the series of metric and qualifier ordered by key.
func (c *Cache) Find(metric, qualifier string) []timeseries.TimeSeries {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := []timeseries.TimeSeries{}
	for _, key := range c.keys {
		if key.Metric == metric && key.Qualifier == qualifier {
			result = append(result, c.series[key])
		}
	}
	return result
}

func (c *Cache) Keys() []timeseries.Key {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]timeseries.Key, len(c.keys))
	copy(keys, c.keys)
	return keys
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// LoadedAt is the time of the last successful reload, zero before it.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
