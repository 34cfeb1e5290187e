package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/covid-trends/timeseries"
)

type stubLoader struct {
	series []timeseries.TimeSeries
	err    error
	calls  int
}

func (l *stubLoader) Load(key timeseries.Key) (timeseries.TimeSeries, error) {
	for _, ts := range l.series {
		if ts.Key() == key {
			return ts, nil
		}
	}
	return timeseries.TimeSeries{}, ErrSeriesNotFound
}

func (l *stubLoader) Keys() ([]timeseries.Key, error) {
	return nil, nil
}

func (l *stubLoader) LoadAll() ([]timeseries.TimeSeries, error) {
	l.calls++
	return l.series, l.err
}

func TestCacheLifecycle(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2021, 2, 1, 8, 0, 0, 0, time.UTC))
	loader := &stubLoader{
		series: []timeseries.TimeSeries{
			testSeries("texas", "deaths", 1),
			testSeries("texas", "cases", 2),
			testSeries("ohio", "cases", 3),
			testSeries("ohio", "cases", 4).With(timeseries.WithQualifier("IHME")),
		},
	}

	c := NewCache(loader, clock)
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.LoadedAt().IsZero())
	assert.Empty(t, c.Find("cases", ""))
	assert.Equal(t, 0, loader.calls, "construction must not load")

	require.NoError(t, c.Reload())
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, clock.Now(), c.LoadedAt())

	ts, ok := c.Get(timeseries.Key{AreaID: "texas", Metric: "cases"})
	require.True(t, ok)
	assert.Equal(t, []float64{2}, ts.Values)

	cases := c.Find("cases", "")
	require.Len(t, cases, 2)
	assert.Equal(t, "ohio", cases[0].AreaID)
	assert.Equal(t, "texas", cases[1].AreaID)
	assert.Len(t, c.Find("cases", "IHME"), 1)

	keys := c.Keys()
	assert.Equal(t, timeseries.Key{AreaID: "ohio", Metric: "cases"}, keys[0])
	keys[0] = timeseries.Key{}
	assert.Equal(t, "ohio", c.Keys()[0].AreaID, "keys are copied")

	// a failed reload keeps the previous snapshot
	clock.Advance(time.Hour)
	loader.err = fmt.Errorf("store is down")
	assert.Error(t, c.Reload())
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, clock.Now().Add(-time.Hour), c.LoadedAt())

	loader.err = nil
	loader.series = loader.series[:1]
	require.NoError(t, c.Reload())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, clock.Now(), c.LoadedAt())
	_, ok = c.Get(timeseries.Key{AreaID: "texas", Metric: "cases"})
	assert.False(t, ok)
}

func TestCacheConcurrentReload(t *testing.T) {
	loader := &stubLoader{
		series: []timeseries.TimeSeries{
			testSeries("texas", "cases", 1),
			testSeries("ohio", "cases", 2),
		},
	}
	c := NewCache(loader, clockwork.NewFakeClock())
	require.NoError(t, c.Reload())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Len(t, c.Find("cases", ""), 2)
				_, ok := c.Get(timeseries.Key{AreaID: "ohio", Metric: "cases"})
				assert.True(t, ok)
			}
		}()
	}
	for j := 0; j < 20; j++ {
		require.NoError(t, c.Reload())
	}
	wg.Wait()
	assert.Equal(t, 2, c.Len())
}
