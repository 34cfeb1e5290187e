package ingest

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/covid-trends/external/source"
	"github.com/bitmark-inc/covid-trends/metrics"
	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/store"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

func day(d int) time.Time {
	return time.Date(2020, 3, d, 0, 0, 0, 0, time.UTC)
}

func fragment(src, area, metric string, d int, v float64) schema.Fragment {
	return schema.Fragment{Source: src, AreaID: area, Metric: metric, Date: day(d), Value: v}
}

type stubSource struct {
	name      string
	fragments []schema.Fragment
	err       error
}

func (s *stubSource) Name() string {
	return s.name
}

func (s *stubSource) Fragments(ctx context.Context) ([]schema.Fragment, error) {
	return s.fragments, s.err
}

type areaSource struct {
	stubSource
	areas []schema.AreaInfo
}

func (s *areaSource) Areas() []schema.AreaInfo {
	return s.areas
}

type memoryAreas struct {
	saved []schema.AreaInfo
}

func (m *memoryAreas) Save(areas ...schema.AreaInfo) error {
	m.saved = append(m.saved, areas...)
	return nil
}

type memorySaver struct {
	calls  int
	series []timeseries.TimeSeries
	err    error
}

func (m *memorySaver) Save(series ...timeseries.TimeSeries) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.series = append(m.series, series...)
	return nil
}

func testSources() []source.RowSource {
	return []source.RowSource{
		&stubSource{
			name: "a",
			fragments: []schema.Fragment{
				fragment("a", "texas", "cases", 1, 1),
				fragment("a", "texas", "cases", 2, 3),
			},
		},
		&stubSource{name: "broken", err: fmt.Errorf("connection refused")},
		&areaSource{
			stubSource: stubSource{
				name: "b",
				fragments: []schema.Fragment{
					fragment("b", "texas", "cases", 2, 2),
					fragment("b", "texas", "cases", 3, 5),
					fragment("b", "ohio", "deaths", 1, 0),
					fragment("b", "ohio", "deaths", 2, 0),
					fragment("b", "ohio", "deaths", 3, 0),
					fragment("b", "ohio", "deaths", 4, 0),
					fragment("b", "ohio", "deaths", 5, 2),
				},
			},
			areas: []schema.AreaInfo{{ID: "ohio", Type: schema.AreaState}},
		},
	}
}

func TestRunWithFileStore(t *testing.T) {
	dir, err := ioutil.TempDir("", "ingest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	st := store.NewFileStore(filepath.Join(dir, "series.tsv.gz"))
	clock := clockwork.NewFakeClock()
	cache := store.NewCache(st, clock)
	areas := &memoryAreas{}
	m := metrics.NewMetricsForTesting()

	p := New(testSources(), st, m, Options{Workers: 2, Merge: timeseries.DefaultMergeOptions()})
	p.SetAreaSaver(areas)
	p.SetCache(cache)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 3, result.Sources)
	assert.Equal(t, 1, result.FailedSources)
	assert.Equal(t, 9, result.Fragments)
	assert.Equal(t, 2, result.Series)
	assert.Equal(t, 0, result.FailedSeries)
	assert.Equal(t, 1, result.Areas)
	assert.Equal(t, []schema.AreaInfo{{ID: "ohio", Type: schema.AreaState}}, areas.saved)

	texas, ok := cache.Get(timeseries.Key{AreaID: "texas", Metric: "cases"})
	require.True(t, ok)
	assert.Equal(t, day(1), texas.Start)
	assert.Equal(t, []float64{1, 3, 5}, texas.Values)
	assert.True(t, texas.IntValues)
	assert.Equal(t, "a", texas.Source)

	ohio, err := st.Load(timeseries.Key{AreaID: "ohio", Metric: "deaths"})
	require.NoError(t, err)
	assert.Equal(t, day(2), ohio.Start, "leading zeros beyond three are trimmed")
	assert.Equal(t, []float64{0, 0, 0, 2}, ohio.Values)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FragmentsRead.WithLabelValues("a")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.FragmentsRead.WithLabelValues("b")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceErrors.WithLabelValues("broken")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SeriesMerged))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CachedSeries))
	assert.Equal(t, clock.Now(), cache.LoadedAt())
}

func TestRunSavesInBatches(t *testing.T) {
	var fragments []schema.Fragment
	for i := 0; i < 5; i++ {
		fragments = append(fragments, fragment("a", fmt.Sprintf("area%d", i), "cases", 1, float64(i+1)))
	}

	saver := &memorySaver{}
	p := New([]source.RowSource{&stubSource{name: "a", fragments: fragments}}, saver, nil, Options{BatchSize: 2})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Series)
	assert.Equal(t, 3, saver.calls)
	require.Len(t, saver.series, 5)
	assert.Equal(t, "area0", saver.series[0].AreaID)
	assert.Equal(t, "area4", saver.series[4].AreaID)
}

func TestRunNothingIngested(t *testing.T) {
	saver := &memorySaver{}
	p := New([]source.RowSource{&stubSource{name: "broken", err: fmt.Errorf("timeout")}}, saver, nil, DefaultOptions())

	result, err := p.Run(context.Background())
	assert.Equal(t, ErrNothingIngested, err)
	assert.Equal(t, 1, result.FailedSources)
	assert.Equal(t, 0, saver.calls)
}

func TestRunSaveError(t *testing.T) {
	saver := &memorySaver{err: fmt.Errorf("disk full")}
	p := New(testSources(), saver, nil, DefaultOptions())

	_, err := p.Run(context.Background())
	assert.EqualError(t, err, "disk full")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	saver := &memorySaver{}
	p := New(testSources(), saver, nil, DefaultOptions())

	_, err := p.Run(ctx)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 0, saver.calls)
}
