// Package ingest reads every configured source, merges the observations
// into one series per key and saves the result.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bitmark-inc/covid-trends/external/source"
	"github.com/bitmark-inc/covid-trends/metrics"
	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/store"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

const (
	logPrefix = "ingest"

	defaultWorkers   = 4
	defaultBatchSize = 500
)

var (
	ErrNothingIngested = fmt.Errorf("no source produced any fragment")
)

type Options struct {
	Workers   int `mapstructure:"workers"`
	BatchSize int `mapstructure:"batch_size"`
	Merge     timeseries.MergeOptions
}

func DefaultOptions() Options {
	return Options{
		Workers:   defaultWorkers,
		BatchSize: defaultBatchSize,
		Merge:     timeseries.DefaultMergeOptions(),
	}
}

// AreaSaver persists the areas some sources describe.
type AreaSaver interface {
	Save(areas ...schema.AreaInfo) error
}

// Reloader is refreshed once new series are saved.
type Reloader interface {
	Reload() error
	Len() int
}

// Result summarizes one run.
type Result struct {
	RunID         string
	Sources       int
	FailedSources int
	Fragments     int
	Series        int
	FailedSeries  int
	Areas         int
	Duration      time.Duration
}

type Pipeline struct {
	sources []source.RowSource
	saver   store.SeriesSaver
	areas   AreaSaver
	cache   Reloader
	metrics *metrics.Metrics
	opts    Options
}

func New(sources []source.RowSource, saver store.SeriesSaver, m *metrics.Metrics, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if m == nil {
		m = metrics.NewMetricsForTesting()
	}
	return &Pipeline{
		sources: sources,
		saver:   saver,
		metrics: m,
		opts:    opts,
	}
}

// SetAreaSaver makes the pipeline persist areas reported by sources.
func (p *Pipeline) SetAreaSaver(a AreaSaver) {
	p.areas = a
}

// SetCache makes the pipeline reload c after saving.
func (p *Pipeline) SetCache(c Reloader) {
	p.cache = c
}

// Run reads, merges and saves once. A failing source is logged and
// skipped, and so is a key whose merge fails.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	result := Result{
		RunID:   uuid.New().String(),
		Sources: len(p.sources),
	}
	log.WithFields(log.Fields{"prefix": logPrefix, "run": result.RunID}).Info("ingest started")

	fragments := p.read(ctx, &result)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if len(fragments) == 0 {
		return result, ErrNothingIngested
	}

	merged, err := p.merge(ctx, fragments, &result)
	if err != nil {
		return result, err
	}

	if err := p.save(merged); err != nil {
		return result, err
	}
	result.Series = len(merged)
	p.metrics.SeriesMerged.Add(float64(len(merged)))

	if p.cache != nil {
		if err := p.cache.Reload(); err != nil {
			log.WithField("prefix", logPrefix).Errorf("reload cache: %s", err)
			return result, err
		}
		p.metrics.CachedSeries.Set(float64(p.cache.Len()))
	}

	result.Duration = time.Since(start)
	p.metrics.IngestDuration.Observe(result.Duration.Seconds())

	log.WithFields(log.Fields{
		"prefix":         logPrefix,
		"run":            result.RunID,
		"sources":        result.Sources,
		"failed_sources": result.FailedSources,
		"fragments":      result.Fragments,
		"series":         result.Series,
		"failed_series":  result.FailedSeries,
		"duration":       result.Duration,
	}).Info("ingest finished")

	return result, nil
}

func (p *Pipeline) read(ctx context.Context, result *Result) []schema.Fragment {
	var fragments []schema.Fragment
	for _, s := range p.sources {
		if ctx.Err() != nil {
			return nil
		}

		f, err := s.Fragments(ctx)
		if err != nil {
			log.WithFields(log.Fields{"prefix": logPrefix, "source": s.Name(), "error": err}).Error("skip failed source")
			p.metrics.SourceErrors.WithLabelValues(s.Name()).Inc()
			result.FailedSources++
			continue
		}

		log.WithFields(log.Fields{"prefix": logPrefix, "source": s.Name(), "fragments": len(f)}).Info("source read")
		p.metrics.FragmentsRead.WithLabelValues(s.Name()).Add(float64(len(f)))
		result.Fragments += len(f)
		fragments = append(fragments, f...)

		if provider, ok := s.(source.AreaProvider); ok && p.areas != nil {
			areas := provider.Areas()
			if err := p.areas.Save(areas...); err != nil {
				log.WithFields(log.Fields{"prefix": logPrefix, "source": s.Name(), "error": err}).Warn("save source areas")
				continue
			}
			result.Areas += len(areas)
		}
	}
	return fragments
}

// merge runs MergeGroup for every key on a bounded pool of workers.
func (p *Pipeline) merge(ctx context.Context, fragments []schema.Fragment, result *Result) ([]timeseries.TimeSeries, error) {
	groups := timeseries.GroupFragments(fragments)
	keys := make([]timeseries.Key, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return timeseries.KeyLess(keys[i], keys[j]) })

	series := make([]timeseries.TimeSeries, len(keys))
	var failed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ts, err := timeseries.MergeGroup(groups[key], p.opts.Merge)
			if err != nil {
				log.WithFields(log.Fields{"prefix": logPrefix, "key": key.String(), "error": err}).Warn("skip failed merge")
				p.metrics.MergeErrors.Inc()
				atomic.AddInt64(&failed, 1)
				return nil
			}
			series[i] = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.FailedSeries = int(failed)

	merged := make([]timeseries.TimeSeries, 0, len(series))
	for _, ts := range series {
		if ts.Metric != "" {
			merged = append(merged, ts)
		}
	}
	return merged, nil
}

func (p *Pipeline) save(series []timeseries.TimeSeries) error {
	for start := 0; start < len(series); start += p.opts.BatchSize {
		end := start + p.opts.BatchSize
		if end > len(series) {
			end = len(series)
		}
		if err := p.saver.Save(series[start:end]...); err != nil {
			log.WithFields(log.Fields{"prefix": logPrefix, "error": err}).Error("save merged series")
			return err
		}
	}
	return nil
}
