package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bitmark-inc/covid-trends/area"
	"github.com/bitmark-inc/covid-trends/external/source"
	"github.com/bitmark-inc/covid-trends/forecast"
	"github.com/bitmark-inc/covid-trends/ingest"
	"github.com/bitmark-inc/covid-trends/score"
	"github.com/bitmark-inc/covid-trends/store"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

const (
	storeTypeMongo    = "mongo"
	storeTypeFile     = "file"
	storeTypePostgres = "postgres"
)

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("mongo.database", "covid_trends")
	viper.SetDefault("mongo.pool", 20)
	viper.SetDefault("store.type", storeTypeMongo)
	viper.SetDefault("store.path", "./series.tsv.gz")
	viper.SetDefault("merge.max_leading_zeros", 3)
	viper.SetDefault("merge.cumulative", []string{"cases", "deaths"})
	viper.SetDefault("merge.integer", []string{"cases", "deaths"})
	viper.SetDefault("ingest.workers", 4)
	viper.SetDefault("ingest.batch_size", 500)
	viper.SetDefault("forecast.window", forecast.DefaultWindow)
	viper.SetDefault("extrema.sample_window", 7)
	viper.SetDefault("report.limit", 20)
}

// services holds what every command connects to.
type services struct {
	mongoClient *mongo.Client
	store       store.SeriesStore
	directory   area.Directory
	areaSaver   ingest.AreaSaver
}

func (s *services) Close() {
	if s.store != nil {
		s.store.Close()
	}
	// a no-op when the mongo store already disconnected the client
	if s.mongoClient != nil {
		_ = s.mongoClient.Disconnect(context.Background())
	}
}

func connectMongo(ctx context.Context) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(viper.GetString("mongo.conn"))
	opts.SetMaxPoolSize(viper.GetUint64("mongo.pool"))

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, opts)
	if nil != err {
		return nil, fmt.Errorf("connect mongo database: %w", err)
	}
	return mongoClient, nil
}

func openPostgres() (*gorm.DB, error) {
	ormDB, err := gorm.Open("postgres", viper.GetString("orm.conn"))
	if err != nil {
		return nil, fmt.Errorf("connect postgres database: %w", err)
	}
	return ormDB, nil
}

func newServices(ctx context.Context) (*services, error) {
	s := &services{}
	database := viper.GetString("mongo.database")

	storeType := viper.GetString("store.type")
	useMongoArea := viper.GetBool("area.mongo")
	if storeType == storeTypeMongo || useMongoArea {
		client, err := connectMongo(ctx)
		if err != nil {
			return nil, err
		}
		s.mongoClient = client
	}

	switch storeType {
	case storeTypeMongo:
		s.store = store.NewMongoStore(s.mongoClient, database)
	case storeTypeFile:
		s.store = store.NewFileStore(viper.GetString("store.path"))
	case storeTypePostgres:
		ormDB, err := openPostgres()
		if err != nil {
			s.Close()
			return nil, err
		}
		s.store = store.NewPostgresStore(ormDB)
	default:
		s.Close()
		return nil, fmt.Errorf("unknown store type %q", storeType)
	}

	var directories []area.Directory
	if path := viper.GetString("area.file"); path != "" {
		d, err := area.LoadFile(path)
		if err != nil {
			s.Close()
			return nil, err
		}
		directories = append(directories, d)
	}
	if useMongoArea {
		d := area.NewMongoDirectory(s.mongoClient, database)
		directories = append(directories, d)
		s.areaSaver = d
	}

	switch len(directories) {
	case 0:
		log.WithField("prefix", logPrefix).Warn("no area directory configured, per-capita values are unavailable")
		s.directory = area.NewMemoryDirectory()
	case 1:
		s.directory = directories[0]
	default:
		s.directory = area.NewMultipleDirectory(directories...)
	}

	return s, nil
}

func riskConfig() (score.RiskConfig, error) {
	cfg := score.DefaultRiskConfig()

	for metric, v := range viper.GetStringMap("risk.base") {
		base, ok := v.(float64)
		if !ok {
			if i, isInt := v.(int); isInt {
				base, ok = float64(i), true
			}
		}
		if !ok {
			return cfg, fmt.Errorf("risk.base.%s: %v is not a number", metric, v)
		}
		cfg.BaseLevels[metric] = base
	}

	if viper.IsSet("risk.doubling_thresholds") {
		if err := viper.UnmarshalKey("risk.doubling_thresholds", &cfg.Doubling); err != nil {
			return cfg, err
		}
	}
	cfg.SampleWindow = viper.GetInt("extrema.sample_window")
	return cfg, nil
}

func ingestOptions() ingest.Options {
	return ingest.Options{
		Workers:   viper.GetInt("ingest.workers"),
		BatchSize: viper.GetInt("ingest.batch_size"),
		Merge: timeseries.MergeOptions{
			MaxLeadingZeros:   viper.GetInt("merge.max_leading_zeros"),
			CumulativeMetrics: viper.GetStringSlice("merge.cumulative"),
			IntegerMetrics:    viper.GetStringSlice("merge.integer"),
		},
	}
}

func newSources() ([]source.RowSource, error) {
	var configs []source.Config
	if err := viper.UnmarshalKey("sources", &configs); err != nil {
		return nil, err
	}

	sources := make([]source.RowSource, 0, len(configs))
	for _, c := range configs {
		s, err := source.New(c)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}
