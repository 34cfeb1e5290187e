package store

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bitmark-inc/covid-trends/timeseries"
)

const (
	mongoLogPrefix = "mongo"
	defaultTimeout = 5 * time.Second
)

var (
	ErrSeriesNotFound = fmt.Errorf("series not found")
)

// SeriesStore - interface for persisted merged series
type SeriesStore interface {
	SeriesLoader
	SeriesSaver
	Closer
	Pinger
}

// SeriesLoader - read merged series
type SeriesLoader interface {
	Load(key timeseries.Key) (timeseries.TimeSeries, error)
	Keys() ([]timeseries.Key, error)
	LoadAll() ([]timeseries.TimeSeries, error)
}

// SeriesSaver - write merged series, replacing any stored under the same key
type SeriesSaver interface {
	Save(series ...timeseries.TimeSeries) error
}

// Closer - close db connection
type Closer interface {
	Close()
}

// Pinger - ping database
type Pinger interface {
	Ping() error
}

type mongoDB struct {
	client   *mongo.Client
	database string
}

// Ping - ping mongo db
func (m mongoDB) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

// Close - close mongo db connections
func (m mongoDB) Close() {
	log.WithField("prefix", mongoLogPrefix).Info("closing mongo db connections")
	_ = m.client.Disconnect(context.Background())
}

// NewMongoStore - return mongo db operations
func NewMongoStore(client *mongo.Client, database string) SeriesStore {
	return &mongoDB{
		client:   client,
		database: database,
	}
}
