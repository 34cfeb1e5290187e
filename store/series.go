package store

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

func toRecord(ts timeseries.TimeSeries, now time.Time) schema.SeriesRecord {
	values := ts.Values
	if values == nil {
		values = []float64{}
	}
	return schema.SeriesRecord{
		ID:           ts.Key().String(),
		Source:       ts.Source,
		AreaID:       ts.AreaID,
		Metric:       ts.Metric,
		Qualifier:    ts.Qualifier,
		IntValues:    ts.IntValues,
		DefaultValue: ts.DefaultValue,
		Start:        ts.Start,
		Values:       values,
		UpdatedAt:    now,
	}
}

func fromRecord(r schema.SeriesRecord) timeseries.TimeSeries {
	return timeseries.New(
		timeseries.Key{AreaID: r.AreaID, Metric: r.Metric, Qualifier: r.Qualifier},
		r.Start.UTC(),
		r.Values,
		timeseries.WithSource(r.Source),
		timeseries.WithIntValues(r.IntValues),
		timeseries.WithDefaultValue(r.DefaultValue),
	)
}

func (m *mongoDB) collection() *mongo.Collection {
	return m.client.Database(m.database).Collection(schema.SeriesCollection)
}

func (m *mongoDB) Load(key timeseries.Key) (timeseries.TimeSeries, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var r schema.SeriesRecord
	if err := m.collection().FindOne(ctx, bson.M{"_id": key.String()}).Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return timeseries.TimeSeries{}, ErrSeriesNotFound
		}
		log.WithField("prefix", mongoLogPrefix).Errorf("load series %s with error: %s", key, err)
		return timeseries.TimeSeries{}, err
	}
	return fromRecord(r), nil
}

func (m *mongoDB) Save(series ...timeseries.TimeSeries) error {
	if len(series) == 0 {
		log.WithField("prefix", mongoLogPrefix).Debug("no series to save")
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(series))
	for _, ts := range series {
		r := toRecord(ts, now)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": r.ID}).
			SetReplacement(r).
			SetUpsert(true))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 4*defaultTimeout)
	defer cancel()

	result, err := m.collection().BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		log.WithField("prefix", mongoLogPrefix).Errorf("save series with error: %s", err)
		return err
	}
	log.WithField("prefix", mongoLogPrefix).Debugf("series saved, %d upserted, %d modified", result.UpsertedCount, result.ModifiedCount)
	return nil
}

func (m *mongoDB) Keys() ([]timeseries.Key, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"area": 1, "metric": 1, "qualifier": 1}).
		SetSort(bson.D{{Key: "area", Value: 1}, {Key: "metric", Value: 1}, {Key: "qualifier", Value: 1}})
	cursor, err := m.collection().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	keys := []timeseries.Key{}
	if err := cursor.All(ctx, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (m *mongoDB) LoadAll() ([]timeseries.TimeSeries, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 12*defaultTimeout)
	defer cancel()

	cursor, err := m.collection().Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	series := []timeseries.TimeSeries{}
	for cursor.Next(ctx) {
		var r schema.SeriesRecord
		if err := cursor.Decode(&r); err != nil {
			log.WithField("prefix", mongoLogPrefix).Errorf("decode series with error: %s", err)
			return nil, err
		}
		series = append(series, fromRecord(r))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	timeseries.SortByKey(series)
	return series, nil
}
