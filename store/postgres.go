package store

import (
	"sort"
	"time"

	"github.com/jinzhu/gorm"
	// postgres dialect for gorm
	_ "github.com/jinzhu/gorm/dialects/postgres"
	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

const ormLogPrefix = "orm"

// postgresStore keeps merged series in a relational table
type postgresStore struct {
	ormDB *gorm.DB
}

// NewPostgresStore - return series operations on an opened gorm db
func NewPostgresStore(ormDB *gorm.DB) SeriesStore {
	return &postgresStore{
		ormDB: ormDB,
	}
}

// MigratePostgres creates or updates the series table
func MigratePostgres(ormDB *gorm.DB) error {
	return ormDB.AutoMigrate(&schema.SeriesRow{}).Error
}

func toRow(ts timeseries.TimeSeries, now time.Time) schema.SeriesRow {
	return schema.SeriesRow{
		Key:       ts.Key().String(),
		AreaID:    ts.AreaID,
		Metric:    ts.Metric,
		Qualifier: ts.Qualifier,
		Line:      timeseries.MarshalLine(ts),
		UpdatedAt: now,
	}
}

// Ping is to check the storage health status
func (s *postgresStore) Ping() error {
	return s.ormDB.DB().Ping()
}

func (s *postgresStore) Close() {
	log.WithField("prefix", ormLogPrefix).Info("closing orm db connections")
	if err := s.ormDB.Close(); err != nil {
		log.WithField("prefix", ormLogPrefix).Error(err)
	}
}

func (s *postgresStore) Load(key timeseries.Key) (timeseries.TimeSeries, error) {
	var row schema.SeriesRow
	if err := s.ormDB.Where("key = ?", key.String()).First(&row).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return timeseries.TimeSeries{}, ErrSeriesNotFound
		}
		return timeseries.TimeSeries{}, err
	}
	return timeseries.UnmarshalLine(row.Line)
}

func (s *postgresStore) Save(series ...timeseries.TimeSeries) error {
	if len(series) == 0 {
		return nil
	}

	now := time.Now().UTC()
	return s.ormDB.Transaction(func(tx *gorm.DB) error {
		for _, ts := range series {
			row := toRow(ts, now)
			if err := tx.Save(&row).Error; err != nil {
				log.WithField("prefix", ormLogPrefix).Errorf("save series %s with error: %s", row.Key, err)
				return err
			}
		}
		return nil
	})
}

func (s *postgresStore) Keys() ([]timeseries.Key, error) {
	var rows []schema.SeriesRow
	if err := s.ormDB.Select("area_id, metric, qualifier").Find(&rows).Error; err != nil {
		return nil, err
	}

	keys := make([]timeseries.Key, len(rows))
	for i, r := range rows {
		keys[i] = timeseries.Key{AreaID: r.AreaID, Metric: r.Metric, Qualifier: r.Qualifier}
	}
	sort.Slice(keys, func(i, j int) bool { return timeseries.KeyLess(keys[i], keys[j]) })
	return keys, nil
}

func (s *postgresStore) LoadAll() ([]timeseries.TimeSeries, error) {
	var rows []schema.SeriesRow
	if err := s.ormDB.Find(&rows).Error; err != nil {
		return nil, err
	}

	series := make([]timeseries.TimeSeries, 0, len(rows))
	for _, r := range rows {
		ts, err := timeseries.UnmarshalLine(r.Line)
		if err != nil {
			log.WithField("prefix", ormLogPrefix).Errorf("decode series %s with error: %s", r.Key, err)
			return nil, err
		}
		series = append(series, ts)
	}
	timeseries.SortByKey(series)
	return series, nil
}
