package schema

import "time"

const (
	SeriesCollection = "series"
)

// SeriesRecord is the stored form of one merged series. NaN and ±Inf are
// kept as BSON doubles.
type SeriesRecord struct {
	ID           string    `bson:"_id"`
	Source       string    `bson:"source"`
	AreaID       string    `bson:"area"`
	Metric       string    `bson:"metric"`
	Qualifier    string    `bson:"qualifier"`
	IntValues    bool      `bson:"int_values"`
	DefaultValue float64   `bson:"default_value"`
	Start        time.Time `bson:"start"`
	Values       []float64 `bson:"values"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// SeriesRow is the relational form of one merged series. The values are
// kept in the series line format so NaN and ±Inf survive.
type SeriesRow struct {
	Key       string    `gorm:"primary_key"`
	AreaID    string    `gorm:"not null;index:idx_series_metric"`
	Metric    string    `gorm:"not null;index:idx_series_metric"`
	Qualifier string    `gorm:"not null;default:''"`
	Line      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (SeriesRow) TableName() string {
	return "series"
}
