package schema

import "time"

// Fragment is one raw observation as delivered by a row source. Several
// fragments may carry the same key and date when a source is reloaded.
type Fragment struct {
	Source    string    `json:"source" bson:"source"`
	AreaID    string    `json:"area" bson:"area"`
	Metric    string    `json:"metric" bson:"metric"`
	Qualifier string    `json:"qualifier" bson:"qualifier"`
	Date      time.Time `json:"date" bson:"date"`
	Value     float64   `json:"value" bson:"value"`
}
