package schema

import "strings"

const (
	AreaCollection = "area"
)

type AreaType string

const (
	AreaPlanet    AreaType = "planet"
	AreaContinent AreaType = "continent"
	AreaCountry   AreaType = "country"
	AreaState     AreaType = "state"
	AreaMetro     AreaType = "metro"
	AreaCounty    AreaType = "county"
	AreaZip       AreaType = "zip"
	AreaUnknown   AreaType = "unknown"
)

var areaTypes = map[string]AreaType{
	string(AreaPlanet):    AreaPlanet,
	string(AreaContinent): AreaContinent,
	string(AreaCountry):   AreaCountry,
	string(AreaState):     AreaState,
	string(AreaMetro):     AreaMetro,
	string(AreaCounty):    AreaCounty,
	string(AreaZip):       AreaZip,
}

// ParseAreaType maps a type name onto AreaType, case-insensitive.
// Anything unrecognised is AreaUnknown.
func ParseAreaType(s string) AreaType {
	if t, ok := areaTypes[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t
	}
	return AreaUnknown
}

type AreaInfo struct {
	ID         string   `json:"id" bson:"_id" yaml:"id"`
	Type       AreaType `json:"type" bson:"type" yaml:"type"`
	Parent     string   `json:"parent,omitempty" bson:"parent" yaml:"parent"`
	Population *int64   `json:"population,omitempty" bson:"population,omitempty" yaml:"population"`
	Latitude   *float64 `json:"lat,omitempty" bson:"lat,omitempty" yaml:"lat"`
	Longitude  *float64 `json:"lng,omitempty" bson:"lng,omitempty" yaml:"lng"`
}

// UnknownArea is returned by directories for ids they cannot resolve.
// Its population is nil so per-capita values degrade to nil.
func UnknownArea(id string) AreaInfo {
	return AreaInfo{
		ID:   id,
		Type: AreaUnknown,
	}
}

func (a AreaInfo) IsUnknown() bool {
	return a.Type == AreaUnknown && a.Population == nil
}

// PopulationValue returns the population and whether it is known and positive.
func (a AreaInfo) PopulationValue() (float64, bool) {
	if a.Population == nil || *a.Population <= 0 {
		return 0, false
	}
	return float64(*a.Population), true
}
