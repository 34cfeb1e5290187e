package score

import (
	"sort"

	"github.com/bitmark-inc/covid-trends/area"
	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

// SeriesFinder returns every series of a metric and qualifier.
type SeriesFinder interface {
	Find(metric, qualifier string) []timeseries.TimeSeries
}

// Filter narrows a ranking. Zero values disable each condition.
type Filter struct {
	Type     schema.AreaType
	Ancestor string
	Limit    int
}

func (f Filter) accept(d area.Directory, info schema.AreaInfo) bool {
	if f.Type != "" && info.Type != f.Type {
		return false
	}
	if f.Ancestor != "" && (d == nil || !area.IsDescendant(d, info.ID, f.Ancestor)) {
		return false
	}
	return true
}

// Rank scores every unqualified series of metric and orders the hotspots
// by total severity, then by per-capita weekly change.
func Rank(finder SeriesFinder, d area.Directory, metric string, cfg RiskConfig, filter Filter) []HotspotInfo {
	var hotspots []HotspotInfo
	for _, ts := range finder.Find(metric, "") {
		info := area.Lookup(d, ts.AreaID)
		if !filter.accept(d, info) {
			continue
		}
		hotspots = append(hotspots, Hotspot(ts, info, cfg))
	}

	SortHotspots(hotspots)
	if filter.Limit > 0 && len(hotspots) > filter.Limit {
		hotspots = hotspots[:filter.Limit]
	}
	return hotspots
}

// SortHotspots orders the most severe first. Hotspots without a
// per-capita change sort after those with one.
func SortHotspots(hotspots []HotspotInfo) {
	sort.SliceStable(hotspots, func(i, j int) bool {
		a, b := hotspots[i], hotspots[j]
		if a.TotalSeverity != b.TotalSeverity {
			return a.TotalSeverity > b.TotalSeverity
		}

		ca, cb := a.DailyChange7PerCapita, b.DailyChange7PerCapita
		switch {
		case ca != nil && cb == nil:
			return true
		case ca == nil && cb != nil:
			return false
		case ca != nil && cb != nil && *ca != *cb:
			return *ca > *cb
		}
		return a.AreaID < b.AreaID
	})
}
