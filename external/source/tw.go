package source

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/utils"
)

// Taiwan government returns json with chinese key
type twCovid struct {
	Year           string `json:"診斷年份"`
	Week           int    `json:"診斷週別,string"`
	County         string `json:"縣市"`
	Gender         string `json:"性別"`
	Foreign        string `json:"是否為境外移入"`
	Age            string `json:"年齡層"`
	ConfirmedCount int    `json:"確定病例數,string"`
}

// Tw reads the weekly confirmed case report of the Taiwan CDC and turns
// it into cumulative county case counts, dated on the last day of each
// ISO week.
type Tw struct {
	name     string
	location string
}

// NewTw - new tw cdc source
func NewTw(name, location string) *Tw {
	return &Tw{name: name, location: location}
}

func (t *Tw) Name() string {
	return t.name
}

func (t *Tw) Fragments(ctx context.Context) ([]schema.Fragment, error) {
	data, err := fetch(ctx, t.location)
	if err != nil {
		return nil, err
	}

	var arr []twCovid
	if err := json.Unmarshal(data, &arr); nil != err {
		log.WithFields(log.Fields{"prefix": logPrefix, "source": t.name, "error": err}).Error("decode tw json")
		return nil, err
	}

	return aggregateTw(t.name, arr), nil
}

type twWeek struct {
	county string
	date   time.Time
}

func aggregateTw(source string, data []twCovid) []schema.Fragment {
	weekly := make(map[twWeek]int)
	for _, d := range data {
		county, err := utils.TwCountyKey(d.County)
		if err != nil {
			log.WithFields(log.Fields{"prefix": logPrefix, "county": d.County}).Warn("skip unknown tw county")
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(d.Year))
		if err != nil || d.Week < 1 || d.Week > 53 {
			log.WithFields(log.Fields{"prefix": logPrefix, "year": d.Year, "week": d.Week}).Warn("skip invalid tw week")
			continue
		}
		weekly[twWeek{county: county, date: isoWeekEnd(year, d.Week)}] += d.ConfirmedCount
	}

	weeks := make([]twWeek, 0, len(weekly))
	for w := range weekly {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i].county != weeks[j].county {
			return weeks[i].county < weeks[j].county
		}
		return weeks[i].date.Before(weeks[j].date)
	})

	fragments := make([]schema.Fragment, 0, len(weeks))
	total := 0
	for i, w := range weeks {
		if i == 0 || weeks[i-1].county != w.county {
			total = 0
		}
		total += weekly[w]
		fragments = append(fragments, schema.Fragment{
			Source: source,
			AreaID: w.county,
			Metric: "cases",
			Date:   w.date,
			Value:  float64(total),
		})
	}
	return fragments
}

// isoWeekEnd returns the sunday closing the given ISO week.
func isoWeekEnd(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	return monday.AddDate(0, 0, 7*(week-1)+6)
}
