package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/covid-trends/forecast"
	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/timeseries"
)

var (
	ErrEmptyCSV = fmt.Errorf("csv has no header")
)

// long format columns
const (
	columnArea      = "area"
	columnMetric    = "metric"
	columnQualifier = "qualifier"
	columnDate      = "date"
	columnValue     = "value"
)

var requiredColumns = []string{columnArea, columnMetric, columnDate, columnValue}

// CSV reads observations in long format, one observation per row with the
// columns area, metric, date, value and an optional qualifier.
type CSV struct {
	name     string
	location string
}

func NewCSV(name, location string) *CSV {
	return &CSV{name: name, location: location}
}

func (c *CSV) Name() string {
	return c.name
}

func (c *CSV) Fragments(ctx context.Context) ([]schema.Fragment, error) {
	data, err := fetch(ctx, c.location)
	if err != nil {
		return nil, err
	}
	return ParseCSV(c.name, data)
}

// ParseCSV decodes a long format document. Rows with an unparsable date
// or value are skipped.
func ParseCSV(source string, data []byte) ([]schema.Fragment, error) {
	records, err := readRecords(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var fragments []schema.Fragment
	for i, r := range records {
		if i == 0 {
			for _, column := range requiredColumns {
				if _, ok := r[column]; !ok {
					return nil, fmt.Errorf("%w: %s", forecast.ErrMissingColumn, column)
				}
			}
		}

		date, err := timeseries.ParseDate(strings.TrimSpace(r[columnDate]))
		if err != nil {
			log.WithFields(log.Fields{"prefix": logPrefix, "source": source, "row": i + 2, "error": err}).Warn("skip row with invalid date")
			continue
		}
		v, err := timeseries.ParseValue(strings.TrimSpace(r[columnValue]))
		if err != nil {
			log.WithFields(log.Fields{"prefix": logPrefix, "source": source, "row": i + 2, "error": err}).Warn("skip row with invalid value")
			continue
		}

		fragments = append(fragments, schema.Fragment{
			Source:    source,
			AreaID:    strings.TrimSpace(r[columnArea]),
			Metric:    strings.TrimSpace(r[columnMetric]),
			Qualifier: strings.TrimSpace(r[columnQualifier]),
			Date:      date,
			Value:     v,
		})
	}
	return fragments, nil
}

// readRecords reads a CSV with a header row into records keyed by the
// header names.
func readRecords(r io.Reader) ([]forecast.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var records []forecast.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		record := make(forecast.Record, len(header))
		for i, column := range header {
			if i < len(row) {
				record[column] = row[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}
