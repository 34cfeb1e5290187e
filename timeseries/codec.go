package timeseries

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bitmark-inc/covid-trends/numeric"
)

// Line format: one series per line, tab separated
//
//	source areaId metric qualifier isIntegerValued defaultValue startDate v0 v1 ...
//
// NaN is written as an empty field, ±Inf as Inf / -Inf.

const (
	headerFields   = 7
	maxLineLength  = 16 * 1024 * 1024
	fieldSeparator = "\t"
)

var headerNames = [headerFields]string{
	"source", "area", "metric", "qualifier", "int_values", "default_value", "start",
}

// ParseError reports a malformed serialized series.
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: field %s: %s", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FormatValue renders one value. Integer valued series are rounded.
func FormatValue(v float64, intValues bool) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return numeric.PositiveInfinityToken
	case math.IsInf(v, -1):
		return numeric.NegativeInfinityToken
	case intValues:
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseValue is the inverse of FormatValue.
func ParseValue(s string) (float64, error) {
	switch s {
	case "":
		return math.NaN(), nil
	case numeric.PositiveInfinityToken:
		return math.Inf(1), nil
	case numeric.NegativeInfinityToken:
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

// MarshalLine serializes ts into a single line without the line break.
func MarshalLine(ts TimeSeries) string {
	fields := make([]string, 0, headerFields+len(ts.Values))
	fields = append(fields,
		ts.Source,
		ts.AreaID,
		ts.Metric,
		ts.Qualifier,
		strconv.FormatBool(ts.IntValues),
		FormatValue(ts.DefaultValue, false),
		ts.Start.Format(DateLayout),
	)
	for _, v := range ts.Values {
		fields = append(fields, FormatValue(v, ts.IntValues))
	}
	return strings.Join(fields, fieldSeparator)
}

// UnmarshalLine parses a line produced by MarshalLine.
func UnmarshalLine(line string) (TimeSeries, error) {
	return unmarshalLine(1, line)
}

func unmarshalLine(lineNumber int, line string) (TimeSeries, error) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) < headerFields {
		return TimeSeries{}, &ParseError{
			Line: lineNumber,
			Err:  fmt.Errorf("expected at least %d fields, got %d", headerFields, len(fields)),
		}
	}

	intValues, err := strconv.ParseBool(fields[4])
	if err != nil {
		return TimeSeries{}, &ParseError{Line: lineNumber, Field: headerNames[4], Err: err}
	}

	defaultValue, err := ParseValue(fields[5])
	if err != nil {
		return TimeSeries{}, &ParseError{Line: lineNumber, Field: headerNames[5], Err: err}
	}

	start, err := ParseDate(fields[6])
	if err != nil {
		return TimeSeries{}, &ParseError{Line: lineNumber, Field: headerNames[6], Err: err}
	}

	values := make([]float64, len(fields)-headerFields)
	for i, raw := range fields[headerFields:] {
		v, err := ParseValue(raw)
		if err != nil {
			return TimeSeries{}, &ParseError{Line: lineNumber, Field: fmt.Sprintf("value[%d]", i), Err: err}
		}
		values[i] = v
	}

	return TimeSeries{
		Source:       fields[0],
		AreaID:       fields[1],
		Metric:       fields[2],
		Qualifier:    fields[3],
		IntValues:    intValues,
		DefaultValue: defaultValue,
		Start:        start,
		Values:       values,
	}, nil
}

// Write serializes every series on its own line.
func Write(w io.Writer, series []TimeSeries) error {
	bw := bufio.NewWriter(w)
	for _, ts := range series {
		if _, err := bw.WriteString(MarshalLine(ts)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses every line of r. Blank lines are skipped; any malformed line
// aborts the read with a *ParseError.
func Read(r io.Reader) ([]TimeSeries, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)

	var series []TimeSeries
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if line == "" {
			continue
		}
		ts, err := unmarshalLine(lineNumber, line)
		if err != nil {
			return nil, err
		}
		series = append(series, ts)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return series, nil
}
