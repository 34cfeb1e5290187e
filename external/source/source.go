// Package source reads raw observations from the published covid data sets
// and turns them into fragments for the merge engine.
package source

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/covid-trends/forecast"
	"github.com/bitmark-inc/covid-trends/schema"
)

const (
	logPrefix    = "source"
	fetchTimeout = 2 * time.Minute
)

var (
	ErrUnknownSourceType = fmt.Errorf("unknown source type")
	ErrNoLocation        = fmt.Errorf("source has neither url nor path")
)

// RowSource - interface to read raw observations
type RowSource interface {
	Name() string
	Fragments(ctx context.Context) ([]schema.Fragment, error)
}

type Type string

const (
	TypeCDS      Type = "cds"
	TypeCSV      Type = "csv"
	TypeForecast Type = "forecast"
	TypeTw       Type = "tw"
)

// Config describes one configured source.
type Config struct {
	Name    string   `mapstructure:"name"`
	Type    Type     `mapstructure:"type"`
	URL     string   `mapstructure:"url"`
	Path    string   `mapstructure:"path"`
	Model   string   `mapstructure:"model"`
	Metrics []string `mapstructure:"metrics"`
}

func (c Config) location() string {
	if c.URL != "" {
		return c.URL
	}
	return c.Path
}

func (c Config) name() string {
	if c.Name != "" {
		return c.Name
	}
	return string(c.Type)
}

// New builds the source a config describes.
func New(c Config) (RowSource, error) {
	location := c.location()
	if location == "" {
		return nil, fmt.Errorf("%s: %w", c.name(), ErrNoLocation)
	}

	switch c.Type {
	case TypeCDS:
		return NewCDS(c.name(), location, c.Metrics...), nil
	case TypeCSV:
		return NewCSV(c.name(), location), nil
	case TypeForecast:
		model, err := forecast.ParseModel(c.Model)
		if err != nil {
			return nil, err
		}
		return NewForecast(c.name(), location, model), nil
	case TypeTw:
		return NewTw(c.name(), location), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSourceType, string(c.Type))
}

// open returns a reader for an http(s) url or a local file path.
func open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return os.Open(location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if nil != err {
		log.WithFields(log.Fields{"prefix": logPrefix, "url": location, "error": err}).Error("get source data")
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: unexpected status %s", location, resp.Status)
	}
	return resp.Body, nil
}

func fetch(ctx context.Context, location string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	r, err := open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := ioutil.ReadAll(r)
	if nil != err {
		log.WithFields(log.Fields{"prefix": logPrefix, "location": location, "error": err}).Error("read source data")
		return nil, err
	}
	return data, nil
}
