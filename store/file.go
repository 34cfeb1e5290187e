package store

import (
	"bufio"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/covid-trends/timeseries"
)

const (
	fileLogPrefix = "file"
	gzipSuffix    = ".gz"
)

// fileStore keeps every series in one line-format file, gzip compressed
// when the path ends in .gz. Saves rewrite the whole file through a
// temporary file so readers never see a partial write.
type fileStore struct {
	sync.Mutex
	path string
}

// NewFileStore - return a store backed by a single series file
func NewFileStore(path string) SeriesStore {
	return &fileStore{path: path}
}

func (f *fileStore) compressed() bool {
	return strings.HasSuffix(f.path, gzipSuffix)
}

// read returns nil without error when the file does not exist yet.
func (f *fileStore) read() ([]timeseries.TimeSeries, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	if f.compressed() {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}

	return timeseries.Read(r)
}

func (f *fileStore) write(series []timeseries.TimeSeries) error {
	dir := filepath.Dir(f.path)
	tmp, err := ioutil.TempFile(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	var zw *gzip.Writer
	if f.compressed() {
		zw = gzip.NewWriter(tmp)
		w = zw
	}

	if err := timeseries.Write(w, series); err != nil {
		tmp.Close()
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}

func (f *fileStore) Load(key timeseries.Key) (timeseries.TimeSeries, error) {
	f.Lock()
	defer f.Unlock()

	series, err := f.read()
	if err != nil {
		return timeseries.TimeSeries{}, err
	}
	for _, ts := range series {
		if ts.Key() == key {
			return ts, nil
		}
	}
	return timeseries.TimeSeries{}, ErrSeriesNotFound
}

func (f *fileStore) Save(series ...timeseries.TimeSeries) error {
	if len(series) == 0 {
		return nil
	}

	f.Lock()
	defer f.Unlock()

	existing, err := f.read()
	if err != nil {
		return err
	}

	byKey := make(map[timeseries.Key]timeseries.TimeSeries, len(existing)+len(series))
	for _, ts := range existing {
		byKey[ts.Key()] = ts
	}
	for _, ts := range series {
		byKey[ts.Key()] = ts
	}

	merged := make([]timeseries.TimeSeries, 0, len(byKey))
	for _, ts := range byKey {
		merged = append(merged, ts)
	}
	timeseries.SortByKey(merged)

	if err := f.write(merged); err != nil {
		log.WithField("prefix", fileLogPrefix).Errorf("write %s with error: %s", f.path, err)
		return err
	}
	log.WithField("prefix", fileLogPrefix).Debugf("%d series written to %s", len(merged), f.path)
	return nil
}

func (f *fileStore) Keys() ([]timeseries.Key, error) {
	series, err := f.LoadAll()
	if err != nil {
		return nil, err
	}

	keys := make([]timeseries.Key, len(series))
	for i, ts := range series {
		keys[i] = ts.Key()
	}
	return keys, nil
}

func (f *fileStore) LoadAll() ([]timeseries.TimeSeries, error) {
	f.Lock()
	defer f.Unlock()

	series, err := f.read()
	if err != nil {
		return nil, err
	}
	if series == nil {
		series = []timeseries.TimeSeries{}
	}
	timeseries.SortByKey(series)
	return series, nil
}

// Ping checks that the directory holding the file is reachable.
func (f *fileStore) Ping() error {
	_, err := os.Stat(filepath.Dir(f.path))
	return err
}

func (f *fileStore) Close() {
	log.WithField("prefix", fileLogPrefix).Info("file store closed")
}
