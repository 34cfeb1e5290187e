package store

import (
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/bitmark-inc/covid-trends/timeseries"
)

var jan1 = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func testSeries(area, metric string, values ...float64) timeseries.TimeSeries {
	return timeseries.New(
		timeseries.Key{AreaID: area, Metric: metric},
		jan1,
		values,
		timeseries.WithSource("test"),
	)
}

type FileStoreTestSuite struct {
	suite.Suite
	dir      string
	fileName string
}

func (s *FileStoreTestSuite) SetupTest() {
	dir, err := ioutil.TempDir("", "series")
	s.Require().NoError(err)
	s.dir = dir
}

func (s *FileStoreTestSuite) TearDownTest() {
	os.RemoveAll(s.dir)
}

func (s *FileStoreTestSuite) path() string {
	return filepath.Join(s.dir, s.fileName)
}

func (s *FileStoreTestSuite) TestEmpty() {
	st := NewFileStore(s.path())

	all, err := st.LoadAll()
	s.NoError(err)
	s.Empty(all)

	_, err = st.Load(timeseries.Key{AreaID: "texas", Metric: "cases"})
	s.Equal(ErrSeriesNotFound, err)

	s.NoError(st.Ping())
	s.NoError(st.Save())
}

func (s *FileStoreTestSuite) TestSaveAndLoad() {
	st := NewFileStore(s.path())

	ohio := testSeries("ohio", "cases", 1, math.NaN(), math.Inf(1))
	texas := testSeries("texas", "cases", 4, 5, 6)
	s.NoError(st.Save(texas, ohio))

	loaded, err := st.Load(ohio.Key())
	s.NoError(err)
	s.Equal("test", loaded.Source)
	s.Equal(jan1, loaded.Start)
	s.Require().Len(loaded.Values, 3)
	s.Equal(1.0, loaded.Values[0])
	s.True(math.IsNaN(loaded.Values[1]))
	s.True(math.IsInf(loaded.Values[2], 1))

	keys, err := st.Keys()
	s.NoError(err)
	s.Equal([]timeseries.Key{ohio.Key(), texas.Key()}, keys)

	// replaces by key, keeps the rest
	s.NoError(st.Save(testSeries("texas", "cases", 7)))
	all, err := st.LoadAll()
	s.NoError(err)
	s.Require().Len(all, 2)
	s.Equal([]float64{7}, all[1].Values)

	entries, err := ioutil.ReadDir(s.dir)
	s.NoError(err)
	s.Len(entries, 1, "temporary files must be cleaned up")
}

func (s *FileStoreTestSuite) TestCorruptFile() {
	s.Require().NoError(ioutil.WriteFile(s.path(), []byte("not a series\n"), 0600))

	st := NewFileStore(s.path())
	_, err := st.LoadAll()
	s.Error(err)
	s.Error(st.Save(testSeries("texas", "cases", 1)))
}

func TestPlainFileStore(t *testing.T) {
	suite.Run(t, &FileStoreTestSuite{fileName: "series.tsv"})
}

func TestGzipFileStore(t *testing.T) {
	suite.Run(t, &FileStoreTestSuite{fileName: "series.tsv.gz"})
}
