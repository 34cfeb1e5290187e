package store

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bitmark-inc/covid-trends/timeseries"
)

type SeriesTestSuite struct {
	suite.Suite
	connURI      string
	testDBName   string
	mongoClient  *mongo.Client
	testDatabase *mongo.Database
}

func NewSeriesTestSuite(connURI, dbName string) *SeriesTestSuite {
	return &SeriesTestSuite{
		connURI:    connURI,
		testDBName: dbName,
	}
}

func (s *SeriesTestSuite) SetupSuite() {
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(s.connURI))
	if nil != err {
		s.T().Fatalf("connect mongo database with error: %s", err.Error())
	}

	s.mongoClient = mongoClient
	s.testDatabase = mongoClient.Database(s.testDBName)
}

func (s *SeriesTestSuite) SetupTest() {
	// make sure every test is run with a clean environment
	if err := s.testDatabase.Drop(context.Background()); err != nil {
		s.T().Fatal(err)
	}
}

func (s *SeriesTestSuite) TearDownSuite() {
	s.testDatabase.Drop(context.Background())
	s.mongoClient.Disconnect(context.Background())
}

func (s *SeriesTestSuite) TestSaveAndLoad() {
	st := NewMongoStore(s.mongoClient, s.testDBName)
	s.NoError(st.Ping())

	ohio := testSeries("ohio", "deaths", 1, math.NaN(), math.Inf(-1)).With(timeseries.WithIntValues(true))
	texas := testSeries("texas", "cases", 4, 5, 6)
	s.NoError(st.Save(texas, ohio))

	loaded, err := st.Load(ohio.Key())
	s.NoError(err)
	s.Equal("test", loaded.Source)
	s.True(loaded.IntValues)
	s.Equal(jan1, loaded.Start)
	s.Require().Len(loaded.Values, 3)
	s.True(math.IsNaN(loaded.Values[1]))
	s.True(math.IsInf(loaded.Values[2], -1))

	keys, err := st.Keys()
	s.NoError(err)
	s.Equal([]timeseries.Key{ohio.Key(), texas.Key()}, keys)

	s.NoError(st.Save(testSeries("texas", "cases", 7)))
	all, err := st.LoadAll()
	s.NoError(err)
	s.Require().Len(all, 2)
	s.Equal([]float64{7}, all[1].Values)
}

func (s *SeriesTestSuite) TestLoadMissing() {
	st := NewMongoStore(s.mongoClient, s.testDBName)

	_, err := st.Load(timeseries.Key{AreaID: "atlantis", Metric: "cases"})
	s.Equal(ErrSeriesNotFound, err)

	all, err := st.LoadAll()
	s.NoError(err)
	s.Empty(all)
}

// In order for 'go test' to run this suite, we need to create
// a normal test function and pass our suite to s.Run
func TestSeriesTestSuite(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("Skip series store tests due to missing TEST_MONGO_URI")
	}
	suite.Run(t, NewSeriesTestSuite(uri, "test-series"))
}
