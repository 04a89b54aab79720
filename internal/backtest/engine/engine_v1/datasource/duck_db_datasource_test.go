package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/straddle-overlay/internal/logger"
	"github.com/rxtech-lab/straddle-overlay/internal/types"
	"github.com/rxtech-lab/straddle-overlay/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// Two bars, five minutes apart. The second bar carries a row with an empty
// best ask to exercise NULL handling.
const chainFixtureCSV = `time,underlyer_spot,expiration_date,claim_type,strike,best_ask_price
2024-01-02 16:05:00,100000,2024-01-03 16:00:00,call,100000,0.02
2024-01-02 16:05:00,100000,2024-01-03 16:00:00,put,100000,0.025
2024-01-02 16:05:00,100000,2024-01-03 16:00:00,call,101000,0.015
2024-01-02 16:05:00,100000,2024-01-03 16:00:00,put,101000,0.018
2024-01-02 16:10:00,100500,2024-01-03 16:00:00,call,100000,0.021
2024-01-02 16:10:00,100500,2024-01-03 16:00:00,put,100000,
`

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	source  ChainDataSource
	tmpDir  string
	csvPath string
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupSuite() {
	suite.tmpDir = suite.T().TempDir()
	suite.csvPath = filepath.Join(suite.tmpDir, "chain.csv")

	err := os.WriteFile(suite.csvPath, []byte(chainFixtureCSV), 0644)
	suite.Require().NoError(err)

	source, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.source = source

	suite.Require().NoError(source.Initialize(suite.csvPath))
}

func (suite *DuckDBDataSourceTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.source.Close())
}

func (suite *DuckDBDataSourceTestSuite) TestInitializeUnsupportedFormat() {
	source, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)

	defer source.Close()

	err = source.Initialize(filepath.Join(suite.tmpDir, "chain.json"))

	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedDataFormat))
}

func (suite *DuckDBDataSourceTestSuite) TestInitializeIsRepeatable() {
	// Re-pointing the view at the same file must not fail.
	suite.NoError(suite.source.Initialize(suite.csvPath))
}

func (suite *DuckDBDataSourceTestSuite) TestCount() {
	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())

	suite.Require().NoError(err)
	suite.Equal(2, count)
}

func (suite *DuckDBDataSourceTestSuite) TestCountWithRange() {
	start := time.Date(2024, 1, 2, 16, 8, 0, 0, time.UTC)

	count, err := suite.source.Count(optional.Some(start), optional.None[time.Time]())

	suite.Require().NoError(err)
	suite.Equal(1, count)
}

func (suite *DuckDBDataSourceTestSuite) TestSteps() {
	var steps []Step

	for step, err := range suite.source.Steps(optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)

		steps = append(steps, step)
	}

	suite.Require().Len(steps, 2)

	suite.Equal(time.Date(2024, 1, 2, 16, 5, 0, 0, time.UTC), steps[0].Time)
	suite.Equal(100000.0, steps[0].Spot)
	suite.Equal(time.Date(2024, 1, 2, 16, 10, 0, 0, time.UTC), steps[1].Time)
	suite.Equal(100500.0, steps[1].Spot)
}

func (suite *DuckDBDataSourceTestSuite) TestStepsWithRange() {
	end := time.Date(2024, 1, 2, 16, 5, 0, 0, time.UTC)

	var steps []Step

	for step, err := range suite.source.Steps(optional.None[time.Time](), optional.Some(end)) {
		suite.Require().NoError(err)

		steps = append(steps, step)
	}

	suite.Require().Len(steps, 1)
	suite.Equal(end, steps[0].Time)
}

func (suite *DuckDBDataSourceTestSuite) TestStepsEarlyStop() {
	count := 0

	for _, err := range suite.source.Steps(optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)

		count++

		break
	}

	suite.Equal(1, count)
}

func (suite *DuckDBDataSourceTestSuite) TestSnapshotAt() {
	quotes, err := suite.source.SnapshotAt(time.Date(2024, 1, 2, 16, 5, 0, 0, time.UTC))

	suite.Require().NoError(err)
	suite.Require().Len(quotes, 4)

	// Ordered by expiry, strike, claim type.
	suite.Equal(100000.0, quotes[0].Strike)
	suite.Equal(types.ClaimTypeCall, quotes[0].Claim)
	suite.True(quotes[0].BestAsk.IsSome())
	suite.Equal(0.02, quotes[0].BestAsk.Unwrap())

	suite.Equal(types.ClaimTypePut, quotes[1].Claim)
	suite.Equal(0.025, quotes[1].BestAsk.Unwrap())

	suite.Equal(101000.0, quotes[2].Strike)
}

func (suite *DuckDBDataSourceTestSuite) TestSnapshotAtNullAsk() {
	quotes, err := suite.source.SnapshotAt(time.Date(2024, 1, 2, 16, 10, 0, 0, time.UTC))

	suite.Require().NoError(err)
	suite.Require().Len(quotes, 2)

	suite.Equal(types.ClaimTypeCall, quotes[0].Claim)
	suite.True(quotes[0].HasValidAsk())

	// The empty csv field comes back as a missing ask, not zero.
	suite.Equal(types.ClaimTypePut, quotes[1].Claim)
	suite.True(quotes[1].BestAsk.IsNone())
	suite.False(quotes[1].HasValidAsk())
}

func (suite *DuckDBDataSourceTestSuite) TestSnapshotAtMissingTimestamp() {
	quotes, err := suite.source.SnapshotAt(time.Date(2024, 1, 2, 16, 7, 0, 0, time.UTC))

	suite.NoError(err)
	suite.Empty(quotes)
}

func (suite *DuckDBDataSourceTestSuite) TestExecuteSQL() {
	results, err := suite.source.ExecuteSQL("SELECT COUNT(*) AS row_count FROM option_chain")

	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.EqualValues(6, results[0].Values["row_count"])
}
