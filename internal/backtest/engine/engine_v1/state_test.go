package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/straddle-overlay/internal/logger"
	"github.com/rxtech-lab/straddle-overlay/internal/types"
	"github.com/stretchr/testify/suite"
)

type StateTestSuite struct {
	suite.Suite
	state *BacktestState
}

func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateTestSuite))
}

func (suite *StateTestSuite) SetupTest() {
	state, err := NewBacktestState(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(state.Initialize())
	suite.state = state
}

func (suite *StateTestSuite) TearDownTest() {
	suite.Require().NoError(suite.state.Close())
}

func tradeFixture(id string, exitTime time.Time, pnl float64) types.TradeRecord {
	return types.TradeRecord{
		PositionID: id,
		EntryTime:  exitTime.Add(-24 * time.Hour),
		ExitTime:   exitTime,
		Strike:     100_000,
		Size:       83.3333,
		EntrySpot:  100_000,
		ExitSpot:   105_000,
		PnL:        pnl,
	}
}

func (suite *StateTestSuite) TestAppendAndGetAllTrades() {
	exitTime := time.Date(2024, 1, 3, 16, 5, 0, 0, time.UTC)

	suite.Require().NoError(suite.state.Append(tradeFixture("pos-2", exitTime.Add(time.Hour), -500)))
	suite.Require().NoError(suite.state.Append(tradeFixture("pos-1", exitTime, 1000)))

	trades, err := suite.state.GetAllTrades()

	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)

	// Settlement order, not insertion order.
	suite.Equal("pos-1", trades[0].PositionID)
	suite.Equal("pos-2", trades[1].PositionID)
	suite.Equal(1000.0, trades[0].PnL)
	suite.Equal(100_000.0, trades[0].Strike)
}

func (suite *StateTestSuite) TestGetAllTradesEmpty() {
	trades, err := suite.state.GetAllTrades()

	suite.NoError(err)
	suite.Empty(trades)
}

func (suite *StateTestSuite) TestTotalPnL() {
	exitTime := time.Date(2024, 1, 3, 16, 5, 0, 0, time.UTC)

	suite.Require().NoError(suite.state.Append(tradeFixture("pos-1", exitTime, 1000)))
	suite.Require().NoError(suite.state.Append(tradeFixture("pos-2", exitTime.Add(time.Hour), -250)))

	total, err := suite.state.TotalPnL()

	suite.Require().NoError(err)
	suite.InDelta(750.0, total, 1e-9)
}

func (suite *StateTestSuite) TestTotalPnLEmpty() {
	total, err := suite.state.TotalPnL()

	suite.Require().NoError(err)
	suite.Equal(0.0, total)
}

func (suite *StateTestSuite) TestWriteExportsParquetAndCsv() {
	exitTime := time.Date(2024, 1, 3, 16, 5, 0, 0, time.UTC)
	suite.Require().NoError(suite.state.Append(tradeFixture("pos-1", exitTime, 1000)))

	dir := filepath.Join(suite.T().TempDir(), "results")

	suite.Require().NoError(suite.state.Write(dir))

	parquetInfo, err := os.Stat(filepath.Join(dir, "trades.parquet"))
	suite.Require().NoError(err)
	suite.NotZero(parquetInfo.Size())

	csvInfo, err := os.Stat(filepath.Join(dir, "trades.csv"))
	suite.Require().NoError(err)
	suite.NotZero(csvInfo.Size())
}

func (suite *StateTestSuite) TestCleanupResetsTrades() {
	exitTime := time.Date(2024, 1, 3, 16, 5, 0, 0, time.UTC)
	suite.Require().NoError(suite.state.Append(tradeFixture("pos-1", exitTime, 1000)))

	suite.Require().NoError(suite.state.Cleanup())

	trades, err := suite.state.GetAllTrades()
	suite.Require().NoError(err)
	suite.Empty(trades)

	// The table is recreated and usable after cleanup.
	suite.NoError(suite.state.Append(tradeFixture("pos-2", exitTime, 500)))
}

func (suite *StateTestSuite) TestDuplicatePositionIDRejected() {
	exitTime := time.Date(2024, 1, 3, 16, 5, 0, 0, time.UTC)

	suite.Require().NoError(suite.state.Append(tradeFixture("pos-1", exitTime, 1000)))
	suite.Error(suite.state.Append(tradeFixture("pos-1", exitTime.Add(time.Hour), 500)))
}
