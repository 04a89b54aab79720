package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/straddle-overlay/internal/types"
)

// Step is one bar of the underlying clock: a distinct chain timestamp and
// the spot price observed at it.
type Step struct {
	Time time.Time
	Spot float64
}

// SQLResult represents a row of data from a SQL query
type SQLResult struct {
	Values map[string]interface{}
}

type ChainDataSource interface {
	// Initialize creates the option_chain view over the given parquet or csv data file
	Initialize(path string) error
	// Steps iterates the distinct bar timestamps with their spot prices in ascending order and yields them to the caller
	Steps(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(Step, error) bool)
	// SnapshotAt returns the option chain rows at the exact timestamp, with no lookback or lookahead
	SnapshotAt(timestamp time.Time) ([]types.OptionQuote, error)
	// Count returns the number of distinct bar timestamps in the data source
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// ExecuteSQL executes a raw SQL query and returns the results as SQLResult
	ExecuteSQL(query string, params ...interface{}) ([]SQLResult, error)
	// Close closes the data source and releases any resources
	Close() error
}
