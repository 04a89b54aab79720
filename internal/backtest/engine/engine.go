package engine

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/straddle-overlay/internal/backtest/engine/engine_v1/datasource"
)

// OnProcessDataCallback is called for each bar processed. Returning an error
// aborts the run.
type OnProcessDataCallback func(current int, total int) error

type Engine interface {
	// Initialize the engine with the given yaml configuration content.
	Initialize(config string) error
	// SetDataSource sets the option-chain data source that drives the run.
	SetDataSource(source datasource.ChainDataSource) error
	// SetResultsFolder sets the folder the trade log is exported to.
	SetResultsFolder(folder string) error
	// GetConfigSchema returns the JSON schema of the engine configuration.
	GetConfigSchema() (string, error)
	// Run processes every bar of the data source to completion.
	Run(onProcessDataCallback optional.Option[OnProcessDataCallback]) error
}
