package engine

import (
	"fmt"
	"os"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/straddle-overlay/internal/backtest/engine"
	"github.com/rxtech-lab/straddle-overlay/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/straddle-overlay/internal/logger"
	"github.com/rxtech-lab/straddle-overlay/internal/overlay"
	"github.com/rxtech-lab/straddle-overlay/internal/types"
	"github.com/rxtech-lab/straddle-overlay/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// OverlayEngineV1 drives one overlay session over a chain data source:
// per bar it settles expired positions, evaluates the schedule and opens at
// most one new straddle, then exports the settled trade log at run end.
type OverlayEngineV1 struct {
	config        OverlayEngineV1Config
	resultsFolder string
	log           *logger.Logger
	state         *BacktestState
	datasource    datasource.ChainDataSource
	session       *overlay.Session
}

func NewOverlayEngineV1() engine.Engine {
	return &OverlayEngineV1{
		config:        EmptyConfig(),
		resultsFolder: "",
		log:           nil,
		state:         nil,
		datasource:    nil,
		session:       nil,
	}
}

// Initialize implements engine.Engine.
func (b *OverlayEngineV1) Initialize(config string) error {
	// parse the config
	err := yaml.Unmarshal([]byte(config), &b.config)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine config", err)
	}

	// initialize the logger
	b.log, err = logger.NewLogger()
	if err != nil {
		return err
	}

	b.log.Debug("Overlay engine initialized",
		zap.String("config", config),
	)

	if err := b.config.Validate(); err != nil {
		return err
	}

	// initialize the state
	b.state, err = NewBacktestState(b.log)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create backtest state", err)
	}

	if err := b.state.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize state", err)
	}

	return nil
}

// SetDataSource implements engine.Engine.
func (b *OverlayEngineV1) SetDataSource(source datasource.ChainDataSource) error {
	b.datasource = source

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *OverlayEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *OverlayEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Run implements engine.Engine. Bars are processed strictly in order and to
// completion; positions still open when the data runs out stay open.
func (b *OverlayEngineV1) Run(onProcessDataCallback optional.Option[engine.OnProcessDataCallback]) error {
	if err := b.preRunCheck(); err != nil {
		return err
	}

	// clean the results folder
	if _, err := os.Stat(b.resultsFolder); err == nil {
		os.RemoveAll(b.resultsFolder)
	}

	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return fmt.Errorf("failed to create results folder: %w", err)
	}

	location, err := b.config.Location()
	if err != nil {
		return err
	}

	schedule, err := b.config.ScheduleEntries()
	if err != nil {
		return err
	}

	b.session = overlay.NewSession(overlay.SessionConfig{
		InitialCapital: b.config.InitialCapital,
		Schedule:       schedule,
		Location:       location,
	}, b.log)

	count, err := b.datasource.Count(b.config.StartTime, b.config.EndTime)
	if err != nil {
		return fmt.Errorf("failed to get bar count: %w", err)
	}

	b.log.Debug("Running overlay session",
		zap.Int("bars", count),
		zap.Float64("initial_capital", b.config.InitialCapital),
	)

	currentCount := 0

	for step, err := range b.datasource.Steps(b.config.StartTime, b.config.EndTime) {
		if err != nil {
			return fmt.Errorf("failed to read bar: %w", err)
		}

		settled, err := b.session.Advance(step.Time, step.Spot, b.datasource)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeBacktestRunFailed, err, "failed to process bar at %s", step.Time)
		}

		for _, trade := range settled {
			if err := b.state.Append(trade); err != nil {
				return err
			}
		}

		currentCount++

		if onProcessDataCallback.IsSome() {
			if err := onProcessDataCallback.Unwrap()(currentCount, count); err != nil {
				return err
			}
		}
	}

	if err := b.state.Write(b.resultsFolder); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	b.log.Info("Overlay run finished",
		zap.Int("bars", currentCount),
		zap.Int("trades", len(b.session.TradeLog())),
		zap.Float64("final_cash", b.session.Cash()),
		zap.Float64("realized_pnl", b.session.CumulativePnL()),
	)

	if open := b.session.OpenPositionCount(); open > 0 {
		// Positions past the end of the bar stream are left unsettled;
		// there is no forced liquidation.
		b.log.Warn("positions still open at run end",
			zap.Int("open_positions", open),
		)
	}

	return nil
}

// Session returns the overlay session of the most recent run, nil before the
// first Run call.
func (b *OverlayEngineV1) Session() *overlay.Session {
	return b.session
}

// GetAllTrades returns the persisted trade log of the most recent run.
func (b *OverlayEngineV1) GetAllTrades() ([]types.TradeRecord, error) {
	if b.state == nil {
		return nil, errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	return b.state.GetAllTrades()
}

func (b *OverlayEngineV1) preRunCheck() error {
	if len(b.config.Schedule) == 0 {
		b.log.Error("No schedule configured")

		return errors.New(errors.ErrCodeInvalidSchedule, "no schedule configured")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	if b.state == nil {
		b.log.Error("Backtest state is nil")

		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	return nil
}
