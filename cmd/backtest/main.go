package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/straddle-overlay/internal/backtest/engine"
	v1 "github.com/rxtech-lab/straddle-overlay/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/straddle-overlay/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/straddle-overlay/internal/logger"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// backtestAction loads the engine configuration, points the chain data source
// at the given data file and runs the overlay to completion.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputPath := cmd.String("output")

	config, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	l, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	source, err := datasource.NewDataSource(":memory:", l)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return fmt.Errorf("failed to initialize data source with %s: %w", dataPath, err)
	}

	backtester := v1.NewOverlayEngineV1()

	if err := backtester.Initialize(string(config)); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	if err := backtester.SetDataSource(source); err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(outputPath); err != nil {
		return err
	}

	// The bar is created on the first callback because the total is only
	// known once the engine has counted the bars in the selected range.
	var bar *progressbar.ProgressBar

	onProcessData := engine.OnProcessDataCallback(func(current int, total int) error {
		if bar == nil {
			bar = progressbar.Default(int64(total))
			bar.Describe(fmt.Sprintf("Processing %s", dataPath))
		}

		return bar.Set(current)
	})

	return backtester.Run(optional.Some(onProcessData))
}

// schemaAction prints the JSON schema of the engine configuration.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	backtester := v1.NewOverlayEngineV1()

	schema, err := backtester.GetConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate config schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a scheduled straddle overlay over an option chain data file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the engine yaml configuration",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the option chain data file (parquet or csv)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Folder the trade log is exported to",
				Value:    "results",
				Required: false,
			},
		},
		Action: backtestAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the engine configuration",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
