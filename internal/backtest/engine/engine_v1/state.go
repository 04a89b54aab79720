package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/straddle-overlay/internal/logger"
	"github.com/rxtech-lab/straddle-overlay/internal/types"
	"go.uber.org/zap"
)

// BacktestState persists the settled trade log in an in-memory DuckDB table
// so downstream reporters can export it as parquet or csv.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	return &BacktestState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the trades table.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			position_id TEXT PRIMARY KEY,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			strike DOUBLE,
			size DOUBLE,
			entry_spot DOUBLE,
			exit_spot DOUBLE,
			pnl DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	return nil
}

// Append inserts a settled trade. The table is append-only; records are
// never updated.
func (b *BacktestState) Append(trade types.TradeRecord) error {
	insertQuery := b.sq.
		Insert("trades").
		Columns(
			"position_id", "entry_time", "exit_time", "strike",
			"size", "entry_spot", "exit_spot", "pnl",
		).
		Values(
			trade.PositionID, trade.EntryTime, trade.ExitTime, trade.Strike,
			trade.Size, trade.EntrySpot, trade.ExitSpot, trade.PnL,
		).
		RunWith(b.db)

	if _, err := insertQuery.Exec(); err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	return nil
}

// GetAllTrades returns all settled trades in settlement order.
func (b *BacktestState) GetAllTrades() ([]types.TradeRecord, error) {
	selectQuery := b.sq.
		Select(
			"position_id", "entry_time", "exit_time", "strike",
			"size", "entry_spot", "exit_spot", "pnl",
		).
		From("trades").
		OrderBy("exit_time ASC").
		RunWith(b.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []types.TradeRecord

	for rows.Next() {
		var trade types.TradeRecord

		err := rows.Scan(
			&trade.PositionID,
			&trade.EntryTime,
			&trade.ExitTime,
			&trade.Strike,
			&trade.Size,
			&trade.EntrySpot,
			&trade.ExitSpot,
			&trade.PnL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// TotalPnL returns the sum of realized pnl over all settled trades.
func (b *BacktestState) TotalPnL() (float64, error) {
	query := b.sq.
		Select("COALESCE(SUM(pnl), 0)").
		From("trades").
		RunWith(b.db)

	var total float64
	if err := query.QueryRow().Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum pnl: %w", err)
	}

	return total, nil
}

// Write exports the trade log to the given directory as both parquet and
// csv.
func (b *BacktestState) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// COPY requires raw SQL - Squirrel has no syntax for it
	tradesParquetPath := filepath.Join(path, "trades.parquet")

	_, err := b.db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, tradesParquetPath))
	if err != nil {
		return fmt.Errorf("failed to export trades to Parquet: %w", err)
	}

	tradesCsvPath := filepath.Join(path, "trades.csv")

	_, err = b.db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT CSV, HEADER)`, tradesCsvPath))
	if err != nil {
		return fmt.Errorf("failed to export trades to CSV: %w", err)
	}

	b.logger.Info("Successfully exported trade log",
		zap.String("parquet", tradesParquetPath),
		zap.String("csv", tradesCsvPath),
	)

	return nil
}

// Cleanup resets the trade log.
func (b *BacktestState) Cleanup() error {
	_, err := b.db.Exec(`DROP TABLE IF EXISTS trades;`)
	if err != nil {
		return fmt.Errorf("failed to cleanup tables: %w", err)
	}

	return b.Initialize()
}

// Close releases the state database.
func (b *BacktestState) Close() error {
	if b.db != nil {
		return b.db.Close()
	}

	return nil
}
