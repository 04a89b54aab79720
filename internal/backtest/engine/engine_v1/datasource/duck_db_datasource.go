package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/straddle-overlay/internal/logger"
	"github.com/rxtech-lab/straddle-overlay/internal/types"
	"github.com/rxtech-lab/straddle-overlay/pkg/errors"
	"go.uber.org/zap"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource creates a new DuckDB chain data source backed by the database
// at the given path (":memory:" for an in-memory database). This is distinct
// from Initialize() which points the option_chain view at a data file.
func NewDataSource(path string, logger *logger.Logger) (ChainDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements ChainDataSource. The file's columns must include
// time, underlyer_spot, expiration_date, claim_type, strike and
// best_ask_price.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB chain data source", zap.String("path", path))

	// First drop the view if it exists
	_, err := d.db.Exec(`DROP VIEW IF EXISTS option_chain;`)
	if err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = fmt.Sprintf("read_parquet('%s')", path)
	case ".csv":
		reader = fmt.Sprintf("read_csv_auto('%s')", path)
	default:
		return errors.Newf(errors.ErrCodeUnsupportedDataFormat, "unsupported chain data format: %s", filepath.Ext(path))
	}

	// Create a view over the data file - raw SQL as Squirrel doesn't support CREATE VIEW
	query := fmt.Sprintf(`
		CREATE VIEW option_chain AS
		SELECT * FROM %s;
	`, reader)

	_, err = d.db.Exec(query)
	if err != nil {
		return err
	}

	return nil
}

// Count implements ChainDataSource. It counts distinct bar timestamps, not
// chain rows, so it matches the number of steps the engine will process.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	var count int

	query := "SELECT COUNT(DISTINCT time) FROM option_chain"

	conditions, params := buildTimeRangeConditions(start, end)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var row *sql.Row
	if len(params) > 0 {
		row = d.db.QueryRow(query, params...)
	} else {
		row = d.db.QueryRow(query)
	}

	err := row.Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Steps implements ChainDataSource. Each distinct timestamp yields one step
// carrying the spot observed at it; rows at the same timestamp share the
// spot, so the first value per group is used.
func (d *DuckDBDataSource) Steps(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(Step, error) bool) {
	return func(yield func(Step, error) bool) {
		d.logger.Debug("Reading bar steps from DuckDB")

		query := `
			SELECT time, FIRST(underlyer_spot) AS spot
			FROM option_chain
		`

		conditions, params := buildTimeRangeConditions(start, end)
		if len(conditions) > 0 {
			query += " WHERE " + strings.Join(conditions, " AND ")
		}

		query += " GROUP BY time ORDER BY time ASC"

		stmt, err := d.db.Prepare(query)
		if err != nil {
			yield(Step{Time: time.Time{}, Spot: 0}, err)

			return
		}
		defer stmt.Close()

		var rows *sql.Rows
		if len(params) > 0 {
			rows, err = stmt.Query(params...)
		} else {
			rows, err = stmt.Query()
		}

		if err != nil {
			yield(Step{Time: time.Time{}, Spot: 0}, err)

			return
		}

		defer rows.Close()

		for rows.Next() {
			var (
				timestamp time.Time
				spot      float64
			)

			if err := rows.Scan(&timestamp, &spot); err != nil {
				yield(Step{Time: time.Time{}, Spot: 0}, err)

				return
			}

			if !yield(Step{Time: timestamp, Spot: spot}, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(Step{Time: time.Time{}, Spot: 0}, err)
		}
	}
}

// SnapshotAt implements ChainDataSource. Only rows at the exact timestamp are
// returned; a bar with no rows yields an empty slice and a nil error.
func (d *DuckDBDataSource) SnapshotAt(timestamp time.Time) ([]types.OptionQuote, error) {
	query, args, err := d.sq.
		Select("strike", "expiration_date", "claim_type", "best_ask_price").
		From("option_chain").
		Where(squirrel.Eq{"time": timestamp}).
		OrderBy("expiration_date ASC", "strike ASC", "claim_type ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	stmt, err := d.db.Prepare(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare snapshot query", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query option chain", err)
	}
	defer rows.Close()

	var quotes []types.OptionQuote

	for rows.Next() {
		var (
			strike     float64
			expiration time.Time
			claim      string
			bestAsk    sql.NullFloat64
		)

		if err := rows.Scan(&strike, &expiration, &claim, &bestAsk); err != nil {
			return nil, fmt.Errorf("failed to scan chain row: %w", err)
		}

		ask := optional.None[float64]()
		if bestAsk.Valid {
			ask = optional.Some(bestAsk.Float64)
		}

		quotes = append(quotes, types.OptionQuote{
			Strike:     strike,
			Expiration: expiration,
			Claim:      types.ClaimType(claim),
			BestAsk:    ask,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chain rows: %w", err)
	}

	return quotes, nil
}

// ExecuteSQL implements ChainDataSource.
func (d *DuckDBDataSource) ExecuteSQL(query string, params ...interface{}) ([]SQLResult, error) {
	d.logger.Debug("Executing SQL query", zap.String("query", query))

	stmt, err := d.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var result []SQLResult

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))

		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]interface{})
		for i, col := range columns {
			rowMap[col] = values[i]
		}

		result = append(result, SQLResult{Values: rowMap})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// Close implements ChainDataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

// buildTimeRangeConditions builds optional time-range WHERE clauses with
// dollar placeholders.
func buildTimeRangeConditions(start optional.Option[time.Time], end optional.Option[time.Time]) ([]string, []interface{}) {
	var conditions []string

	var params []interface{}

	paramCount := 0

	if start.IsSome() {
		paramCount++
		conditions = append(conditions, fmt.Sprintf("time >= $%d", paramCount))
		params = append(params, start.Unwrap())
	}

	if end.IsSome() {
		paramCount++
		conditions = append(conditions, fmt.Sprintf("time <= $%d", paramCount))
		params = append(params, end.Unwrap())
	}

	return conditions, params
}
