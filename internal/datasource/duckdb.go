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
	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBDataSource stores daily bars in DuckDB and serves the range queries the
// indicator engine and the backtest loop need.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBDataSource creates a DuckDB-backed data source. The path parameter
// specifies the DuckDB database file location; use ":memory:" for an ephemeral
// database.
func NewDuckDBDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource. It ingests a CSV or parquet file into the
// bars table, deduplicating on (ticker, time) and normalizing timestamps to
// dates.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reader = fmt.Sprintf("read_csv_auto('%s')", path)
	case ".parquet":
		reader = fmt.Sprintf("read_parquet('%s')", path)
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported data file extension: %s", filepath.Ext(path))
	}

	for _, stmt := range []string{`DROP TABLE IF EXISTS bars;`, `DROP TABLE IF EXISTS bars_staging;`} {
		if _, err := d.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to reset bars tables", err)
		}
	}

	if _, err := d.db.Exec(fmt.Sprintf(`CREATE TABLE bars_staging AS SELECT * FROM %s;`, reader)); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to stage price data", err)
	}

	// adj_close is optional in the source; it falls back to close when absent
	// or unparseable
	var adjCols int

	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM duckdb_columns() WHERE table_name = 'bars_staging' AND column_name = 'adj_close'`,
	).Scan(&adjCols)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to probe staged columns", err)
	}

	adjExpr := "close"
	if adjCols > 0 {
		adjExpr = "COALESCE(TRY_CAST(adj_close AS DOUBLE), close)"
	}

	query := fmt.Sprintf(`
		CREATE TABLE bars AS
		SELECT
			CAST(time AS TIMESTAMP) AS time,
			ticker,
			open, high, low, close,
			%s AS adj_close,
			volume
		FROM bars_staging
		QUALIFY ROW_NUMBER() OVER (PARTITION BY ticker, time ORDER BY time) = 1;
	`, adjExpr)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to ingest price data", err)
	}

	if _, err := d.db.Exec(`DROP TABLE bars_staging;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop staging table", err)
	}

	return nil
}

// GetHistory implements DataSource.
func (d *DuckDBDataSource) GetHistory(ticker string, until time.Time, n int) ([]types.PriceBar, error) {
	if n <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "history size must be positive, got %d", n)
	}

	// query the last n rows descending, then reverse into ascending order
	query := `
		SELECT time, ticker, open, high, low, close, adj_close, volume
		FROM bars
		WHERE ticker = $1 AND time <= $2
		ORDER BY time DESC
		LIMIT $3
	`

	rows, err := d.db.Query(query, ticker, until, n)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeHistoricalDataFailed, err, "failed to get history for %s", ticker)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}

// GetRange implements DataSource.
func (d *DuckDBDataSource) GetRange(ticker string, start time.Time, end time.Time) ([]types.PriceBar, error) {
	query, args, err := d.sq.
		Select("time", "ticker", "open", "high", "low", "close", "adj_close", "volume").
		From("bars").
		Where(squirrel.Eq{"ticker": ticker}).
		Where(squirrel.GtOrEq{"time": start}).
		Where(squirrel.LtOrEq{"time": end}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build range query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query range for %s", ticker)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetBar implements DataSource.
func (d *DuckDBDataSource) GetBar(ticker string, date time.Time) (optional.Option[types.PriceBar], error) {
	query := `
		SELECT time, ticker, open, high, low, close, adj_close, volume
		FROM bars
		WHERE ticker = $1 AND time = $2
	`

	rows, err := d.db.Query(query, ticker, date)
	if err != nil {
		return optional.None[types.PriceBar](), errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query bar for %s", ticker)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return optional.None[types.PriceBar](), err
	}

	if len(bars) == 0 {
		return optional.None[types.PriceBar](), nil
	}

	return optional.Some(bars[0]), nil
}

// Tickers implements DataSource.
func (d *DuckDBDataSource) Tickers() ([]string, error) {
	rows, err := d.db.Query(`SELECT DISTINCT ticker FROM bars ORDER BY ticker ASC`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query tickers", err)
	}
	defer rows.Close()

	var tickers []string

	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan ticker", err)
		}

		tickers = append(tickers, t)
	}

	return tickers, rows.Err()
}

// TradingDates implements DataSource.
func (d *DuckDBDataSource) TradingDates(start time.Time, end time.Time) ([]time.Time, error) {
	query := `
		SELECT DISTINCT time FROM bars
		WHERE time >= $1 AND time <= $2
		ORDER BY time ASC
	`

	rows, err := d.db.Query(query, start, end)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trading dates", err)
	}
	defer rows.Close()

	var dates []time.Time

	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trading date", err)
		}

		dates = append(dates, t)
	}

	return dates, rows.Err()
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	builder := d.sq.Select("COUNT(*)").From("bars")

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func scanBars(rows *sql.Rows) ([]types.PriceBar, error) {
	var bars []types.PriceBar

	for rows.Next() {
		var bar types.PriceBar

		err := rows.Scan(&bar.Time, &bar.Ticker, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.AdjClose, &bar.Volume)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		bars = append(bars, bar)
	}

	return bars, rows.Err()
}
