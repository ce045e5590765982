package backtest

import (
	"database/sql"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
)

const (
	resultsDBFile   = "results.duckdb"
	statsFile       = "stats.yaml"
	schemaStateFile = "config_schema.json"
)

// ResultWriter persists a finished run: the equity curve and rebalance
// decisions into a DuckDB database, the summary into a YAML file, and the
// config schema alongside for tooling.
type ResultWriter struct {
	folder string
	logger *logger.Logger
}

// NewResultWriter creates a writer rooted at the results folder, creating it
// when absent.
func NewResultWriter(folder string, log *logger.Logger) (*ResultWriter, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create results folder", err)
	}

	return &ResultWriter{folder: folder, logger: log}, nil
}

// Write persists the full result set.
func (w *ResultWriter) Write(result *Result, config Config) error {
	if err := w.writeDatabase(result); err != nil {
		return err
	}

	statsPath := filepath.Join(w.folder, statsFile)
	if err := types.WriteBacktestStats(statsPath, result.Stats); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write stats", err)
	}

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to generate config schema", err)
	}

	schemaPath := filepath.Join(w.folder, schemaStateFile)
	if err := os.WriteFile(schemaPath, []byte(schema), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write config schema", err)
	}

	w.logger.Info("results written",
		zap.String("folder", w.folder),
		zap.Int("equity_points", len(result.EquityCurve)),
		zap.Int("rebalances", len(result.Rebalances)),
	)

	return nil
}

func (w *ResultWriter) writeDatabase(result *Result) error {
	dbPath := filepath.Join(w.folder, resultsDBFile)

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to open results database", err)
	}
	defer db.Close()

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS equity_curve (
			time TIMESTAMP NOT NULL,
			equity DOUBLE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rebalances (
			time TIMESTAMP NOT NULL,
			ticker VARCHAR NOT NULL,
			score DOUBLE NOT NULL,
			weight DOUBLE NOT NULL,
			selected BOOLEAN NOT NULL
		)`,
	}

	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create results tables", err)
		}
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to begin results transaction", err)
	}
	defer tx.Rollback()

	for _, point := range result.EquityCurve {
		query, args, err := psql.
			Insert("equity_curve").
			Columns("time", "equity").
			Values(point.Time, point.Equity).
			ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to build equity insert", err)
		}

		if _, err := tx.Exec(query, args...); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to insert equity point", err)
		}
	}

	for _, snapshot := range result.Rebalances {
		for _, scored := range snapshot.Ranking {
			weight, selected := snapshot.Selected[scored.Ticker]

			query, args, err := psql.
				Insert("rebalances").
				Columns("time", "ticker", "score", "weight", "selected").
				Values(snapshot.Time, scored.Ticker, scored.Score, weight, selected).
				ToSql()
			if err != nil {
				return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to build rebalance insert", err)
			}

			if _, err := tx.Exec(query, args...); err != nil {
				return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to insert rebalance row", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to commit results", err)
	}

	return nil
}
