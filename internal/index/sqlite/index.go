// Package sqlite implements a local, rebuildable index over the ETL
// orchestrator's Completed-set partition listing. It is not a system of
// record: every row is derived from `leg/v2/data/` blob keys and can be
// thrown away and rebuilt from a fresh List call at any time.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jorgecardleitao/private-jets-go/internal/position"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

// Index is a SQLite-backed mirror of the Completed set, used by the status
// CLI to answer "what's left" queries without re-listing the blob store on
// every invocation.
type Index struct {
	db     *sql.DB
	logger *logger.Logger
}

// Open opens (creating if needed) the index database at dbPath.
func Open(dbPath string, log *logger.Logger) (*Index, error) {
	idxLogger := log.Named("index-sqlite")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("index: opening database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("index: setting journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("index: setting busy timeout: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Index{db: db, logger: idxLogger}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS completed (
	icao_number TEXT NOT NULL,
	month       TEXT NOT NULL,
	indexed_at  TEXT NOT NULL,
	PRIMARY KEY (icao_number, month)
)`)
	if err != nil {
		return fmt.Errorf("index: creating schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Pair identifies one completed (icao, month) slot, the same shape as
// jetset.Key but kept local to avoid this package importing jetset.
type Pair struct {
	ICAO  string
	Month time.Time
}

// Rebuild replaces the index contents with the given Completed-set pairs,
// mirroring a fresh `list(leg/v2/data/)` call against the blob store.
func (idx *Index) Rebuild(ctx context.Context, pairs []Pair) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: beginning rebuild transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM completed"); err != nil {
		return fmt.Errorf("index: clearing completed table: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO completed (icao_number, month, indexed_at) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("index: preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pairs {
		if _, err := stmt.ExecContext(ctx, p.ICAO, position.MonthKey(p.Month), now); err != nil {
			return fmt.Errorf("index: inserting %s/%s: %w", p.ICAO, position.MonthKey(p.Month), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: committing rebuild: %w", err)
	}
	idx.logger.Info("rebuilt completed index", logger.Int("rows", len(pairs)))
	return nil
}

// CountByMonth returns the number of completed (icao, month) pairs for each
// indexed month, a quick way to answer "how much of year Y is done" without
// touching the blob store.
func (idx *Index) CountByMonth(ctx context.Context) (map[string]int, error) {
	rows, err := idx.db.QueryContext(ctx, "SELECT month, COUNT(*) FROM completed GROUP BY month ORDER BY month")
	if err != nil {
		return nil, fmt.Errorf("index: querying month counts: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var month string
		var count int
		if err := rows.Scan(&month, &count); err != nil {
			return nil, fmt.Errorf("index: scanning month count: %w", err)
		}
		out[month] = count
	}
	return out, rows.Err()
}

// Has reports whether (icao, month) is present in the index.
func (idx *Index) Has(ctx context.Context, icao string, month time.Time) (bool, error) {
	var n int
	err := idx.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM completed WHERE icao_number = ? AND month = ?",
		icao, position.MonthKey(month),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("index: querying %s/%s: %w", icao, position.MonthKey(month), err)
	}
	return n > 0, nil
}

// MonthsFor returns every month indexed as completed for the given icao,
// ascending.
func (idx *Index) MonthsFor(ctx context.Context, icao string) ([]string, error) {
	rows, err := idx.db.QueryContext(ctx,
		"SELECT month FROM completed WHERE icao_number = ? ORDER BY month", icao)
	if err != nil {
		return nil, fmt.Errorf("index: querying months for %s: %w", icao, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var month string
		if err := rows.Scan(&month); err != nil {
			return nil, fmt.Errorf("index: scanning month: %w", err)
		}
		out = append(out, month)
	}
	return out, rows.Err()
}

// dbPathForYearRange builds a deterministic index filename for a given
// first/last year pair, so repeated status invocations over the same range
// reuse the same local database rather than rebuilding from scratch.
func dbPathForYearRange(dir string, firstYear, lastYear int) string {
	return strings.TrimSuffix(dir, "/") + fmt.Sprintf("/status-%d-%d.db", firstYear, lastYear)
}

// DefaultPath returns the conventional index database path under dir for
// the given year range.
func DefaultPath(dir string, firstYear, lastYear int) string {
	return dbPathForYearRange(dir, firstYear, lastYear)
}
