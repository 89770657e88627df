package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/disaster-adpy/internal/evaluation"
	"github.com/mr1hm/disaster-adpy/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS disaster_types (
			name TEXT PRIMARY KEY,
			position INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS adpy_series (
			type TEXT NOT NULL,
			year INTEGER NOT NULL,
			adpy REAL NOT NULL,
			adpy_normalized REAL NOT NULL,
			events INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			PRIMARY KEY (type, year),
			FOREIGN KEY (type) REFERENCES disaster_types(name)
		);

		CREATE TABLE IF NOT EXISTS adpy_summary (
			year INTEGER PRIMARY KEY,
			adpy_normalized REAL NOT NULL,
			events INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS skipped_contributions (
			type TEXT NOT NULL,
			disaster_id TEXT NOT NULL,
			country TEXT NOT NULL,
			year INTEGER NOT NULL,
			reason TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_adpy_series_type ON adpy_series(type);
		CREATE INDEX IF NOT EXISTS idx_skipped_type ON skipped_contributions(type);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// SaveResult replaces the stored result with res in a single transaction.
func (s *SQLiteDB) SaveResult(ctx context.Context, res *evaluation.Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"adpy_series", "adpy_summary", "skipped_contributions", "disaster_types"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}

	seriesStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO adpy_series (type, year, adpy, adpy_normalized, events, deaths)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing series insert: %w", err)
	}
	defer seriesStmt.Close()

	for pos, t := range res.Types {
		tm, ok := res.ByType[t]
		if !ok {
			return fmt.Errorf("result has no metrics for %s", t)
		}
		if _, err = tx.ExecContext(ctx, "INSERT INTO disaster_types (name, position) VALUES (?, ?)", t, pos); err != nil {
			return fmt.Errorf("error inserting type %s: %w", t, err)
		}
		for i := 0; i < models.SeriesLen; i++ {
			_, err = seriesStmt.ExecContext(ctx, t, models.FirstYear+i, tm.ADPY[i], tm.Normalized[i], int64(tm.Events[i]), int64(tm.Deaths[i]))
			if err != nil {
				return fmt.Errorf("error inserting %s %d: %w", t, models.FirstYear+i, err)
			}
		}
	}

	for i := 0; i < models.SeriesLen; i++ {
		_, err = tx.ExecContext(ctx, "INSERT INTO adpy_summary (year, adpy_normalized, events) VALUES (?, ?, ?)",
			models.FirstYear+i, res.SummaryADPY[i], int64(res.SummaryEvents[i]))
		if err != nil {
			return fmt.Errorf("error inserting summary %d: %w", models.FirstYear+i, err)
		}
	}

	for _, sk := range res.Skipped {
		reason := ""
		if sk.Err != nil {
			reason = sk.Err.Error()
		}
		_, err = tx.ExecContext(ctx, "INSERT INTO skipped_contributions (type, disaster_id, country, year, reason) VALUES (?, ?, ?, ?, ?)",
			sk.Type, sk.ID, sk.Country, sk.Year, reason)
		if err != nil {
			return fmt.Errorf("error inserting skipped %s: %w", sk.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing result: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListTypes(ctx context.Context) ([]TypeSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name,
			COALESCE(SUM(a.events), 0),
			COALESCE(SUM(a.deaths), 0),
			COALESCE((SELECT p.year FROM adpy_series p WHERE p.type = t.name AND p.adpy > 0 ORDER BY p.adpy DESC, p.year ASC LIMIT 1), 0),
			COALESCE(MAX(a.adpy), 0)
		FROM disaster_types t
		LEFT JOIN adpy_series a ON a.type = t.name
		GROUP BY t.name
		ORDER BY t.position`)
	if err != nil {
		return nil, fmt.Errorf("error listing types: %w", err)
	}
	defer rows.Close()

	var out []TypeSummary
	for rows.Next() {
		var ts TypeSummary
		if err := rows.Scan(&ts.Type, &ts.Events, &ts.Deaths, &ts.PeakYear, &ts.PeakADPY); err != nil {
			return nil, fmt.Errorf("error scanning type: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// GetTypeMetrics returns nil without error when the type is unknown.
func (s *SQLiteDB) GetTypeMetrics(ctx context.Context, disasterType string) (*evaluation.TypeMetrics, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM disaster_types WHERE name = ?", disasterType).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error looking up %s: %w", disasterType, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT year, adpy, adpy_normalized, events, deaths
		FROM adpy_series WHERE type = ? ORDER BY year`, disasterType)
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", disasterType, err)
	}
	defer rows.Close()

	tm := &evaluation.TypeMetrics{Type: disasterType}
	for rows.Next() {
		var (
			year           int
			adpy, norm     float64
			events, deaths int64
		)
		if err := rows.Scan(&year, &adpy, &norm, &events, &deaths); err != nil {
			return nil, fmt.Errorf("error scanning %s: %w", disasterType, err)
		}
		i, ok := models.YearIndex(year)
		if !ok {
			continue
		}
		tm.ADPY[i] = adpy
		tm.Normalized[i] = norm
		tm.Events[i] = float64(events)
		tm.Deaths[i] = float64(deaths)
	}
	return tm, rows.Err()
}

func (s *SQLiteDB) GetSummary(ctx context.Context) (*Summary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT year, adpy_normalized, events FROM adpy_summary ORDER BY year")
	if err != nil {
		return nil, fmt.Errorf("error querying summary: %w", err)
	}
	defer rows.Close()

	sum := &Summary{}
	for rows.Next() {
		var (
			year   int
			adpy   float64
			events int64
		)
		if err := rows.Scan(&year, &adpy, &events); err != nil {
			return nil, fmt.Errorf("error scanning summary: %w", err)
		}
		if i, ok := models.YearIndex(year); ok {
			sum.ADPY[i] = adpy
			sum.Events[i] = float64(events)
		}
	}
	return sum, rows.Err()
}

func (s *SQLiteDB) ListSkipped(ctx context.Context, limit int) ([]evaluation.Skipped, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, disaster_id, country, year, reason
		FROM skipped_contributions ORDER BY rowid LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying skipped: %w", err)
	}
	defer rows.Close()

	var out []evaluation.Skipped
	for rows.Next() {
		var (
			sk     evaluation.Skipped
			reason string
		)
		if err := rows.Scan(&sk.Type, &sk.ID, &sk.Country, &sk.Year, &reason); err != nil {
			return nil, fmt.Errorf("error scanning skipped: %w", err)
		}
		sk.Err = errors.New(reason)
		out = append(out, sk)
	}
	return out, rows.Err()
}
