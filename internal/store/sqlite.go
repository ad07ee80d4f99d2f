package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

// SQLite stores holidays in a local SQLite database
type SQLite struct {
	db      *sql.DB
	path    string
	country string
	logger  *zap.Logger
}

// NewSQLite opens (creating if needed) the database at dbPath. Reads are
// limited to country.
func NewSQLite(dbPath, country string, logger *zap.Logger) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLite{
		db:      db,
		path:    dbPath,
		country: countryOrDefault(country),
		logger:  logger,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return s, nil
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS holidays (
		holiday_date TEXT NOT NULL,
		country_code TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		holiday_type TEXT NOT NULL DEFAULT 'public',
		is_working_day INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		PRIMARY KEY (holiday_date, country_code)
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_country ON holidays(country_code);
	`

	_, err := s.db.Exec(schema)
	return err
}

// FetchAll returns every stored holiday for the store's country
func (s *SQLite) FetchAll(ctx context.Context) ([]calendar.Holiday, error) {
	return s.query(ctx, `
	SELECT holiday_date, name, holiday_type, is_working_day, description, country_code
	FROM holidays WHERE country_code = ? ORDER BY holiday_date`, s.country)
}

// FetchRange returns the stored holidays between from and to inclusive
func (s *SQLite) FetchRange(ctx context.Context, from, to time.Time) ([]calendar.Holiday, error) {
	start, end := rangeKeys(from, to)
	return s.query(ctx, `
	SELECT holiday_date, name, holiday_type, is_working_day, description, country_code
	FROM holidays WHERE country_code = ? AND holiday_date BETWEEN ? AND ?
	ORDER BY holiday_date`, s.country, start, end)
}

// Upsert writes records in one transaction and returns how many were written
func (s *SQLite) Upsert(ctx context.Context, records []calendar.Holiday) (int, error) {
	records = prepare(records, s.country)
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO holidays (holiday_date, country_code, name, holiday_type, is_working_day, description, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(holiday_date, country_code) DO UPDATE SET
		name = excluded.name,
		holiday_type = excluded.holiday_type,
		is_working_day = excluded.is_working_day,
		description = excluded.description,
		updated_at = excluded.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, h := range records {
		if _, err := stmt.ExecContext(ctx,
			dateutil.Format(h.Date), h.CountryCode, h.Name, h.Type,
			h.IsWorkingDay, h.Description, now); err != nil {
			return 0, fmt.Errorf("failed to upsert holiday %s: %w", dateutil.Format(h.Date), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit holidays: %w", err)
	}

	s.logger.Info("Holidays stored",
		zap.String("path", s.path),
		zap.Int("count", len(records)))

	return len(records), nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) query(ctx context.Context, query string, args ...any) ([]calendar.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var (
			date string
			h    calendar.Holiday
		)
		if err := rows.Scan(&date, &h.Name, &h.Type, &h.IsWorkingDay, &h.Description, &h.CountryCode); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}

		h.Date, err = dateutil.ParseDate(date)
		if err != nil {
			s.logger.Warn("Skipping stored holiday with bad date",
				zap.String("date", date),
				zap.Error(err))
			continue
		}
		holidays = append(holidays, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read holidays: %w", err)
	}

	return holidays, nil
}
