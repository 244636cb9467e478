// Package history keeps the session's evaluation log: what was evaluated,
// what came back, and how long the target made us wait. The default store is
// an in-memory sqlite database scoped to the session; a mysql DSN swaps in a
// central collector without touching the call sites.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Record is one completed evaluation, successful or not.
type Record struct {
	ID         int64
	Expression string
	ResultKind string
	Result     string
	Category   string // error category, empty on success
	Duration   time.Duration
	CreatedAt  time.Time
}

type Store struct {
	db     *sql.DB
	driver string
}

// Open connects the store and creates its schema. Only the two registered
// drivers are accepted.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("history store ready",
		slog.String("driver", driver))
	return s, nil
}

func (s *Store) createSchema() error {
	ddl := `CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		expression TEXT NOT NULL,
		result_kind TEXT NOT NULL,
		result TEXT NOT NULL,
		category TEXT NOT NULL,
		duration_us INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`
	if s.driver == DriverMySQL {
		ddl = `CREATE TABLE IF NOT EXISTS evaluations (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			expression TEXT NOT NULL,
			result_kind VARCHAR(128) NOT NULL,
			result TEXT NOT NULL,
			category VARCHAR(64) NOT NULL,
			duration_us BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`
	}

	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("creating history schema: %w", err)
	}
	return nil
}

// Append records one evaluation.
func (s *Store) Append(ctx context.Context, rec Record) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations
			(expression, result_kind, result, category, duration_us, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Expression, rec.ResultKind, rec.Result, rec.Category,
		rec.Duration.Microseconds(), createdAt)
	if err != nil {
		return fmt.Errorf("recording evaluation: %w", err)
	}
	return nil
}

// Recent returns the latest evaluations, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expression, result_kind, result, category, duration_us, created_at
		 FROM evaluations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var durationUS int64
		if err := rows.Scan(&rec.ID, &rec.Expression, &rec.ResultKind,
			&rec.Result, &rec.Category, &durationUS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		rec.Duration = time.Duration(durationUS) * time.Microsecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
