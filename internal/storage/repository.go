package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"videojobs/internal/core"
)

// SQLiteRepository stores the job log in a single SQLite file.
type SQLiteRepository struct {
	db   *sqlx.DB
	path string
}

type jobRow struct {
	Position        int64          `db:"position"`
	JobDate         sql.NullString `db:"job_date"`
	VideoType       string         `db:"video_type"`
	DurationMinutes int            `db:"duration_minutes"`
	Price           int64          `db:"price"`
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// A missing file is normal first start: migrations create the empty schema.
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Path returns the database file location.
func (r *SQLiteRepository) Path() string {
	return r.path
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements sheets.LogStore. Unparsable dates become the missing marker.
func (r *SQLiteRepository) Load(ctx context.Context) (core.JobLog, error) {
	var rows []jobRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT position, job_date, video_type, duration_minutes, price FROM jobs ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("select jobs: %w", err)
	}

	log := make(core.JobLog, 0, len(rows))
	undated := 0
	for _, row := range rows {
		var date core.Date
		if row.JobDate.Valid {
			if d, err := core.ParseDate(row.JobDate.String); err == nil {
				date = d
			}
		}
		if date.IsEmpty() {
			undated++
		}
		log = append(log, core.JobRecord{
			Date:            date,
			VideoType:       row.VideoType,
			DurationMinutes: row.DurationMinutes,
			Price:           core.Money{Pesos: row.Price},
		})
	}

	if undated > 0 {
		slog.WarnContext(ctx, "Jobs with unparsable dates loaded as missing",
			"count", undated,
			"path", r.path)
	}
	slog.DebugContext(ctx, "Job log loaded from SQLite", "records", len(log))

	return log, nil
}

// Save implements sheets.LogStore. The complete log replaces the stored one.
func (r *SQLiteRepository) Save(ctx context.Context, log core.JobLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM jobs`); err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO jobs (position, job_date, video_type, duration_minutes, price) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range log {
		date := sql.NullString{String: rec.Date.String(), Valid: !rec.Date.IsEmpty()}
		if _, err = stmt.ExecContext(ctx, i+1, date, rec.VideoType, rec.DurationMinutes, rec.Price.Pesos); err != nil {
			return fmt.Errorf("insert job %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	slog.InfoContext(ctx, "Job log saved to SQLite", "records", len(log), "path", r.path)
	return nil
}
