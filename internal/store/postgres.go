package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/fmuoria/cv-auditor/internal/models"
)

// PostgresStore appends records to a PostgreSQL table
type PostgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgresStore connects to dsn and creates the table when it is missing
func NewPostgresStore(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s, err := NewPostgresStoreFromDB(ctx, db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an existing connection pool
func NewPostgresStoreFromDB(ctx context.Context, db *sql.DB, table string) (*PostgresStore, error) {
	s := &PostgresStore{db: db, table: pq.QuoteIdentifier(table)}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		seq           BIGSERIAL PRIMARY KEY,
		name          TEXT        NOT NULL,
		student_id    TEXT        NOT NULL,
		score         INTEGER     NOT NULL,
		audit_details TEXT        NOT NULL,
		submitted_at  TIMESTAMPTZ NOT NULL
	)`, s.table)

	if _, err := db.ExecContext(ctx, query); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return s, nil
}

// Append inserts one row
func (s *PostgresStore) Append(ctx context.Context, record models.Record) error {
	query := fmt.Sprintf(`INSERT INTO %s (name, student_id, score, audit_details, submitted_at)
		VALUES ($1, $2, $3, $4, $5)`, s.table)

	if _, err := s.db.ExecContext(ctx, query,
		record.Name, record.ID, record.Score, record.AuditDetails, record.Timestamp); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// ReadAll returns every row in insertion order
func (s *PostgresStore) ReadAll(ctx context.Context) ([]models.Record, error) {
	query := fmt.Sprintf(`SELECT name, student_id, score, audit_details, submitted_at
		FROM %s ORDER BY seq`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.Name, &r.ID, &r.Score, &r.AuditDetails, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return records, nil
}

// Reset truncates the table
func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE %s RESTART IDENTITY", s.table)); err != nil {
		return fmt.Errorf("failed to truncate records: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
