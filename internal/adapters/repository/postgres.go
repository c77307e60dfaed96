package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/internal/domain/tariff"
	"github.com/okian/tariffa/pkg/metrics"
)

const (
	defaultTable        = "rate_cards"
	defaultQueryTimeout = 3 * time.Second
)

// OpenPostgres opens a pooled connection to dsn.
func OpenPostgres(dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns / 2)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// PostgresRateStore reads rate cards from a postgres table.
type PostgresRateStore struct {
	db      *sql.DB
	table   string
	timeout time.Duration
}

// NewPostgresRateStore creates a store over db.
func NewPostgresRateStore(db *sql.DB, opts ...PostgresOption) *PostgresRateStore {
	s := &PostgresRateStore{db: db, table: defaultTable, timeout: defaultQueryTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements RateStore.
func (s *PostgresRateStore) Name() string { return "postgres" }

// Migrate creates the rate card table when missing.
func (s *PostgresRateStore) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id              TEXT PRIMARY KEY,
	client_id       TEXT NOT NULL,
	kind            TEXT NOT NULL,
	unit_of_measure TEXT NOT NULL DEFAULT '',
	client_rate     NUMERIC(12,4) NOT NULL,
	supplier_rate   NUMERIC(12,4) NOT NULL,
	location_id     TEXT,
	supplier_id     TEXT,
	valid_from      DATE NOT NULL,
	valid_to        DATE
)`, s.table))
	if err != nil {
		return fmt.Errorf("migrate %s: %w", s.table, err)
	}
	return nil
}

// Candidates selects rows for the client and kind that are valid on the
// reference date and scoped compatibly with the request.
func (s *PostgresRateStore) Candidates(ctx context.Context, q tariff.Query) ([]model.RateCardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT id, client_id, kind, unit_of_measure, client_rate, supplier_rate,
	COALESCE(location_id, ''), COALESCE(supplier_id, ''), valid_from, valid_to
FROM %s
WHERE client_id = $1 AND kind = $2
	AND valid_from <= $3 AND (valid_to IS NULL OR valid_to >= $3)
	AND (COALESCE(location_id, '') = '' OR location_id = $4)
	AND (COALESCE(supplier_id, '') = '' OR supplier_id = $5)`, s.table)

	rows, err := s.db.QueryContext(ctx, query, q.ClientID, string(q.Kind), model.DateOf(q.On), q.LocationID, q.SupplierID)
	if err != nil {
		metrics.RecordRateLookup(s.Name(), "error")
		return nil, fmt.Errorf("query rate cards: %w", err)
	}
	defer rows.Close()

	var out []model.RateCardEntry
	for rows.Next() {
		var (
			e     model.RateCardEntry
			kind  string
			until sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.ClientID, &kind, &e.UnitOfMeasure, &e.ClientRate, &e.SupplierRate,
			&e.LocationID, &e.SupplierID, &e.ValidFrom, &until); err != nil {
			metrics.RecordRateLookup(s.Name(), "error")
			return nil, fmt.Errorf("scan rate card: %w", err)
		}
		e.Kind = model.ServiceKind(kind)
		e.ValidFrom = model.DateOf(e.ValidFrom)
		if until.Valid {
			to := model.DateOf(until.Time)
			e.ValidTo = &to
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordRateLookup(s.Name(), "error")
		return nil, fmt.Errorf("iterate rate cards: %w", err)
	}
	metrics.RecordRateLookup(s.Name(), lookupOutcome(len(out)))
	return out, nil
}

// Put upserts entries in one transaction.
func (s *PostgresRateStore) Put(ctx context.Context, entries ...model.RateCardEntry) error {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (id, client_id, kind, unit_of_measure, client_rate, supplier_rate, location_id, supplier_id, valid_from, valid_to)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10)
ON CONFLICT (id) DO UPDATE SET client_id = EXCLUDED.client_id, kind = EXCLUDED.kind,
	unit_of_measure = EXCLUDED.unit_of_measure, client_rate = EXCLUDED.client_rate,
	supplier_rate = EXCLUDED.supplier_rate, location_id = EXCLUDED.location_id,
	supplier_id = EXCLUDED.supplier_id, valid_from = EXCLUDED.valid_from, valid_to = EXCLUDED.valid_to`, s.table)

	for _, e := range entries {
		var until sql.NullTime
		if e.ValidTo != nil {
			until = sql.NullTime{Time: model.DateOf(*e.ValidTo), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, stmt, e.ID, e.ClientID, string(e.Kind), e.UnitOfMeasure,
			e.ClientRate.String(), e.SupplierRate.String(), e.LocationID, e.SupplierID,
			model.DateOf(e.ValidFrom), until); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert rate card %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
