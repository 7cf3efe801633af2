package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS served_orders (
		order_id        TEXT PRIMARY KEY,
		customer        TEXT NOT NULL,
		drinks          TEXT NOT NULL,
		loyal           BOOLEAN NOT NULL,
		barista_id      INT NOT NULL,
		arrived_at      TIMESTAMPTZ NOT NULL,
		started_at      TIMESTAMPTZ NOT NULL,
		completed_at    TIMESTAMPTZ NOT NULL,
		wait_seconds    DOUBLE PRECISION NOT NULL,
		price_rupees    INT NOT NULL,
		priority_score  DOUBLE PRECISION NOT NULL,
		priority_reason TEXT NOT NULL,
		recorded_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS served_orders_completed_at ON served_orders (completed_at)`,
	`CREATE TABLE IF NOT EXISTS scenario_history (
		test_number        INT PRIMARY KEY,
		run_id             TEXT NOT NULL,
		name               TEXT NOT NULL,
		definition_version INT NOT NULL,
		total_orders       INT NOT NULL,
		ran_at             TIMESTAMPTZ NOT NULL,
		avg_wait_minutes   DOUBLE PRECISION NOT NULL,
		max_wait_minutes   DOUBLE PRECISION NOT NULL,
		sla_violations     INT NOT NULL,
		urgent_dispatches  INT NOT NULL,
		barista_counts     JSONB NOT NULL,
		orders             JSONB NOT NULL
	)`,
}

// EnsureSchema creates the tables this module writes to. Every statement is idempotent.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
