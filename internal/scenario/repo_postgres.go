package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps scenario history in the scenario_history table, one row per
// test number. Counts and served orders are stored as JSONB.
type PostgresStore struct{ DB *pgxpool.Pool }

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	counts, err := json.Marshal(rec.BaristaCounts)
	if err != nil {
		return err
	}
	served, err := json.Marshal(rec.Orders)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO scenario_history(test_number, run_id, name, definition_version, total_orders, ran_at,
		                             avg_wait_minutes, max_wait_minutes, sla_violations, urgent_dispatches,
		                             barista_counts, orders)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (test_number) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			name = EXCLUDED.name,
			definition_version = EXCLUDED.definition_version,
			total_orders = EXCLUDED.total_orders,
			ran_at = EXCLUDED.ran_at,
			avg_wait_minutes = EXCLUDED.avg_wait_minutes,
			max_wait_minutes = EXCLUDED.max_wait_minutes,
			sla_violations = EXCLUDED.sla_violations,
			urgent_dispatches = EXCLUDED.urgent_dispatches,
			barista_counts = EXCLUDED.barista_counts,
			orders = EXCLUDED.orders
	`, rec.TestNumber, rec.RunID, rec.Name, rec.DefinitionVersion, rec.TotalOrders, rec.RanAt,
		rec.AvgWaitMinutes, rec.MaxWaitMinutes, rec.SLAViolations, rec.UrgentDispatches,
		counts, served)
	if err != nil {
		return fmt.Errorf("save scenario %d: %w", rec.TestNumber, err)
	}
	return nil
}

const selectRecord = `
	SELECT test_number, run_id, name, definition_version, total_orders, ran_at,
	       avg_wait_minutes, max_wait_minutes, sla_violations, urgent_dispatches,
	       barista_counts, orders
	FROM scenario_history`

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.Query(ctx, selectRecord+` ORDER BY test_number`)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, testNumber int) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, selectRecord+` WHERE test_number = $1`, testNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %d", ErrNoRecord, testNumber)
	}
	return rec, err
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec            Record
		counts, served []byte
	)
	err := row.Scan(&rec.TestNumber, &rec.RunID, &rec.Name, &rec.DefinitionVersion, &rec.TotalOrders, &rec.RanAt,
		&rec.AvgWaitMinutes, &rec.MaxWaitMinutes, &rec.SLAViolations, &rec.UrgentDispatches,
		&counts, &served)
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(counts, &rec.BaristaCounts); err != nil {
		return Record{}, fmt.Errorf("decode barista counts of scenario %d: %w", rec.TestNumber, err)
	}
	if err := json.Unmarshal(served, &rec.Orders); err != nil {
		return Record{}, fmt.Errorf("decode orders of scenario %d: %w", rec.TestNumber, err)
	}
	rec.RanAt = rec.RanAt.UTC()
	return rec, nil
}
