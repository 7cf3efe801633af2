package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the served-order ledger.
type Repo struct{ DB *pgxpool.Pool }

// RecordServed stores one completed order. Replays of the same order are no-ops
// (inserted=false), so at-least-once delivery from Kafka is safe.
func (r *Repo) RecordServed(ctx context.Context, p OrderCompletedPayload) (inserted bool, err error) {
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO served_orders(order_id, customer, drinks, loyal, barista_id,
		                          arrived_at, started_at, completed_at, wait_seconds,
		                          price_rupees, priority_score, priority_reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (order_id) DO NOTHING
	`, p.OrderID, p.Customer, strings.Join(p.Drinks, ","), p.Loyal, p.BaristaID,
		p.ArrivedAt, p.StartedAt, p.CompletedAt, p.WaitSeconds,
		p.PriceRupees, p.Priority.Score, p.Priority.Reason)
	if err != nil {
		return false, fmt.Errorf("insert served order %s: %w", p.OrderID, err)
	}
	return ct.RowsAffected() == 1, nil
}
