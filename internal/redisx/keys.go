package redisx

import "time"

const (
	// Idempotent submit: idem:order:submit:{idempotency_key} -> order_id
	KeyIdemOrderSubmit = "idem:order:submit:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
