package ports

import (
	"context"
	"time"

	"socialcost/domain/core"
	"socialcost/domain/montecarlo"
)

// BatchHeader is the persisted metadata for one Monte Carlo batch.
type BatchHeader struct {
	ID        core.BatchID `db:"id"`
	Scenario  string       `db:"scenario"`
	PulseYear int          `db:"pulse_year"`
	Seed      int64        `db:"seed"`
	Requested int          `db:"requested"`
	Succeeded int          `db:"succeeded"`
	Dropped   int          `db:"dropped"`
	CreatedAt time.Time    `db:"created_at"`
}

// BatchStore persists completed Monte Carlo batches. Persistence is
// optional; the orchestrator always returns batches in memory.
type BatchStore interface {
	SaveBatch(ctx context.Context, batch *montecarlo.Batch) error
	GetBatch(ctx context.Context, id core.BatchID) (*montecarlo.Batch, error)
	ListBatches(ctx context.Context, limit int) ([]BatchHeader, error)
}
