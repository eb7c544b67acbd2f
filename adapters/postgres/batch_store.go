package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"socialcost/domain/core"
	"socialcost/domain/montecarlo"
	"socialcost/domain/scc"
	"socialcost/internal/errors"
	"socialcost/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// BatchStoreImpl implements ports.BatchStore for PostgreSQL
type BatchStoreImpl struct {
	db *sqlx.DB
}

// NewBatchStore creates a new PostgreSQL batch store
func NewBatchStore(db *sqlx.DB) ports.BatchStore {
	return &BatchStoreImpl{db: db}
}

// Open connects to the database and returns a batch store over it.
func Open(url string) (ports.BatchStore, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabase, err)
	}
	return NewBatchStore(db), nil
}

// SaveBatch persists a batch header and all of its trial rows in one
// transaction.
func (s *BatchStoreImpl) SaveBatch(ctx context.Context, batch *montecarlo.Batch) error {
	discounts, err := json.Marshal(batch.Discounts)
	if err != nil {
		return errors.Wrap(err, "marshaling discounts")
	}
	paramNames, err := json.Marshal(batch.ParamNames)
	if err != nil {
		return errors.Wrap(err, "marshaling param names")
	}
	summaries, err := json.Marshal(batch.Summaries)
	if err != nil {
		return errors.Wrap(err, "marshaling summaries")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithCode(errors.CodeDatabase, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scc_batches (id, scenario, pulse_year, seed, domestic, requested, succeeded, dropped, discounts, param_names, summaries, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, batch.ID, string(batch.Scenario), batch.PulseYear, batch.Seed, batch.Domestic,
		batch.Requested, batch.Succeeded, batch.Dropped, discounts, paramNames, summaries, time.Now().UTC())
	if err != nil {
		return errors.WithCode(errors.CodeDatabase, err)
	}

	for _, t := range batch.Trials {
		overrides, err := json.Marshal(t.Overrides)
		if err != nil {
			return errors.Wrapf(err, "marshaling overrides for trial %d", t.Index)
		}
		estimates, err := json.Marshal(t.SCC)
		if err != nil {
			return errors.Wrapf(err, "marshaling estimates for trial %d", t.Index)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO scc_trials (batch_id, trial_index, overrides, scc, failed, reason)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, batch.ID, t.Index, overrides, estimates, t.Failed, t.Reason)
		if err != nil {
			return errors.WithCode(errors.CodeDatabase, err)
		}
	}
	return tx.Commit()
}

// GetBatch loads a batch and its trials in trial order.
func (s *BatchStoreImpl) GetBatch(ctx context.Context, id core.BatchID) (*montecarlo.Batch, error) {
	var row struct {
		ID         string    `db:"id"`
		Scenario   string    `db:"scenario"`
		PulseYear  int       `db:"pulse_year"`
		Seed       int64     `db:"seed"`
		Domestic   bool      `db:"domestic"`
		Requested  int       `db:"requested"`
		Succeeded  int       `db:"succeeded"`
		Dropped    int       `db:"dropped"`
		Discounts  []byte    `db:"discounts"`
		ParamNames []byte    `db:"param_names"`
		Summaries  []byte    `db:"summaries"`
		CreatedAt  time.Time `db:"created_at"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT id, scenario, pulse_year, seed, domestic, requested, succeeded, dropped, discounts, param_names, summaries, created_at
		FROM scc_batches WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, core.ErrBatchNotFound
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabase, err)
	}

	batch := &montecarlo.Batch{
		ID:        core.BatchID(row.ID),
		Scenario:  scc.Scenario(row.Scenario),
		PulseYear: row.PulseYear,
		Seed:      row.Seed,
		Domestic:  row.Domestic,
		Requested: row.Requested,
		Succeeded: row.Succeeded,
		Dropped:   row.Dropped,
	}
	if err := json.Unmarshal(row.Discounts, &batch.Discounts); err != nil {
		return nil, errors.Wrap(err, "unmarshaling discounts")
	}
	if err := json.Unmarshal(row.ParamNames, &batch.ParamNames); err != nil {
		return nil, errors.Wrap(err, "unmarshaling param names")
	}
	if err := json.Unmarshal(row.Summaries, &batch.Summaries); err != nil {
		return nil, errors.Wrap(err, "unmarshaling summaries")
	}

	var trialRows []struct {
		TrialIndex int            `db:"trial_index"`
		Overrides  []byte         `db:"overrides"`
		SCC        []byte         `db:"scc"`
		Failed     bool           `db:"failed"`
		Reason     sql.NullString `db:"reason"`
	}
	err = s.db.SelectContext(ctx, &trialRows, `
		SELECT trial_index, overrides, scc, failed, reason
		FROM scc_trials WHERE batch_id = $1 ORDER BY trial_index
	`, id)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabase, err)
	}
	for _, tr := range trialRows {
		t := montecarlo.Trial{Index: tr.TrialIndex, Failed: tr.Failed, Reason: tr.Reason.String}
		if err := json.Unmarshal(tr.Overrides, &t.Overrides); err != nil {
			return nil, errors.Wrapf(err, "unmarshaling overrides for trial %d", tr.TrialIndex)
		}
		if err := json.Unmarshal(tr.SCC, &t.SCC); err != nil {
			return nil, errors.Wrapf(err, "unmarshaling estimates for trial %d", tr.TrialIndex)
		}
		batch.Trials = append(batch.Trials, t)
	}
	return batch, nil
}

// ListBatches returns the most recent batch headers.
func (s *BatchStoreImpl) ListBatches(ctx context.Context, limit int) ([]ports.BatchHeader, error) {
	if limit <= 0 {
		limit = 50
	}
	var headers []ports.BatchHeader
	err := s.db.SelectContext(ctx, &headers, `
		SELECT id, scenario, pulse_year, seed, requested, succeeded, dropped, created_at
		FROM scc_batches ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabase, err)
	}
	return headers, nil
}
