// Package store persists estimation records in Postgres. The pipeline and
// the chat surface both write to the same rows, so every mutation goes
// through the atomic read-modify-write primitive in Update.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/estimate"
)

var ErrNotFound = sql.ErrNoRows

type RecordRepo struct{ DB *sql.DB }

func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{DB: db} }

// Record is one stored estimation plus its bookkeeping columns. The full
// estimation payload lives in result_json; hot fields are mirrored into
// columns for querying.
type Record struct {
	ID            string
	CreatedAt     time.Time
	ChatID        int64
	ImageHash     string
	Estimation    estimate.EstimationRecord
	ActualWeightT *float64 // ground-truth weight, set after weighing
}

const schema = `
create table if not exists estimations (
  id            uuid primary key,
  created_at    timestamptz not null default now(),
  chat_id       bigint not null default 0,
  image_hash    text not null default '',
  truck_class   text not null default '',
  material      text not null default '',
  tonnage       double precision not null default 0,
  max_capacity  double precision not null default 0,
  result_json   jsonb not null,
  actual_weight double precision
);
create index if not exists estimations_chat_idx on estimations (chat_id, created_at desc);
create index if not exists estimations_hash_idx on estimations (image_hash, created_at desc);
create index if not exists estimations_labeled_idx on estimations (created_at desc) where actual_weight is not null;
`

// EnsureSchema creates the estimations table when missing.
func (r *RecordRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// Insert stores a freshly produced record.
func (r *RecordRepo) Insert(ctx context.Context, chatID int64, imageHash string, est estimate.EstimationRecord) error {
	js, err := json.Marshal(est)
	if err != nil {
		return fmt.Errorf("store: marshal record %s: %w", est.ID, err)
	}
	const q = `
insert into estimations (id, created_at, chat_id, image_hash, truck_class, material, tonnage, max_capacity, result_json)
values ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = r.DB.ExecContext(ctx, q,
		est.ID, est.CreatedAt, chatID, imageHash,
		est.TruckClass, est.Material, est.Calc.Tonnage, est.MaxCapacityT, js,
	)
	if err != nil {
		return fmt.Errorf("store: insert %s: %w", est.ID, err)
	}
	return nil
}

const selectCols = `id, created_at, coalesce(chat_id,0), coalesce(image_hash,''), result_json, actual_weight`

func scanRecord(row interface{ Scan(...any) error }) (*Record, error) {
	var (
		rec Record
		js  []byte
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.ChatID, &rec.ImageHash, &js, &rec.ActualWeightT); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(js, &rec.Estimation); err != nil {
		return nil, fmt.Errorf("store: corrupt result_json for %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// GetByID fetches one record.
func (r *RecordRepo) GetByID(ctx context.Context, id string) (*Record, error) {
	row := r.DB.QueryRowContext(ctx, `select `+selectCols+` from estimations where id = $1`, id)
	return scanRecord(row)
}

// FindByHash returns the most recent record for an image hash. maxAge > 0
// additionally requires freshness, otherwise age is ignored.
func (r *RecordRepo) FindByHash(ctx context.Context, imageHash string, maxAge time.Duration) (*Record, error) {
	const q = `select ` + selectCols + ` from estimations where image_hash = $1 order by created_at desc limit 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, q, imageHash))
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(rec.CreatedAt) > maxAge {
		return nil, ErrNotFound
	}
	return rec, nil
}

// LastForChat returns the newest record produced for a chat.
func (r *RecordRepo) LastForChat(ctx context.Context, chatID int64) (*Record, error) {
	const q = `select ` + selectCols + ` from estimations where chat_id = $1 order by created_at desc limit 1`
	return scanRecord(r.DB.QueryRowContext(ctx, q, chatID))
}

// Update applies fn to the current row under a row lock and writes the
// result back in the same transaction. Concurrent UI-triggered and
// pipeline-triggered writes to one record serialize here instead of losing
// updates.
func (r *RecordRepo) Update(ctx context.Context, id string, fn func(*Record) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin update %s: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `select `+selectCols+` from estimations where id = $1 for update`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return err
	}
	if err := fn(rec); err != nil {
		return err
	}
	js, err := json.Marshal(rec.Estimation)
	if err != nil {
		return fmt.Errorf("store: marshal record %s: %w", id, err)
	}
	const q = `
update estimations
set chat_id=$2, image_hash=$3, truck_class=$4, material=$5, tonnage=$6, max_capacity=$7, result_json=$8, actual_weight=$9
where id=$1`
	if _, err := tx.ExecContext(ctx, q,
		id, rec.ChatID, rec.ImageHash,
		rec.Estimation.TruckClass, rec.Estimation.Material,
		rec.Estimation.Calc.Tonnage, rec.Estimation.MaxCapacityT,
		js, rec.ActualWeightT,
	); err != nil {
		return fmt.Errorf("store: update %s: %w", id, err)
	}
	return tx.Commit()
}

// SetActualWeight records the ground-truth weight against a record, turning
// it into exemplar material for the grading selector.
func (r *RecordRepo) SetActualWeight(ctx context.Context, id string, weightT float64) error {
	if weightT <= 0 {
		return errors.New("store: actual weight must be positive")
	}
	return r.Update(ctx, id, func(rec *Record) error {
		rec.ActualWeightT = &weightT
		return nil
	})
}

// ListLabeled returns every ground-truth-labeled record, newest first,
// as selector input.
func (r *RecordRepo) ListLabeled(ctx context.Context, limit int) ([]estimate.LabeledRecord, error) {
	if limit <= 0 {
		limit = 200
	}
	const q = `select ` + selectCols + ` from estimations where actual_weight is not null order by created_at desc limit $1`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list labeled: %w", err)
	}
	defer rows.Close()

	var out []estimate.LabeledRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			// One corrupt row should not hide the rest of the history.
			continue
		}
		if rec.ActualWeightT == nil {
			continue
		}
		out = append(out, estimate.LabeledRecord{
			Record:        rec.Estimation,
			ActualWeightT: *rec.ActualWeightT,
			MaxCapacityT:  rec.Estimation.MaxCapacityT,
		})
	}
	return out, rows.Err()
}
