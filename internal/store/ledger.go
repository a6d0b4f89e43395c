package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"amc/internal/session"
)

// LedgerRepository persists flushed attendance batches so the day's record
// survives process restarts. Best effort: the in-memory ledger is the
// source of truth for the running day.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a repository over an open connection.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// InsertBatch writes one flushed batch. Re-flushing the same subject and
// slot on the same day replaces the earlier row, matching the in-memory
// ledger keying.
func (r *LedgerRepository) InsertBatch(ctx context.Context, section string, b session.Batch) error {
	attendees, err := json.Marshal(b.Attendees)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO attendance_batches
			(id, section, subject, slot_index, slot_range, host_code, host_name, host_email, attendees, flushed_at, day)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (section, subject, slot_range, day) DO UPDATE SET
			id = EXCLUDED.id,
			host_code = EXCLUDED.host_code,
			host_name = EXCLUDED.host_name,
			host_email = EXCLUDED.host_email,
			attendees = EXCLUDED.attendees,
			flushed_at = EXCLUDED.flushed_at
	`, b.ID, section, b.Subject, b.SlotIndex, b.SlotRange,
		b.Host.Code, b.Host.Name, b.Host.Email, attendees, b.FlushedAt, b.FlushedAt.Format("2006-01-02"))
	return err
}

// BatchRow is a persisted ledger entry.
type BatchRow struct {
	ID        string          `json:"id"`
	Section   string          `json:"section"`
	Subject   string          `json:"subject"`
	SlotIndex int             `json:"slot_index"`
	SlotRange string          `json:"slot_range"`
	HostCode  string          `json:"host_code"`
	HostName  string          `json:"host_name"`
	Attendees json.RawMessage `json:"attendees"`
	FlushedAt time.Time       `json:"flushed_at"`
}

// ListBatches returns the persisted ledger for one section and day in slot
// order.
func (r *LedgerRepository) ListBatches(ctx context.Context, section string, day time.Time) ([]BatchRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, section, subject, slot_index, slot_range, host_code, host_name, attendees, flushed_at
		FROM attendance_batches
		WHERE section = $1 AND day = $2
		ORDER BY slot_index
	`, section, day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BatchRow
	for rows.Next() {
		var row BatchRow
		if err := rows.Scan(&row.ID, &row.Section, &row.Subject, &row.SlotIndex, &row.SlotRange,
			&row.HostCode, &row.HostName, &row.Attendees, &row.FlushedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
