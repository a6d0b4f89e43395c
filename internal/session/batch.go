package session

import (
	"context"
	"time"

	"amc/internal/roster"
)

// Batch is the immutable snapshot of one finished lecture handed to the
// export gateway at flush time. The machine never mutates it afterwards.
type Batch struct {
	ID        string                 `json:"id"`
	Host      roster.FacultyRecord   `json:"host"`
	Attendees []roster.StudentRecord `json:"attendees"`
	Subject   string                 `json:"subject"`
	SlotIndex int                    `json:"slot_index"`
	SlotRange string                 `json:"slot_range"`
	FlushedAt time.Time              `json:"flushed_at"`
}

// LedgerKey is the composite the day ledger is keyed by. Re-flushing the
// same subject and slot replaces the earlier entry.
func (b Batch) LedgerKey() string {
	return b.Subject + " " + b.SlotRange
}

// Gateway receives finished batches. Implementations may block on disk or
// network I/O; failures must be reported, never panicked, since the
// machine treats a failed handoff as flushed-locally.
type Gateway interface {
	ExportBatch(ctx context.Context, b Batch) (artifactPath string, err error)
	ExportDay(ctx context.Context, batches []Batch) (artifactPath string, err error)
	Notify(ctx context.Context, artifactPath, recipient, subject, body string) error
}
