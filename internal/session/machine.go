package session

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"amc/internal/metrics"
	"amc/internal/roster"
	"amc/internal/timetable"
)

// Config carries the session-level settings, passed explicitly instead of
// living in process-wide state.
type Config struct {
	Section  string
	WarnLead time.Duration
	HODEmail string
}

// Machine is the attendance session state machine. All transitions happen
// under one mutex: it is the sole serialization point for scan events and
// oracle ticks, because interleaved authentication and flush transitions
// do not commute.
type Machine struct {
	cfg      Config
	faculty  *roster.FacultyStore
	students *roster.StudentStore
	oracle   *timetable.Timetable
	lectures timetable.LectureTable
	gateway  Gateway
	feedback Feedback

	mu        sync.Mutex
	host      *roster.FacultyRecord
	attendees []roster.StudentRecord
	slot      timetable.Slot
	slotEnd   time.Time
	armed     bool
	warned    bool
	flushed   bool
	ledger    map[string]Batch
}

// New wires a machine over loaded stores. The gateway and feedback
// collaborators must be non-nil.
func New(cfg Config, faculty *roster.FacultyStore, students *roster.StudentStore,
	oracle *timetable.Timetable, lectures timetable.LectureTable,
	gateway Gateway, feedback Feedback) *Machine {
	return &Machine{
		cfg:      cfg,
		faculty:  faculty,
		students: students,
		oracle:   oracle,
		lectures: lectures,
		gateway:  gateway,
		feedback: feedback,
		ledger:   make(map[string]Batch),
	}
}

// HandleScan routes one decoded QR payload. Digit payloads go to token
// authentication, everything else to the identity store. Malformed input
// is dropped silently; the loop keeps running.
func (m *Machine) HandleScan(ctx context.Context, payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	metrics.ScansTotal.Inc()

	if m.faculty.LooksLikeToken(payload) {
		if m.host != nil {
			// Repeat token scan during a live session is feedback only.
			m.feedback.Play(KindActiveSession, "session already active")
			return
		}
		rec := m.faculty.Authenticate(payload)
		if rec == nil {
			metrics.AuthRejected.Inc()
			return
		}
		m.host = rec
		m.warned = false
		m.flushed = false
		metrics.AuthAccepted.Inc()
		metrics.SessionActive.Set(1)
		log.Printf("lecture held by: %s (%s)", rec.Name, rec.Code)
		m.feedback.Play(KindAuth, rec.Code)
		return
	}

	if m.host == nil {
		return
	}
	roll, name, ok := roster.ParseIdentityPayload(payload)
	if !ok {
		return
	}
	rec := m.students.Validate(roll, name)
	if rec == nil {
		return
	}
	for _, present := range m.attendees {
		if present.Equal(*rec) {
			return
		}
	}
	m.attendees = append(m.attendees, *rec)
	metrics.AttendeesRecorded.Inc()
	m.feedback.Play(KindAttend, roll+": "+name)
}

// Tick drives the time-based transitions. Returns true when the oracle
// reports no active slot, which flushes whatever is live and tells the
// polling loop to halt.
func (m *Machine) Tick(ctx context.Context, now time.Time) (halt bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active, ok := m.oracle.CurrentSlot(now)
	if !ok {
		log.Printf("outside operating hours")
		m.flushLocked(ctx, now)
		return true
	}

	if !m.armed || active.Index != m.slot.Index {
		// The previous lecture window closed without a flush tick landing
		// exactly on it; close it out before re-arming.
		if m.armed && !m.flushed && !now.Before(m.slotEnd) {
			m.flushLocked(ctx, now)
		}
		m.slot = active.Slot
		m.slotEnd = active.EndsAt
		m.armed = true
		m.warned = false
		m.flushed = false
	}

	if !m.warned && !now.Before(m.slotEnd.Add(-m.cfg.WarnLead)) {
		m.warned = true
		metrics.WarnsFired.Inc()
		log.Printf("warning: slot %d ends at %s", m.slot.Index, m.slotEnd.Format("15:04"))
		m.feedback.Play(KindWarn, m.slot.Range())
	}
	if !m.flushed && !now.Before(m.slotEnd) {
		m.flushLocked(ctx, now)
	}
	return false
}

// Stop handles an external stop request: flush the live session, then
// export the combined day ledger.
func (m *Machine) Stop(ctx context.Context, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.host != nil {
		m.flushLocked(ctx, now)
	}
	if len(m.ledger) == 0 {
		return
	}
	batches := m.ledgerLocked()
	artifact, err := m.gateway.ExportDay(ctx, batches)
	if err != nil {
		log.Printf("day export failed: %v", err)
		return
	}
	body := fmt.Sprintf("%d lectures held today.\n\nDate: %s (%s).",
		len(batches), now.Format("2006-01-02"), now.Weekday())
	subject := fmt.Sprintf("Attendance %s %s", m.cfg.Section, now.Format("2006-01-02"))
	if err := m.gateway.Notify(ctx, artifact, m.cfg.HODEmail, subject, body); err != nil {
		log.Printf("day notification failed: %v, record kept at %s", err, artifact)
	}
}

// flushLocked closes out the current attendance window. With no host it is
// a clean no-op back to idle. Gateway failure does not corrupt state: the
// batch counts as flushed locally.
func (m *Machine) flushLocked(ctx context.Context, now time.Time) {
	m.flushed = true
	if m.host == nil {
		m.attendees = nil
		return
	}

	subject := m.lectures.Subject(m.cfg.Section, now.Weekday(), m.slot.Index)
	batch := Batch{
		ID:        uuid.NewString(),
		Host:      *m.host,
		Attendees: append([]roster.StudentRecord(nil), m.attendees...),
		Subject:   subject,
		SlotIndex: m.slot.Index,
		SlotRange: m.slot.Range(),
		FlushedAt: now,
	}

	artifact, err := m.gateway.ExportBatch(ctx, batch)
	if err != nil {
		metrics.ExportFailures.Inc()
		log.Printf("batch export failed: %v", err)
	} else {
		m.ledger[batch.LedgerKey()] = batch
		body := fmt.Sprintf("%d attendees.\n\nDate: %s (%s)\nLecture: %s",
			len(batch.Attendees), now.Format("2006-01-02"), now.Weekday(), subject)
		if err := m.gateway.Notify(ctx, artifact, batch.Host.Email, "Lecture Attendance: "+subject, body); err != nil {
			log.Printf("host notification failed: %v, record kept at %s", err, artifact)
		}
	}

	m.host = nil
	m.attendees = nil
	metrics.FlushesTotal.Inc()
	metrics.SessionActive.Set(0)
	log.Printf("attendance flushed")
	m.feedback.Play(KindFlush, "")
}

// Snapshot is a read-only view of the live session for the operator API.
type Snapshot struct {
	State         string                `json:"state"`
	Host          *roster.FacultyRecord `json:"host,omitempty"`
	AttendeeCount int                   `json:"attendee_count"`
	SlotIndex     int                   `json:"slot_index"`
	SlotRange     string                `json:"slot_range,omitempty"`
	Warned        bool                  `json:"warned"`
	LedgerSize    int                   `json:"ledger_size"`
}

// Snapshot reports the machine's current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		AttendeeCount: len(m.attendees),
		SlotIndex:     m.slot.Index,
		Warned:        m.warned,
		LedgerSize:    len(m.ledger),
	}
	if m.armed {
		snap.SlotRange = m.slot.Range()
	}
	switch {
	case m.host == nil:
		snap.State = "idle"
	case m.warned:
		snap.State = "warned"
	default:
		snap.State = "authenticated"
	}
	if m.host != nil {
		host := *m.host
		snap.Host = &host
	}
	return snap
}

// Ledger returns the day's flushed batches ordered by ledger key.
func (m *Machine) Ledger() []Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgerLocked()
}

func (m *Machine) ledgerLocked() []Batch {
	keys := make([]string, 0, len(m.ledger))
	for key := range m.ledger {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	batches := make([]Batch, 0, len(keys))
	for _, key := range keys {
		batches = append(batches, m.ledger[key])
	}
	return batches
}
