// Package monitor runs the cooperative polling loop that feeds the
// session machine. It is the single consumer of scan events, so every
// transition happens from one goroutine; the interface layer only ever
// publishes to the queue or reads snapshots.
package monitor

import (
	"context"
	"log"
	"time"

	"amc/internal/queue"
	"amc/internal/session"
)

// Loop ties oracle ticks and scan events to the machine.
type Loop struct {
	machine  *session.Machine
	scans    queue.Queue
	interval time.Duration
	now      func() time.Time
}

// New creates a loop. A nil clock defaults to time.Now.
func New(machine *session.Machine, scans queue.Queue, interval time.Duration, clock func() time.Time) *Loop {
	if clock == nil {
		clock = time.Now
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Loop{machine: machine, scans: scans, interval: interval, now: clock}
}

// Run polls until the context is cancelled or the oracle reports that
// operating hours are over. On cancellation the machine is stopped first,
// so no attendance is silently dropped on a manual stop.
func (l *Loop) Run(ctx context.Context) error {
	events, err := l.scans.Consume(ctx)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	log.Printf("monitor loop started, tick interval %s", l.interval)
	for {
		select {
		case <-ctx.Done():
			l.machine.Stop(context.Background(), l.now())
			log.Printf("monitor loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if halt := l.machine.Tick(ctx, l.now()); halt {
				l.machine.Stop(ctx, l.now())
				log.Printf("monitor loop halted: outside operating hours")
				return nil
			}
		case scan, ok := <-events:
			if !ok {
				l.machine.Stop(context.Background(), l.now())
				return nil
			}
			l.machine.HandleScan(ctx, scan.Payload)
		}
	}
}
