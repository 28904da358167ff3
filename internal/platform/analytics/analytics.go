// Package analytics is the product event sink. Domain services track
// business events (consultation requested, consultation scheduled, document
// uploaded) and the sink records them for later reporting. Tracking is best
// effort and must never fail a request.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is a single product analytics event.
type Event struct {
	Name       string            `json:"name"`
	UserID     string            `json:"user_id,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Sink receives tracked events.
type Sink interface {
	Track(ctx context.Context, event Event) error
}

// PGSink persists events to the analytics_events table.
type PGSink struct {
	pool *pgxpool.Pool
}

// NewPGSink creates a sink writing to the given pool.
func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

// Track inserts the event. The properties map is stored as JSONB.
func (s *PGSink) Track(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	props, err := json.Marshal(event.Properties)
	if err != nil {
		return fmt.Errorf("marshal event properties: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analytics_events (name, user_id, properties, occurred_at) VALUES ($1, NULLIF($2, ''), $3, $4)`,
		event.Name, event.UserID, props, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

// MemorySink is a thread-safe in-memory sink for tests and development.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Track appends the event.
func (s *MemorySink) Track(_ context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

// Events returns a copy of all tracked events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// CountByName returns how many events with the given name were tracked.
func (s *MemorySink) CountByName(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Name == name {
			n++
		}
	}
	return n
}
