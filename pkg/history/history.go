// Package history stores past evaluations.
//
// A Store keeps records newest first and drops the oldest ones once the
// retention cap is reached. Sessions talk to the Store interface only, so
// the backing storage (memory, SQLite, YAML file) is chosen by the caller.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/antibyte/retrocalc/pkg/configuration"
	"github.com/google/uuid"
)

// DefaultMaxRecords is the retention cap used when nothing is configured.
const DefaultMaxRecords = 50

// ErrNotFound is returned when a record ID is unknown.
var ErrNotFound = errors.New("history record not found")

// Record is one evaluation attempt.
type Record struct {
	ID         string    `json:"id" yaml:"id"`
	Expression string    `json:"expression" yaml:"expression"`
	Result     string    `json:"result" yaml:"result"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewRecord creates a record with a fresh ID and the current time.
func NewRecord(expression, result string) Record {
	return Record{
		ID:         uuid.New().String(),
		Expression: expression,
		Result:     result,
		Timestamp:  time.Now(),
	}
}

// Store is the history capability injected into sessions.
type Store interface {
	// Append adds r as the newest record.
	Append(ctx context.Context, r Record) error
	// List returns all records, most recent first.
	List(ctx context.Context) ([]Record, error)
	// Clear removes every record.
	Clear(ctx context.Context) error
}

// MaxRecords returns the configured retention cap.
func MaxRecords() int {
	n := configuration.GetInt("History", "max_records", DefaultMaxRecords)
	if n <= 0 {
		return DefaultMaxRecords
	}
	return n
}

// Find returns the record with the given ID.
func Find(records []Record, id string) (Record, error) {
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

// Lookup lists the store and finds id in it.
func Lookup(ctx context.Context, s Store, id string) (Record, error) {
	records, err := s.List(ctx)
	if err != nil {
		return Record{}, err
	}
	return Find(records, id)
}

// prepend puts r in front of records and trims to max.
func prepend(records []Record, r Record, max int) []Record {
	out := make([]Record, 0, len(records)+1)
	out = append(out, r)
	out = append(out, records...)
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func ensureID(r Record) Record {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	return r
}
