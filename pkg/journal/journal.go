package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/trace"
)

// Entry is a journaled trace: indexed summary columns plus the full trace
// document for inspection.
type Entry struct {
	// TraceID is the trace's UUID.
	TraceID string

	// OperationName is the GraphQL operation name, empty for anonymous
	// operations.
	OperationName string

	// StartTime is when the traced request started.
	StartTime time.Time

	// DurationNs is the request's wall-clock duration in nanoseconds.
	DurationNs int64

	// NodeCount is the number of resolver nodes in the trace.
	NodeCount int

	// ErrorCount is the number of errors attached to the trace.
	ErrorCount int

	// Document is the full trace serialized as JSON.
	Document json.RawMessage

	// RecordedAt is when the entry was written to the journal.
	RecordedAt time.Time
}

// NewEntry builds a journal entry from a finalized trace.
func NewEntry(t *trace.Trace) (*Entry, error) {
	doc, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize trace %s: %w", t.ID, err)
	}

	return &Entry{
		TraceID:       t.ID,
		OperationName: t.OperationName,
		StartTime:     t.StartTime,
		DurationNs:    t.DurationNs,
		NodeCount:     len(t.Nodes),
		ErrorCount:    len(t.Errors),
		Document:      doc,
		RecordedAt:    time.Now().UTC(),
	}, nil
}

// Query contains filters for retrieving journal entries. Zero-valued
// fields are ignored.
type Query struct {
	// StartTime and EndTime bound the entry's trace start time.
	StartTime *time.Time
	EndTime   *time.Time

	// OperationName filters by exact operation name.
	OperationName string

	// WithErrors restricts results to traces that carry errors.
	WithErrors bool

	// Limit caps the number of returned entries. 0 means the backend
	// default of 100.
	Limit int

	// Offset skips entries for pagination.
	Offset int
}

// Storage is the journal persistence interface. Implementations must be
// safe for concurrent use.
type Storage interface {
	// Store persists a journal entry.
	Store(ctx context.Context, entry *Entry) error

	// Query retrieves entries matching the filters, newest first.
	Query(ctx context.Context, query *Query) ([]*Entry, error)

	// Count returns the number of entries matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes entries matching the filters and returns how many
	// were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases backend resources.
	Close() error
}

// NewStorage creates the storage backend named by the configuration.
func NewStorage(cfg *config.JournalConfig) (Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Backend)
	}
}
