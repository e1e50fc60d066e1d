package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS journal (
	trace_id       TEXT PRIMARY KEY,
	operation_name TEXT NOT NULL,
	start_time     INTEGER NOT NULL,
	duration_ns    INTEGER NOT NULL,
	node_count     INTEGER NOT NULL,
	error_count    INTEGER NOT NULL,
	document       TEXT NOT NULL,
	recorded_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_start_time ON journal(start_time);
CREATE INDEX IF NOT EXISTS idx_journal_operation ON journal(operation_name);
`

// SQLiteStorage implements the Storage interface using SQLite. Suitable
// for single-instance deployments where the journal must survive restarts.
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStorage opens (or creates) the journal database at path.
// WAL mode is enabled for concurrent reads while the agent writes.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path == "" {
		return nil, NewStorageError("sqlite", "open", fmt.Errorf("db path cannot be empty"))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, NewStorageError("sqlite", "open", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStorage{
		db:     db,
		path:   path,
		logger: slog.Default().With("component", "journal.sqlite"),
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, NewStorageError("sqlite", "create_schema", err)
	}

	s.logger.Info("journal storage initialized", "path", path)
	return s, nil
}

// Store persists a journal entry.
func (s *SQLiteStorage) Store(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO journal (
			trace_id, operation_name, start_time, duration_ns,
			node_count, error_count, document, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (trace_id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.TraceID, entry.OperationName,
		entry.StartTime.UnixNano(), entry.DurationNs,
		entry.NodeCount, entry.ErrorCount,
		string(entry.Document), entry.RecordedAt.UnixNano(),
	)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves entries matching the filters, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, query *Query) ([]*Entry, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT trace_id, operation_name, start_time, duration_ns, node_count, error_count, document, recorded_at FROM journal"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY start_time DESC"

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		entry, err := scanRow(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}

	return entries, nil
}

// Count returns the number of entries matching the filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM journal"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes entries matching the filters.
func (s *SQLiteStorage) Delete(ctx context.Context, query *Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM journal"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("journal storage closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause from query filters. Returns
// the clause without the "WHERE" keyword and the query arguments.
func buildWhereClause(query *Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if query.StartTime != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "start_time <= ?")
		args = append(args, query.EndTime.UnixNano())
	}
	if query.OperationName != "" {
		conditions = append(conditions, "operation_name = ?")
		args = append(args, query.OperationName)
	}
	if query.WithErrors {
		conditions = append(conditions, "error_count > 0")
	}

	return strings.Join(conditions, " AND "), args
}

// scanRow scans a database row into an Entry.
func scanRow(rows *sql.Rows) (*Entry, error) {
	var entry Entry
	var startNs, recordedNs int64
	var document string

	err := rows.Scan(
		&entry.TraceID, &entry.OperationName, &startNs, &entry.DurationNs,
		&entry.NodeCount, &entry.ErrorCount, &document, &recordedNs,
	)
	if err != nil {
		return nil, err
	}

	entry.StartTime = time.Unix(0, startNs).UTC()
	entry.RecordedAt = time.Unix(0, recordedNs).UTC()
	entry.Document = []byte(document)
	return &entry, nil
}
