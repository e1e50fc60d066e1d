package trace

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Trace is the complete timing and error record for a single executed
// GraphQL operation. Nodes are keyed by their response path; offsets are
// nanoseconds relative to StartTime.
type Trace struct {
	// ID is a UUID v4 assigned when the trace is created.
	ID string `json:"id"`

	// OperationName is the name of the executed operation, if any.
	OperationName string `json:"operation_name,omitempty"`

	// StartTime is when the operation began executing.
	StartTime time.Time `json:"start_time"`

	// EndTime is when the operation finished.
	EndTime time.Time `json:"end_time"`

	// DurationNs is EndTime - StartTime in nanoseconds.
	DurationNs int64 `json:"duration_ns"`

	// Nodes maps response paths (e.g. "hero.friends.0.name") to per-field
	// timing records.
	Nodes map[string]*Node `json:"nodes"`

	// Errors holds all errors captured during the operation, in
	// occurrence order.
	Errors []TraceError `json:"errors,omitempty"`
}

// Node is the timing record for one field occurrence in the executed
// selection tree.
type Node struct {
	// ParentType is the name of the object type the field belongs to.
	ParentType string `json:"parent_type"`

	// FieldName is the schema field name.
	FieldName string `json:"field_name"`

	// ReturnType is the string form of the field's return type
	// (e.g. "[Friend!]!").
	ReturnType string `json:"return_type"`

	// StartOffsetNs is the resolver start time relative to the trace's
	// StartTime, in nanoseconds.
	StartOffsetNs int64 `json:"start_offset_ns"`

	// EndOffsetNs is the resolver settlement time relative to the trace's
	// StartTime, in nanoseconds.
	EndOffsetNs int64 `json:"end_offset_ns"`

	// Children holds the path keys of directly nested field nodes.
	Children []string `json:"children,omitempty"`
}

// TraceError is one captured error. Path is empty for errors raised before
// field execution (parse and validation failures) and for errors whose path
// did not match a recorded node.
type TraceError struct {
	Path       string                 `json:"path,omitempty"`
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// JoinPath converts a response path as produced by the GraphQL executor
// (a sequence of field names and list indices) into the dotted key used to
// address nodes within a trace.
func JoinPath(path []interface{}) string {
	if len(path) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, step := range path {
		if i > 0 {
			sb.WriteByte('.')
		}
		switch v := step.(type) {
		case string:
			sb.WriteString(v)
		case int:
			sb.WriteString(strconv.Itoa(v))
		default:
			sb.WriteString(fmt.Sprintf("%v", v))
		}
	}
	return sb.String()
}

// parentKey returns the path key of the enclosing field node, or "" for
// root-level selections. List indices are stripped because the node for a
// list field lives at the field's own path: the parent of
// "hero.friends.0.name" is "hero.friends".
func parentKey(key string) string {
	idx := strings.LastIndexByte(key, '.')
	if idx < 0 {
		return ""
	}
	key = key[:idx]

	for key != "" {
		idx = strings.LastIndexByte(key, '.')
		last := key[idx+1:]
		if _, err := strconv.Atoi(last); err != nil {
			return key
		}
		if idx < 0 {
			return ""
		}
		key = key[:idx]
	}
	return key
}
