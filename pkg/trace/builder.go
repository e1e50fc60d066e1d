package trace

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Builder constructs the trace for one in-flight operation. It is created
// when the operation begins, mutated by instrumented resolvers as fields
// settle, and finalized exactly once when the operation completes.
//
// All methods are safe for concurrent use: parallel branches of a selection
// set may record fields and attach errors at the same time.
type Builder struct {
	mu        sync.Mutex
	trace     *Trace
	rootStart time.Time
	started   bool
	stopped   bool
	finalized bool
}

// FieldHandle identifies a node registered by RecordFieldStart. The zero
// value is a valid no-op handle.
type FieldHandle struct {
	b    *Builder
	node *Node
}

// NewBuilder creates a builder for a single operation.
func NewBuilder(operationName string) *Builder {
	return &Builder{
		trace: &Trace{
			ID:            uuid.New().String(),
			OperationName: operationName,
			Nodes:         make(map[string]*Node),
		},
	}
}

// Start records the trace's root start time. Only the first call has any
// effect; it must happen before any field of the operation resolves.
func (b *Builder) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return
	}
	b.started = true
	b.rootStart = time.Now()
	b.trace.StartTime = b.rootStart
}

// RecordFieldStart registers a node for the field at the given response
// path and returns a handle used to mark its settlement. If a node already
// exists at that path the first measurement wins and a no-op handle is
// returned.
func (b *Builder) RecordFieldStart(path []interface{}, parentType, fieldName, returnType string) FieldHandle {
	key := JoinPath(path)
	if key == "" {
		return FieldHandle{}
	}
	offset := b.offsetNow()

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.trace.Nodes[key]; exists {
		return FieldHandle{}
	}

	node := &Node{
		ParentType:    parentType,
		FieldName:     fieldName,
		ReturnType:    returnType,
		StartOffsetNs: offset,
	}
	b.trace.Nodes[key] = node

	if parent := parentKey(key); parent != "" {
		if pn, ok := b.trace.Nodes[parent]; ok {
			pn.Children = append(pn.Children, key)
		}
	}

	return FieldHandle{b: b, node: node}
}

// Finish records the field's end offset. It tolerates settlement after the
// trace has already been stopped: the node is still recorded, but the
// trace's overall end time is not extended.
func (h FieldHandle) Finish() {
	if h.b == nil || h.node == nil {
		return
	}
	offset := h.b.offsetNow()

	h.b.mu.Lock()
	h.node.EndOffsetNs = offset
	h.b.mu.Unlock()
}

// AttachError appends an error to the trace. When the path does not
// correspond to a recorded node (or is empty) the error is kept at the
// trace root level.
func (b *Builder) AttachError(path []interface{}, message string, extensions map[string]interface{}) {
	key := JoinPath(path)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.trace.Nodes[key]; !ok {
		key = ""
	}
	b.trace.Errors = append(b.trace.Errors, TraceError{
		Path:       key,
		Message:    message,
		Extensions: extensions,
	})
}

// Stop records the trace's root end time. A second call is a no-op.
func (b *Builder) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

func (b *Builder) stopLocked() {
	if b.stopped {
		return
	}
	b.stopped = true
	b.trace.EndTime = time.Now()
	if b.started {
		b.trace.DurationNs = b.trace.EndTime.Sub(b.rootStart).Nanoseconds()
	}
}

// Finalize stops the trace if needed and releases it to the caller. Only
// the first call returns the trace; subsequent calls return nil so an
// operation can never contribute more than one finalized trace.
func (b *Builder) Finalize() *Trace {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finalized {
		return nil
	}
	b.finalized = true
	b.stopLocked()
	return b.trace
}

// offsetNow returns the elapsed nanoseconds since the root start. It is
// zero when Start has not been called yet.
func (b *Builder) offsetNow() int64 {
	b.mu.Lock()
	started := b.started
	start := b.rootStart
	b.mu.Unlock()

	if !started {
		return 0
	}
	return time.Since(start).Nanoseconds()
}
