// Package trace builds per-operation execution traces for the Mercator
// Saturn GraphQL reporting agent. A trace mirrors the shape of the query's
// field-selection tree: one node per resolved field, with nanosecond start
// and end offsets relative to the operation's root start time, plus an
// ordered sequence of captured errors.
//
// # Lifecycle
//
// A Builder is created when an operation begins and injected into the
// request context:
//
//	b := trace.NewBuilder(operationName)
//	b.Start()
//	ctx = trace.WithBuilder(ctx, b)
//
// Instrumented resolvers record each field as it settles:
//
//	h := b.RecordFieldStart(path, parentType, fieldName, returnType)
//	// ... original resolver runs ...
//	h.Finish()
//
// When the operation completes the builder is finalized and ownership of
// the trace transfers to the reporting pipeline, which treats it as
// immutable:
//
//	if t := b.Finalize(); t != nil {
//	    scheduler.Add(t)
//	}
//
// # Concurrency
//
// Parallel branches of a selection set may resolve concurrently within one
// request. All Builder methods are safe for concurrent use; sibling node
// intervals may legally overlap and are preserved as measured.
package trace
