// Package instrument wires the Mercator Saturn trace pipeline into a
// github.com/graphql-go/graphql schema.
//
// It has two halves:
//
//   - Instrumenter performs a one-time walk of the schema's type map and
//     replaces every field resolver with a wrapped version that records
//     enter/exit timestamps and errors into the active request's trace
//     builder. Wrapping is transparent: return values, thrown errors, and
//     thunk-based asynchronous settlement pass through unchanged.
//
//   - Extension implements graphql.Extension and is the narrow lifecycle
//     adapter: it creates a builder per request at operation start and
//     finalizes it at operation end, handing the finished trace to a
//     completion callback.
//
// # Usage
//
//	in := instrument.NewInstrumenter()
//	if err := in.WrapSchema(&schema); err != nil {
//	    return err
//	}
//	schema.AddExtensions(instrument.NewExtension(func(t *trace.Trace) {
//	    scheduler.Add(t)
//	}))
//
// Both halves degrade gracefully: a request without an injected builder
// executes exactly as if uninstrumented, and recording faults never alter
// or delay the GraphQL response.
package instrument
