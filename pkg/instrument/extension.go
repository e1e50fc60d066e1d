package instrument

import (
	"context"
	"log/slog"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"

	"mercator-hq/saturn/pkg/trace"
)

// CompletionFunc receives each finalized trace. The reporting pipeline's
// scheduler is the usual implementation.
type CompletionFunc func(*trace.Trace)

// Extension is the host adapter between the graphql-go execution lifecycle
// and the trace pipeline. It creates a trace builder per request, injects
// it into the execution context for the instrumented resolvers, and hands
// the finalized trace to the completion callback once the operation ends.
//
// A single Extension instance is registered on the schema and shared by
// all requests; all per-request state lives in the builder carried by the
// request context.
type Extension struct {
	onComplete CompletionFunc
	logger     *slog.Logger
}

var _ graphql.Extension = (*Extension)(nil)

// NewExtension creates the lifecycle adapter. onComplete may be nil, in
// which case finalized traces are discarded.
func NewExtension(onComplete CompletionFunc) *Extension {
	return &Extension{
		onComplete: onComplete,
		logger:     slog.Default().With("component", "instrument.extension"),
	}
}

// Name returns the extension's name.
func (e *Extension) Name() string {
	return "mercator-saturn-tracing"
}

// Init creates and starts the request's trace builder and injects it into
// the execution context.
func (e *Extension) Init(ctx context.Context, p *graphql.Params) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	operationName := ""
	if p != nil {
		operationName = p.OperationName
	}

	b := trace.NewBuilder(operationName)
	b.Start()
	return trace.WithBuilder(ctx, b)
}

// ParseDidStart finalizes the trace early when the document fails to
// parse, since execution will never start.
func (e *Extension) ParseDidStart(ctx context.Context) (context.Context, graphql.ParseFinishFunc) {
	return ctx, func(err error) {
		if err == nil {
			return
		}
		if b, ok := trace.FromContext(ctx); ok {
			b.AttachError(nil, err.Error(), errorExtensions(err))
			e.complete(b)
		}
	}
}

// ValidationDidStart finalizes the trace early when validation fails.
func (e *Extension) ValidationDidStart(ctx context.Context) (context.Context, graphql.ValidationFinishFunc) {
	return ctx, func(errs []gqlerrors.FormattedError) {
		if len(errs) == 0 {
			return
		}
		if b, ok := trace.FromContext(ctx); ok {
			for _, fe := range errs {
				b.AttachError(nil, fe.Message, fe.Extensions)
			}
			e.complete(b)
		}
	}
}

// ExecutionDidStart arranges for the trace to be stopped and handed off
// when the operation's result is ready. Only path-less errors (raised
// before field execution) are attached here; resolver errors were already
// attached by the instrumented resolvers, so each error is recorded
// exactly once.
func (e *Extension) ExecutionDidStart(ctx context.Context) (context.Context, graphql.ExecutionFinishFunc) {
	return ctx, func(result *graphql.Result) {
		b, ok := trace.FromContext(ctx)
		if !ok {
			return
		}
		if result != nil {
			for _, fe := range result.Errors {
				if len(fe.Path) > 0 {
					continue
				}
				b.AttachError(nil, fe.Message, fe.Extensions)
			}
		}
		e.complete(b)
	}
}

// ResolveFieldDidStart is a no-op: field timing is recorded by the wrapped
// resolvers, which also see thunk settlement the extension cannot observe.
func (e *Extension) ResolveFieldDidStart(ctx context.Context, _ *graphql.ResolveInfo) (context.Context, graphql.ResolveFieldFinishFunc) {
	return ctx, func(interface{}, error) {}
}

// HasResult reports that the extension adds nothing to the response.
func (e *Extension) HasResult() bool {
	return false
}

// GetResult returns nothing; traces leave through the completion callback.
func (e *Extension) GetResult(context.Context) interface{} {
	return nil
}

func (e *Extension) complete(b *trace.Builder) {
	t := b.Finalize()
	if t == nil {
		return
	}
	e.logger.Debug("trace finalized",
		"trace_id", t.ID,
		"operation", t.OperationName,
		"duration_ns", t.DurationNs,
		"nodes", len(t.Nodes),
		"errors", len(t.Errors),
	)
	if e.onComplete != nil {
		e.onComplete(t)
	}
}
