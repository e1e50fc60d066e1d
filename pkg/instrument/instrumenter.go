package instrument

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"

	"mercator-hq/saturn/pkg/trace"
)

// Instrumenter wraps every resolver-carrying field of a schema so that
// each field's execution is timed and error-tagged into the active
// request's trace builder.
//
// Wrapping happens once per schema lifetime: the instrumenter carries an
// explicit record of which schema fields it has already wrapped, so a
// second pass over the same schema is a no-op and never double-measures.
type Instrumenter struct {
	mu      sync.Mutex
	wrapped map[*graphql.Schema]map[string]bool
	logger  *slog.Logger
}

// NewInstrumenter creates an instrumenter.
func NewInstrumenter() *Instrumenter {
	return &Instrumenter{
		wrapped: make(map[*graphql.Schema]map[string]bool),
		logger:  slog.Default().With("component", "instrument"),
	}
}

// WrapSchema replaces the resolver of every object field that carries one
// with an instrumented version. Fields without an explicit resolver (those
// served by the default property lookup) are left alone, as are
// introspection types.
func (in *Instrumenter) WrapSchema(schema *graphql.Schema) error {
	if schema == nil {
		return fmt.Errorf("instrument: schema is nil")
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	marks, seen := in.wrapped[schema]
	if !seen {
		marks = make(map[string]bool)
		in.wrapped[schema] = marks
	}

	wrappedFields := 0
	for name, typ := range schema.TypeMap() {
		if strings.HasPrefix(name, "__") {
			continue
		}
		obj, ok := typ.(*graphql.Object)
		if !ok {
			continue
		}
		for fieldName, def := range obj.Fields() {
			if def.Resolve == nil {
				continue
			}
			mark := name + "." + fieldName
			if marks[mark] {
				continue
			}
			def.Resolve = instrumentedResolver(def.Resolve)
			marks[mark] = true
			wrappedFields++
		}
	}

	in.logger.Debug("schema resolvers wrapped",
		"fields", wrappedFields,
		"already_wrapped", seen,
	)
	return nil
}

// instrumentedResolver returns a resolver that records the field's start
// and settlement into the request's trace builder, then returns the
// original outcome unchanged. Requests without an active builder pass
// through untouched.
func instrumentedResolver(orig graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		b, ok := trace.FromContext(p.Context)
		if !ok {
			return orig(p)
		}

		path := fieldPath(p.Info)
		parentType := ""
		if p.Info.ParentType != nil {
			parentType = p.Info.ParentType.Name()
		}
		returnType := ""
		if p.Info.ReturnType != nil {
			returnType = fmt.Sprintf("%v", p.Info.ReturnType)
		}

		h := b.RecordFieldStart(path, parentType, p.Info.FieldName, returnType)

		result, err := orig(p)

		// Thunk-returning resolvers settle later: defer the end record
		// until the executor invokes the thunk.
		if thunk, isThunk := result.(func() (interface{}, error)); isThunk && err == nil {
			return func() (interface{}, error) {
				value, thunkErr := thunk()
				h.Finish()
				if thunkErr != nil {
					b.AttachError(path, thunkErr.Error(), errorExtensions(thunkErr))
				}
				return value, thunkErr
			}, nil
		}

		h.Finish()
		if err != nil {
			b.AttachError(path, err.Error(), errorExtensions(err))
		}
		return result, err
	}
}

// fieldPath composes the field's response path from the executor's path
// info, falling back to the bare field name when path info is missing.
func fieldPath(info graphql.ResolveInfo) []interface{} {
	if info.Path != nil {
		if p := info.Path.AsArray(); len(p) > 0 {
			return p
		}
	}
	return []interface{}{info.FieldName}
}

// errorExtensions extracts GraphQL error extensions when the resolver's
// error carries them.
func errorExtensions(err error) map[string]interface{} {
	if ext, ok := err.(gqlerrors.ExtendedError); ok {
		return ext.Extensions()
	}
	return nil
}
