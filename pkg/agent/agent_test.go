package agent

import (
	"context"
	"testing"
	"time"

	"github.com/graphql-go/graphql"

	"mercator-hq/saturn/internal/ingest"
	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/journal"
)

// newTestSchema builds a small schema with explicit resolvers on every
// field.
func newTestSchema(t *testing.T) graphql.Schema {
	t.Helper()

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"greeting": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return "hello", nil
				},
			},
			"fail": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return nil, context.DeadlineExceeded
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
	if err != nil {
		t.Fatalf("NewSchema() failed: %v", err)
	}
	return schema
}

// newTestAgent creates an agent pointed at the mock ingestion server,
// with the journal on the memory backend and thresholds effectively
// disabled.
func newTestAgent(t *testing.T, server *ingest.MockServer) *Agent {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Reporting.EndpointURL = server.URL()
	cfg.Reporting.GraphRef = "test-graph@current"
	cfg.Reporting.APIKey = "service:test:key"
	cfg.Reporting.ReportInterval = time.Hour
	cfg.Journal.Enabled = true
	cfg.Journal.Backend = "memory"

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return a
}

// TestAgent_EndToEnd tests the full pipeline: an instrumented execution
// produces a trace that reaches the ingestion endpoint and the journal.
func TestAgent_EndToEnd(t *testing.T) {
	server := ingest.NewMockServer()
	defer server.Close()

	a := newTestAgent(t, server)
	defer a.Close()

	schema := newTestSchema(t)
	if err := a.InstrumentSchema(&schema); err != nil {
		t.Fatalf("InstrumentSchema() failed: %v", err)
	}

	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ greeting }`,
		Context:       context.Background(),
	})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	if err := a.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}

	if server.TraceCount() != 1 {
		t.Fatalf("ingestion received %d traces, want 1", server.TraceCount())
	}
	payload := server.Payloads()[0]
	if payload.Header.GraphRef != "test-graph@current" {
		t.Errorf("report graph ref = %q", payload.Header.GraphRef)
	}
	tr := payload.Traces[0]
	if _, ok := tr.Nodes["greeting"]; !ok {
		t.Errorf("trace is missing the greeting node: %v", tr.Nodes)
	}

	entries, err := a.Journal().Query(context.Background(), &journal.Query{})
	if err != nil {
		t.Fatalf("journal query failed: %v", err)
	}
	if len(entries) != 1 || entries[0].TraceID != tr.ID {
		t.Errorf("journal entries = %v, want one entry for trace %s", entries, tr.ID)
	}
}

// TestAgent_ResolverErrorDoesNotAffectResponse tests that instrumentation
// leaves a failing operation's response untouched while recording the
// error in the trace.
func TestAgent_ResolverErrorDoesNotAffectResponse(t *testing.T) {
	server := ingest.NewMockServer()
	defer server.Close()

	a := newTestAgent(t, server)
	defer a.Close()

	schema := newTestSchema(t)
	if err := a.InstrumentSchema(&schema); err != nil {
		t.Fatalf("InstrumentSchema() failed: %v", err)
	}

	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ fail }`,
		Context:       context.Background(),
	})
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 response error, got %d: %v", len(result.Errors), result.Errors)
	}

	if err := a.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	tr := server.Payloads()[0].Traces[0]
	if len(tr.Errors) != 1 || tr.Errors[0].Path != "fail" {
		t.Errorf("trace errors = %+v, want one error at path fail", tr.Errors)
	}
}

// TestAgent_InstrumentSchemaIdempotent tests that instrumenting the same
// schema twice yields exactly one trace per request.
func TestAgent_InstrumentSchemaIdempotent(t *testing.T) {
	server := ingest.NewMockServer()
	defer server.Close()

	a := newTestAgent(t, server)
	defer a.Close()

	schema := newTestSchema(t)
	if err := a.InstrumentSchema(&schema); err != nil {
		t.Fatalf("first InstrumentSchema() failed: %v", err)
	}
	if err := a.InstrumentSchema(&schema); err != nil {
		t.Fatalf("second InstrumentSchema() failed: %v", err)
	}

	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ greeting }`,
		Context:       context.Background(),
	})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	if err := a.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	if server.TraceCount() != 1 {
		t.Errorf("ingestion received %d traces, want 1", server.TraceCount())
	}
}

// TestAgent_MissingCredentials tests that a half-configured agent refuses
// to start.
func TestAgent_MissingCredentials(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Reporting.GraphRef = "test-graph@current"
	// No API key.

	if _, err := New(cfg); err == nil {
		t.Fatal("expected New() to fail without an API key")
	}
}

// TestAgent_ApplyConfig tests that threshold changes take effect without
// a restart.
func TestAgent_ApplyConfig(t *testing.T) {
	server := ingest.NewMockServer()
	defer server.Close()

	a := newTestAgent(t, server)
	defer a.Close()

	schema := newTestSchema(t)
	if err := a.InstrumentSchema(&schema); err != nil {
		t.Fatalf("InstrumentSchema() failed: %v", err)
	}

	// Shrink the size threshold so a single trace flushes on arrival.
	updated := config.DefaultConfig()
	updated.Reporting.MaxUncompressedReportSize = 1
	a.ApplyConfig(updated)

	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ greeting }`,
		Context:       context.Background(),
	})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && server.RequestCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if server.RequestCount() != 1 {
		t.Errorf("size flush under updated threshold did not happen")
	}
}

// TestAgent_CloseFlushes tests that Close delivers buffered traces.
func TestAgent_CloseFlushes(t *testing.T) {
	server := ingest.NewMockServer()
	defer server.Close()

	a := newTestAgent(t, server)

	schema := newTestSchema(t)
	if err := a.InstrumentSchema(&schema); err != nil {
		t.Fatalf("InstrumentSchema() failed: %v", err)
	}

	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ greeting }`,
		Context:       context.Background(),
	})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if server.TraceCount() != 1 {
		t.Errorf("Close() delivered %d traces, want 1", server.TraceCount())
	}
}
