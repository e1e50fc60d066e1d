package report_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"mercator-hq/saturn/internal/ingest"
	"mercator-hq/saturn/pkg/report"
	"mercator-hq/saturn/pkg/trace"
)

// TestSender_Send tests that a report arrives gzip-encoded with the graph
// identity headers and decodes back to the same traces.
func TestSender_Send(t *testing.T) {
	server := ingest.NewMockServer()
	defer server.Close()

	cfg := testReportingConfig(server.URL())
	s := report.NewSender(cfg)
	defer s.Close()

	tr := sampleTrace("ShipMe")
	payload := report.NewPayload(cfg.GraphRef, []*trace.Trace{tr})

	result, err := s.Send(context.Background(), payload)
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", result.StatusCode)
	}
	if result.Traces != 1 {
		t.Errorf("Traces = %d, want 1", result.Traces)
	}
	if result.CompressedBytes <= 0 {
		t.Errorf("CompressedBytes = %d, want > 0", result.CompressedBytes)
	}

	apiKeys, graphRefs := server.Headers()
	if apiKeys[0] != cfg.APIKey {
		t.Errorf("X-Api-Key = %q, want %q", apiKeys[0], cfg.APIKey)
	}
	if graphRefs[0] != cfg.GraphRef {
		t.Errorf("X-Graph-Ref = %q, want %q", graphRefs[0], cfg.GraphRef)
	}

	got := server.Payloads()[0]
	if got.ID != payload.ID {
		t.Errorf("payload ID = %q, want %q", got.ID, payload.ID)
	}
	if got.Header.GraphRef != cfg.GraphRef {
		t.Errorf("header graph ref = %q, want %q", got.Header.GraphRef, cfg.GraphRef)
	}
	if len(got.Traces) != 1 || got.Traces[0].OperationName != "ShipMe" {
		t.Errorf("decoded traces = %+v, want one ShipMe trace", got.Traces)
	}
}

// TestSender_NonSuccessStatus tests that a non-2xx response is returned as
// a DeliveryError carrying the status.
func TestSender_NonSuccessStatus(t *testing.T) {
	server := ingest.NewMockServer()
	defer server.Close()
	server.SetStatusCode(http.StatusServiceUnavailable)

	cfg := testReportingConfig(server.URL())
	s := report.NewSender(cfg)
	defer s.Close()

	payload := report.NewPayload(cfg.GraphRef, []*trace.Trace{sampleTrace("Rejected")})
	result, err := s.Send(context.Background(), payload)
	if err == nil {
		t.Fatal("expected a delivery error for a 503 response")
	}
	var de *report.DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeliveryError, got %T: %v", err, err)
	}
	if de.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("DeliveryError status = %d, want 503", de.StatusCode)
	}
	if result == nil || result.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("result = %+v, want status 503", result)
	}
}

// TestSender_UnreachableEndpoint tests that a connection failure surfaces
// as a DeliveryError with no status.
func TestSender_UnreachableEndpoint(t *testing.T) {
	cfg := testReportingConfig("http://127.0.0.1:1/traces")
	s := report.NewSender(cfg)
	defer s.Close()

	payload := report.NewPayload(cfg.GraphRef, []*trace.Trace{sampleTrace("Lost")})
	_, err := s.Send(context.Background(), payload)
	if err == nil {
		t.Fatal("expected an error for an unreachable endpoint")
	}
	var de *report.DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeliveryError, got %T: %v", err, err)
	}
	if de.StatusCode != 0 {
		t.Errorf("DeliveryError status = %d, want 0", de.StatusCode)
	}
	if !strings.Contains(de.Endpoint, "127.0.0.1:1") {
		t.Errorf("DeliveryError endpoint = %q, want the target URL", de.Endpoint)
	}
}

// TestEstimateTraceSize tests that the estimate matches the serialized
// length and grows with trace content.
func TestEstimateTraceSize(t *testing.T) {
	small := sampleTrace("s")

	b := trace.NewBuilder("a-much-longer-operation-name")
	b.Start()
	for _, f := range []string{"alpha", "beta", "gamma", "delta"} {
		b.RecordFieldStart([]interface{}{f}, "Query", f, "String").Finish()
	}
	b.Stop()
	big := b.Finalize()

	if report.EstimateTraceSize(small) <= 0 {
		t.Fatal("estimate must be positive")
	}
	if report.EstimateTraceSize(big) <= report.EstimateTraceSize(small) {
		t.Errorf("larger trace estimated at %d, smaller at %d",
			report.EstimateTraceSize(big), report.EstimateTraceSize(small))
	}
}
