package report

import (
	"encoding/json"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"

	"mercator-hq/saturn/pkg/trace"
)

// agentVersion identifies the agent in report headers and the User-Agent
// header. It is kept in sync with the release version in cmd/saturn.
const agentVersion = "0.1.0"

// Header carries graph identity and runtime metadata, captured once per
// report.
type Header struct {
	// GraphRef identifies the graph the traces belong to.
	GraphRef string `json:"graph_ref"`

	// Hostname is the reporting host.
	Hostname string `json:"hostname"`

	// AgentVersion is the Saturn agent version.
	AgentVersion string `json:"agent_version"`

	// RuntimeVersion is the Go runtime version.
	RuntimeVersion string `json:"runtime_version"`

	// OS and Arch describe the reporting platform.
	OS   string `json:"os"`
	Arch string `json:"arch"`

	// GeneratedAt is when the report was closed for delivery.
	GeneratedAt time.Time `json:"generated_at"`
}

// Payload is the outbound report: header metadata plus finalized traces in
// completion order.
type Payload struct {
	// ID is a UUID v4 assigned when the report is closed.
	ID string `json:"id"`

	// Header is the report's graph and runtime metadata.
	Header Header `json:"header"`

	// Traces are the finalized traces, insertion order = completion order.
	Traces []*trace.Trace `json:"traces"`
}

// NewPayload closes a batch of traces into a deliverable report.
func NewPayload(graphRef string, traces []*trace.Trace) *Payload {
	hostname, _ := os.Hostname()
	return &Payload{
		ID: uuid.New().String(),
		Header: Header{
			GraphRef:       graphRef,
			Hostname:       hostname,
			AgentVersion:   agentVersion,
			RuntimeVersion: runtime.Version(),
			OS:             runtime.GOOS,
			Arch:           runtime.GOARCH,
			GeneratedAt:    time.Now().UTC(),
		},
		Traces: traces,
	}
}

// estimateTraceSize approximates one trace's uncompressed serialized size.
// The first trace's estimate is used as a per-trace proxy for the whole
// report cycle, a deliberate precision/cost trade-off that keeps appends
// O(1).
func estimateTraceSize(t *trace.Trace) int {
	data, err := json.Marshal(t)
	if err != nil {
		// A trace that fails to marshal still occupies the batch; fall
		// back to a conservative guess.
		return 1024
	}
	return len(data)
}
