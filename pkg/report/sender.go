package report

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/saturn/pkg/config"
)

// Sender delivers serialized reports to the remote ingestion endpoint.
// It performs a single delivery attempt per report and never retries:
// stale traces have diminishing telemetry value, so a failed batch is
// dropped by the caller.
type Sender struct {
	cfg    *config.ReportingConfig
	client *http.Client
	logger *slog.Logger
}

// SendResult describes the outcome of a delivery attempt.
type SendResult struct {
	// StatusCode is the ingestion endpoint's HTTP status.
	StatusCode int

	// Traces is the number of traces in the delivered report.
	Traces int

	// CompressedBytes is the size of the gzip body that went on the wire.
	CompressedBytes int

	// Duration is the round-trip time of the attempt.
	Duration time.Duration
}

// NewSender creates a sender with a pooled HTTP client.
func NewSender(cfg *config.ReportingConfig) *Sender {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Sender{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.SendTimeout,
		},
		logger: slog.Default().With("component", "report.sender"),
	}
}

// Send serializes the report as gzip-compressed JSON and posts it to the
// ingestion endpoint with the graph identity and API key headers. The
// response status is surfaced in the result; non-2xx statuses are returned
// as a DeliveryError.
func (s *Sender) Send(ctx context.Context, p *Payload) (*SendResult, error) {
	start := time.Now()

	body, err := s.encode(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report %s: %w", p.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("User-Agent", "mercator-saturn/"+agentVersion)
	req.Header.Set("X-Api-Key", s.cfg.APIKey)
	req.Header.Set("X-Graph-Ref", s.cfg.GraphRef)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, NewDeliveryError(s.cfg.EndpointURL, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	// Surface a short body excerpt for diagnostics; the response is not
	// otherwise interpreted.
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	result := &SendResult{
		StatusCode:      resp.StatusCode,
		Traces:          len(p.Traces),
		CompressedBytes: len(body),
		Duration:        time.Since(start),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, NewDeliveryError(s.cfg.EndpointURL, resp.StatusCode, string(excerpt), nil)
	}

	s.logger.Debug("report delivered",
		"report_id", p.ID,
		"traces", result.Traces,
		"compressed_bytes", result.CompressedBytes,
		"status", result.StatusCode,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// encode serializes the payload to gzip-compressed JSON. The size
// threshold in the scheduler applies to the uncompressed form.
func (s *Sender) encode(p *Payload) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	if err := json.NewEncoder(gz).Encode(p); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases idle connections.
func (s *Sender) Close() {
	s.client.CloseIdleConnections()
}
