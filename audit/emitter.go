// Package audit builds and ships the structured trace/generation event pair
// for each exchange. Delivery is strictly best-effort: failures are reported
// to the monitor and never to the orchestrator.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/modgate/domain"
)

const ingestionPath = "/api/public/ingestion"

// Envelope wraps one ingestion event.
type Envelope struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Body      interface{} `json:"body"`
}

// TraceBody is the body of a trace-create event.
type TraceBody struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	UserID    string            `json:"userId"`
	Timestamp string            `json:"timestamp"`
	Tags      []string          `json:"tags"`
	Input     map[string]string `json:"input"`
	Output    map[string]string `json:"output"`
}

// GenerationBody is the body of a generation-create event.
type GenerationBody struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Model     string `json:"model"`
	Input     string `json:"input"`
	Output    string `json:"output"`
}

// Batch is the ingestion payload: exactly two envelopes per exchange.
type Batch struct {
	Batch []Envelope `json:"batch"`
}

type ingestionResponse struct {
	Errors []json.RawMessage `json:"errors"`
}

// Emitter posts audit batches to the ingestion endpoint with basic auth.
type Emitter struct {
	host       string
	publicKey  string
	secretKey  string
	traceName  string
	httpClient *http.Client
	now        func() time.Time
}

// NewEmitter creates an Emitter for the given ingestion host and credential
// pair.
func NewEmitter(host, publicKey, secretKey, traceName string) *Emitter {
	return &Emitter{
		host:       strings.TrimSuffix(host, "/"),
		publicKey:  publicKey,
		secretKey:  secretKey,
		traceName:  traceName,
		httpClient: &http.Client{},
		now:        time.Now,
	}
}

// BuildBatch assembles the trace-create and generation-create pair for one
// exchange. Fresh uuid identifiers per call; timestamps are UTC ISO-8601.
func (e *Emitter) BuildBatch(ex domain.Exchange) Batch {
	now := e.now().UTC().Format(time.RFC3339Nano)

	traceID := "trace-" + uuid.NewString()
	generationID := "gen-" + uuid.NewString()

	return Batch{
		Batch: []Envelope{
			{
				ID:        "evt-" + uuid.NewString(),
				Type:      "trace-create",
				Timestamp: now,
				Body: TraceBody{
					ID:        traceID,
					Name:      e.traceName,
					UserID:    ex.UserID,
					Timestamp: now,
					Tags:      ex.Tags,
					Input:     map[string]string{"text": ex.Input},
					Output:    map[string]string{"text": ex.Output},
				},
			},
			{
				ID:        "evt-" + uuid.NewString(),
				Type:      "generation-create",
				Timestamp: now,
				Body: GenerationBody{
					ID:        generationID,
					Name:      ex.Model,
					StartTime: now,
					EndTime:   now,
					Model:     ex.Model,
					Input:     ex.Input,
					Output:    ex.Output,
				},
			},
		},
	}
}

// Emit ships the batch for one exchange. Success is status 200/201/207 with
// an empty server-reported error list; anything else is an error for the
// dispatcher to swallow and report.
func (e *Emitter) Emit(ctx context.Context, ex domain.Exchange) error {
	body, err := json.Marshal(e.BuildBatch(ex))
	if err != nil {
		return fmt.Errorf("%w: marshal batch: %v", domain.ErrAuditDeliveryFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+ingestionPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", domain.ErrAuditDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(e.publicKey, e.secretKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuditDeliveryFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrAuditDeliveryFailed, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusMultiStatus:
	default:
		return fmt.Errorf("%w: HTTP %d", domain.ErrAuditDeliveryFailed, resp.StatusCode)
	}

	var parsed ingestionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("%w: unmarshal response: %v", domain.ErrAuditDeliveryFailed, err)
	}
	if len(parsed.Errors) > 0 {
		return fmt.Errorf("%w: server reported %d errors", domain.ErrAuditDeliveryFailed, len(parsed.Errors))
	}
	return nil
}
