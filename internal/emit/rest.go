package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RESTSink posts each proposal to a catalog ingestion endpoint.
type RESTSink struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewRESTSink creates a sink posting to endpoint. The token, when set,
// is sent as a bearer credential.
func NewRESTSink(endpoint, token string) *RESTSink {
	return &RESTSink{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Emit implements Sink.
func (s *RESTSink) Emit(ctx context.Context, p Proposal) error {
	body, err := json.Marshal(struct {
		Proposal Proposal `json:"proposal"`
	}{Proposal: p})
	if err != nil {
		return fmt.Errorf("failed to encode proposal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post proposal for %s: %w", p.EntityURN, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("catalog rejected proposal for %s: %s", p.EntityURN, resp.Status)
	}
	return nil
}

// Close implements Sink.
func (s *RESTSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
