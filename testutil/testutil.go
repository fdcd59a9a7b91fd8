package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"pollhub/utils"
)

// TestSecret signs tokens in tests
const TestSecret = "test-secret-key-for-pollhub"

// TestSalt salts fingerprints in tests
const TestSalt = "test-salt"

// NewTokenService returns a token service using TestSecret.
func NewTokenService(t *testing.T) *utils.TokenService {
	t.Helper()
	ts, err := utils.NewTokenService(TestSecret)
	if err != nil {
		t.Fatalf("Failed to create token service: %v", err)
	}
	return ts
}

// Event is one recorded Publish call
type Event struct {
	DebateID string
	Type     string
	Payload  interface{}
}

// RecordingPublisher remembers every event it is asked to publish
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *RecordingPublisher) Publish(_ context.Context, debateID, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Event{DebateID: debateID, Type: eventType, Payload: payload})
	return nil
}

// Events returns a copy of the recorded events.
func (p *RecordingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// MakeRequest performs an HTTP request against handler. body is encoded as
// JSON unless it is nil.
func MakeRequest(t *testing.T, handler http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeJSON decodes a recorded response body into v.
func DecodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v (body: %s)", err, rr.Body.String())
	}
}
