package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/weaver/pkg/domain/run"
)

func sampleOutcome() *run.Outcome {
	return &run.Outcome{
		RunID:     "run-1",
		StartedAt: time.Now(),
		Connected: true,
		Succeeded: 3,
		Failed:    1,
	}
}

func TestNotifier_DeliverySuccess(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(Endpoint{URL: server.URL})
	if err := n.NotifyOutcome(context.Background(), sampleOutcome()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if received.Load() != 1 {
		t.Errorf("expected 1 delivery, got %d", received.Load())
	}
}

func TestNotifier_HMACSignature(t *testing.T) {
	secret := "test-secret"
	var receivedSig string
	var receivedBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedSig = r.Header.Get("X-Weaver-Signature")
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(Endpoint{URL: server.URL, Secret: secret})
	if err := n.NotifyOutcome(context.Background(), sampleOutcome()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if receivedSig == "" {
		t.Fatal("expected X-Weaver-Signature header")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(receivedBody)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if receivedSig != expected {
		t.Errorf("signature mismatch: got %s, want %s", receivedSig, expected)
	}
}

func TestNotifier_RetriesUntilExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewNotifier(Endpoint{
		URL:        server.URL,
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	})
	err := n.NotifyOutcome(context.Background(), sampleOutcome())
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestNotifier_NoEndpointIsNoOp(t *testing.T) {
	n := NewNotifier(Endpoint{})
	if err := n.NotifyOutcome(context.Background(), sampleOutcome()); err != nil {
		t.Errorf("expected nil error with no endpoint, got %v", err)
	}
}

func TestPayloadFormat(t *testing.T) {
	var receivedPayload Payload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &receivedPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(Endpoint{URL: server.URL})
	if err := n.NotifyOutcome(context.Background(), sampleOutcome()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if receivedPayload.EventType != "weave.completed" {
		t.Errorf("expected event_type weave.completed, got %s", receivedPayload.EventType)
	}
	if receivedPayload.Outcome == nil || receivedPayload.Outcome.RunID != "run-1" {
		t.Errorf("expected outcome run-1 in payload, got %+v", receivedPayload.Outcome)
	}
}
