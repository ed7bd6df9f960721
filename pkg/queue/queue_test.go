package queue

import (
	"testing"
	"time"
)

func TestWatermillMessageRoundTrip(t *testing.T) {
	payload := AuditPayload{
		Actor:        "alice@example.com",
		Action:       "document.rollback",
		ResourceType: "document",
		ResourceID:   "doc-1",
		Details:      map[string]any{"target_version_id": "ver-3"},
	}

	msg, err := NewWatermillMessage(TopicAuditRecorded, payload,
		WithProducer("docvault"), WithTraceID("trace-42"))
	if err != nil {
		t.Fatalf("NewWatermillMessage failed: %v", err)
	}

	if msg.UUID == "" {
		t.Error("expected non-empty message UUID")
	}

	if got := msg.Metadata.Get("topic"); got != TopicAuditRecorded {
		t.Errorf("topic metadata = %q, want %q", got, TopicAuditRecorded)
	}

	if got := msg.Metadata.Get("producer"); got != "docvault" {
		t.Errorf("producer metadata = %q, want docvault", got)
	}

	decoded, err := ParseWatermillMessage[AuditPayload](msg)
	if err != nil {
		t.Fatalf("ParseWatermillMessage failed: %v", err)
	}

	if decoded.Header.Topic != TopicAuditRecorded {
		t.Errorf("header topic = %q, want %q", decoded.Header.Topic, TopicAuditRecorded)
	}

	if decoded.Header.Version != PayloadVersionV1 {
		t.Errorf("header version = %q, want %q", decoded.Header.Version, PayloadVersionV1)
	}

	if decoded.Header.OccurredAt.IsZero() || decoded.Header.OccurredAt.Location() != time.UTC {
		t.Errorf("occurred_at should be a non-zero UTC time, got %v", decoded.Header.OccurredAt)
	}

	if decoded.Payload.Actor != payload.Actor || decoded.Payload.Action != payload.Action {
		t.Errorf("payload mismatch: got %+v", decoded.Payload)
	}

	if v, ok := decoded.Payload.Details["target_version_id"]; !ok || v != "ver-3" {
		t.Errorf("details lost in round trip: %+v", decoded.Payload.Details)
	}
}
