package queue

import "time"

// EventHeader 事件头，随消息一同序列化，便于离线追踪.
type EventHeader struct {
	Topic      string    `json:"topic"`
	TraceID    string    `json:"trace_id,omitempty"`
	Producer   string    `json:"producer,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    string    `json:"version,omitempty"`
}

// Message 统一的消息信封：Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// AuditPayload 审计事件负载，对应引擎的一次状态变更.
type AuditPayload struct {
	Actor        string         `json:"actor"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	ResourceName string         `json:"resource_name,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// DocumentPayload 文档域事件负载.
type DocumentPayload struct {
	DocumentID string `json:"document_id"`
	ShortID    string `json:"short_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Owner      string `json:"owner,omitempty"`
}

// VersionPayload 版本域事件负载.
type VersionPayload struct {
	DocumentID    string `json:"document_id"`
	VersionID     string `json:"version_id"`
	VersionNumber int    `json:"version_number"`
	ObjectKey     string `json:"object_key,omitempty"`
}
