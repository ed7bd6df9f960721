// Package audit 记录引擎变更的审计事件.
// 审计是 fire-and-forget：记录失败只打日志，绝不影响主操作结果.
package audit

import (
	"context"

	"github.com/yeisme/docvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/queue"
)

// 审计动作常量.
const (
	ActionDocumentCreated  = "document_created"
	ActionDocumentUpdated  = "document_updated"
	ActionDocumentDeleted  = "document_deleted"
	ActionDocumentRestored = "document_restored"
	ActionDocumentPurged   = "document_purged"
	ActionVersionCreated   = "version_created"
	ActionVersionDeleted   = "version_deleted"
	ActionRollback         = "document_rolled_back"
	ActionTagsAttached     = "tags_attached"
)

// 资源类型常量.
const (
	ResourceDocument = "document"
	ResourceVersion  = "version"
)

// Recorder 审计记录器，落结构化日志并向消息总线发布事件.
type Recorder struct {
	mqClient *mq.Client
}

// NewRecorder 创建审计记录器，mqClient 可为 nil（仅日志）.
func NewRecorder(mqClient *mq.Client) *Recorder {
	return &Recorder{mqClient: mqClient}
}

// Record 记录一条审计事件.
func (r *Recorder) Record(ctx context.Context, p queue.AuditPayload) {
	nlog.Logger().Info().
		Str("actor", p.Actor).
		Str("action", p.Action).
		Str("resource_type", p.ResourceType).
		Str("resource_id", p.ResourceID).
		Str("resource_name", p.ResourceName).
		Interface("details", p.Details).
		Msg("audit event")

	if r.mqClient == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicAuditRecorded, p, queue.WithProducer("docvault"))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("action", p.Action).Msg("encode audit event failed")

		return
	}

	if err := r.mqClient.Publish(ctx, queue.TopicAuditRecorded, msg); err != nil {
		nlog.Logger().Warn().Err(err).Str("action", p.Action).Msg("publish audit event failed")
	}
}
