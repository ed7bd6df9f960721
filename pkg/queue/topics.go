package queue

// 主题命名规范：dv.<域>.<动作>，尽量稳定且向后兼容.
// 域：document(文档)、version(版本)、tag(标签)、audit(审计)
// 动作：created/updated/deleted/rolled_back/restored/purged 等

const (
	// 审计域：每次引擎变更都会发布一条审计事件.
	TopicAuditRecorded = "dv.audit.recorded"

	// 文档域.
	TopicDocumentCreated  = "dv.document.created"
	TopicDocumentDeleted  = "dv.document.deleted"  // 软删除进入回收站
	TopicDocumentRestored = "dv.document.restored" // 从回收站恢复
	TopicDocumentPurged   = "dv.document.purged"   // 永久删除（含清扫器触发）

	// 版本域.
	TopicVersionCreated     = "dv.version.created"
	TopicVersionDeleted     = "dv.version.deleted"
	TopicDocumentRolledBack = "dv.document.rolled_back"
)
