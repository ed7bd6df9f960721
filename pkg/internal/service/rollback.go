package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/internal/audit"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/queue"
)

// Rollback 将当前版本指针移回指定历史版本.
//
// 纯指针移动：不复制版本、不产生新版本号，历史保持原样，
// 再次回滚或前滚都只是移动指针. 目标版本必须属于本文档.
func (s *DocumentService) Rollback(ctx context.Context, user, docRef string, req types.RollbackRequest) (*types.RollbackResponse, error) {
	if req.TargetVersionID == "" {
		return nil, Invalidf("target_version_id is required")
	}

	var (
		doc    *model.Document
		target *model.DocumentVersion
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		doc, err = s.findOwnedDocument(ctx, tx, user, docRef, true)
		if err != nil {
			return err
		}

		if doc.IsDeleted {
			return Conflictf("document %s is in trash", doc.ID)
		}

		_, target, err = s.findOwnedVersion(ctx, tx, user, doc.ID, req.TargetVersionID, false)
		if err != nil {
			return err
		}

		// 目标已是当前版本时仍走完整流程，回滚是幂等操作
		if err := tx.Model(doc).Update("current_version_id", target.ID).Error; err != nil {
			return err
		}

		// 文档标签镜像回目标版本的标签集合
		if err := tx.Model(doc).Association("Tags").Replace(target.Tags); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return nil, err
		}

		return nil, Wrapf(err, "rollback document")
	}

	metrics.Rollbacks.Inc()
	s.syncBlobTags(ctx, target.ObjectKey, target.Tags)
	s.recorder.Record(ctx, queue.AuditPayload{
		Actor: user, Action: audit.ActionRollback,
		ResourceType: audit.ResourceDocument, ResourceID: doc.ID, ResourceName: doc.Title,
		Details: map[string]any{
			"target_version_id":        target.ID,
			"resulting_version_number": target.VersionNumber,
			"reason":                   req.Reason,
		},
	})
	s.publishVersionEvent(ctx, queue.TopicDocumentRolledBack, target)

	return &types.RollbackResponse{
		DocumentID:             doc.ID,
		TargetVersionID:        target.ID,
		ResultingVersionNumber: target.VersionNumber,
	}, nil
}
