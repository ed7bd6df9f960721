package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/internal/audit"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/types"
	nlog "github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/queue"
)

// SoftDelete 将文档移入回收站，版本与内容全部保留.
func (s *DocumentService) SoftDelete(ctx context.Context, user, docRef string) error {
	var doc *model.Document

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		doc, err = s.findOwnedDocument(ctx, tx, user, docRef, true)
		if err != nil {
			return err
		}

		if err := doc.SoftDelete(user, s.now()); err != nil {
			return Conflictf("document %s is already in trash", doc.ID)
		}

		return tx.Model(doc).Select("is_deleted", "deleted_at", "deleted_by").
			Updates(map[string]any{
				"is_deleted": doc.IsDeleted,
				"deleted_at": doc.DeletedAt,
				"deleted_by": doc.DeletedBy,
			}).Error
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return err
		}

		return Wrapf(err, "soft delete document")
	}

	s.recorder.Record(ctx, queue.AuditPayload{
		Actor: user, Action: audit.ActionDocumentDeleted,
		ResourceType: audit.ResourceDocument, ResourceID: doc.ID, ResourceName: doc.Title,
	})
	s.publishDocumentEvent(ctx, queue.TopicDocumentDeleted, doc)

	return nil
}

// Restore 从回收站恢复文档，清空全部软删除字段.
func (s *DocumentService) Restore(ctx context.Context, user, docRef string) error {
	var doc *model.Document

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		doc, err = s.findOwnedDocument(ctx, tx, user, docRef, true)
		if err != nil {
			return err
		}

		if err := doc.Restore(); err != nil {
			return Conflictf("document %s is not in trash", doc.ID)
		}

		return tx.Model(doc).Select("is_deleted", "deleted_at", "deleted_by").
			Updates(map[string]any{
				"is_deleted": false,
				"deleted_at": nil,
				"deleted_by": "",
			}).Error
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return err
		}

		return Wrapf(err, "restore document")
	}

	s.recorder.Record(ctx, queue.AuditPayload{
		Actor: user, Action: audit.ActionDocumentRestored,
		ResourceType: audit.ResourceDocument, ResourceID: doc.ID, ResourceName: doc.Title,
	})
	s.publishDocumentEvent(ctx, queue.TopicDocumentRestored, doc)

	return nil
}

// ListTrash 列出用户回收站中的文档，含距永久删除的剩余天数.
func (s *DocumentService) ListTrash(ctx context.Context, user string, page, size int) (*types.ListTrashResponse, error) {
	if user == "" {
		return nil, Invalidf("user is required")
	}

	page, size = normalizePage(page, size)

	dbx := s.db.WithContext(ctx).Model(&model.Document{}).
		Where("owner = ? AND is_deleted = ?", user, true)

	var total int64
	if err := dbx.Count(&total).Error; err != nil {
		return nil, Wrapf(err, "count trash")
	}

	var rows []model.Document
	if err := dbx.Order("deleted_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&rows).Error; err != nil {
		return nil, Wrapf(err, "list trash")
	}

	grace := s.cfg.GracePeriod()
	now := s.now()

	items := make([]types.TrashItem, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		items = append(items, types.TrashItem{
			DocumentID:     r.ID,
			ShortID:        r.ShortID,
			Title:          r.Title,
			DeletedAt:      *r.DeletedAt,
			DeletedBy:      r.DeletedBy,
			DaysUntilPurge: r.DaysUntilPurge(grace, now),
		})
	}

	return &types.ListTrashResponse{Total: total, Items: items}, nil
}

// Purge 永久删除文档：记录、全部版本、对象存储内容以及孤儿标签.
// 只能清除回收站内的文档；操作不可逆.
func (s *DocumentService) Purge(ctx context.Context, user, docRef string) (*types.PurgeResponse, error) {
	doc, resp, objectKeys, err := s.purgeTx(ctx, user, docRef)
	if err != nil {
		return nil, err
	}

	// 对象存储删除放在事务提交后，失败只记日志（元数据已不可达）
	for _, key := range objectKeys {
		if err := s.blob.Delete(ctx, key); err != nil {
			nlog.Logger().Warn().Err(err).Str("object_key", key).Msg("delete blob during purge failed")

			continue
		}

		resp.BlobsRemoved++
	}

	metrics.DocumentsPurged.Inc()
	s.recorder.Record(ctx, queue.AuditPayload{
		Actor: user, Action: audit.ActionDocumentPurged,
		ResourceType: audit.ResourceDocument, ResourceID: doc.ID, ResourceName: doc.Title,
		Details: map[string]any{"versions_removed": resp.VersionsRemoved},
	})
	s.publishDocumentEvent(ctx, queue.TopicDocumentPurged, doc)

	return resp, nil
}

// purgeTx 事务内删除文档记录、版本与关联，返回待删的对象键列表.
func (s *DocumentService) purgeTx(ctx context.Context, user, docRef string) (*model.Document, *types.PurgeResponse, []string, error) {
	var (
		doc        *model.Document
		resp       types.PurgeResponse
		objectKeys []string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		doc, err = s.findOwnedDocument(ctx, tx, user, docRef, true)
		if err != nil {
			return err
		}

		if !doc.IsDeleted {
			return Conflictf("document %s is not in trash, delete it first", doc.ID)
		}

		var versions []model.DocumentVersion
		if err := tx.Where("document_id = ?", doc.ID).Find(&versions).Error; err != nil {
			return err
		}

		for i := range versions {
			objectKeys = append(objectKeys, versions[i].ObjectKey)

			if err := tx.Model(&versions[i]).Association("Tags").Clear(); err != nil {
				return err
			}
		}

		// 指针先置空，避免删除版本时违反外键
		if err := tx.Model(doc).Update("current_version_id", nil).Error; err != nil {
			return err
		}

		res := tx.Where("document_id = ?", doc.ID).Delete(&model.DocumentVersion{})
		if res.Error != nil {
			return res.Error
		}

		resp.VersionsRemoved = res.RowsAffected

		if err := tx.Model(doc).Association("Tags").Clear(); err != nil {
			return err
		}

		if err := tx.Delete(doc).Error; err != nil {
			return err
		}

		removed, err := cleanOrphanTags(tx, doc.Owner)
		if err != nil {
			return err
		}

		resp.TagsRemoved = removed
		resp.DocumentID = doc.ID

		return nil
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return nil, nil, nil, err
		}

		return nil, nil, nil, Wrapf(err, "purge document")
	}

	return doc, &resp, objectKeys, nil
}

// ReapExpired 清扫超过宽限期的回收站文档，定时任务与 cleanup 子命令共用.
// before 之前删除的文档会被永久删除；dryRun 只统计不删除.
func (s *DocumentService) ReapExpired(ctx context.Context, before time.Time, dryRun bool) (*types.ReapResult, error) {
	if before.IsZero() {
		return nil, Invalidf("cutoff time is required")
	}

	var expired []model.Document
	if err := s.db.WithContext(ctx).
		Where("is_deleted = ? AND deleted_at < ?", true, before).
		Find(&expired).Error; err != nil {
		return nil, Wrapf(err, "scan expired documents")
	}

	result := &types.ReapResult{Scanned: int64(len(expired)), DryRun: dryRun}

	if dryRun {
		for i := range expired {
			nlog.Logger().Info().
				Str("document_id", expired[i].ID).
				Str("title", expired[i].Title).
				Time("deleted_at", *expired[i].DeletedAt).
				Msg("dry-run: would purge")
		}

		return result, nil
	}

	for i := range expired {
		d := &expired[i]
		// 以 owner 身份逐个清除，单个失败不阻断整轮清扫
		if _, err := s.Purge(ctx, d.Owner, d.ID); err != nil {
			if errors.Is(err, context.Canceled) {
				return result, err
			}

			result.Failed = append(result.Failed, d.ID)
			nlog.Logger().Error().Err(err).Str("document_id", d.ID).Msg("reaper purge failed")

			continue
		}

		result.Purged++
	}

	nlog.Logger().Info().
		Int64("scanned", result.Scanned).
		Int64("purged", result.Purged).
		Int("failed", len(result.Failed)).
		Msg("trash reaper finished")

	return result, nil
}
