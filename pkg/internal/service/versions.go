package service

import (
	"context"
	"errors"
	"io"

	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/internal/audit"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/types"
	nlog "github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/queue"
)

// CreateVersion 为文档追加新版本并推进当前版本指针.
//
// 编号策略：事务内锁定文档行后取 MAX(version_number)+1，
// (document_id, version_number) 唯一索引兜底；SQLite 等不支持行锁的
// 后端依赖唯一索引裁决，冲突时按配置次数重试.
func (s *DocumentService) CreateVersion(ctx context.Context, user, docRef string, req types.CreateVersionRequest, file io.Reader, fileName string, fileSize int64) (*types.VersionResponse, error) {
	ext, err := s.validateFile(fileName, fileSize)
	if err != nil {
		return nil, err
	}

	// 预检：文档存在且可写，避免无谓上传
	pre, err := s.findOwnedDocument(ctx, s.db.WithContext(ctx), user, docRef, false)
	if err != nil {
		return nil, err
	}

	if pre.IsDeleted {
		return nil, Conflictf("document %s is in trash", pre.ID)
	}

	objectKey := s.objectKey(pre.ID, ext)
	if _, err := s.blob.Put(ctx, objectKey, file, fileSize, contentTypeFor(ext)); err != nil {
		return nil, Wrapf(err, "upload version content")
	}

	inheritTags := req.InheritTags == nil || *req.InheritTags

	var ver *model.DocumentVersion

	retries := s.cfg.NumberingRetries
	if retries <= 0 {
		retries = 1
	}

	for attempt := range retries {
		ver, err = s.createVersionTx(ctx, user, pre.ID, req, objectKey, fileName, fileSize, ext, inheritTags)
		if err == nil {
			break
		}

		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}

		// 编号竞争：另一事务抢先占用了编号，重试重新取号
		metrics.NumberingConflicts.Inc()
		nlog.Logger().Debug().
			Str("document_id", pre.ID).
			Int("attempt", attempt+1).
			Msg("version numbering conflict, retrying")
	}

	if err != nil {
		if derr := s.blob.Delete(ctx, objectKey); derr != nil {
			nlog.Logger().Warn().Err(derr).Str("object_key", objectKey).Msg("cleanup orphan blob failed")
		}

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Conflictf("version numbering contention on document %s, retry later", pre.ID)
		}

		if KindOf(err) != KindInternal {
			return nil, err
		}

		return nil, Wrapf(err, "create version")
	}

	metrics.VersionCreated.Inc()
	s.syncBlobTags(ctx, ver.ObjectKey, ver.Tags)
	s.recorder.Record(ctx, queue.AuditPayload{
		Actor: user, Action: audit.ActionVersionCreated,
		ResourceType: audit.ResourceVersion, ResourceID: ver.ID, ResourceName: ver.Title,
		Details: map[string]any{"document_id": ver.DocumentID, "version_number": ver.VersionNumber},
	})
	s.publishVersionEvent(ctx, queue.TopicVersionCreated, ver)

	resp := s.toVersionResponse(ver, true)

	return &resp, nil
}

// createVersionTx 单次编号与落库尝试，整体在一个事务内.
func (s *DocumentService) createVersionTx(ctx context.Context, user, docID string, req types.CreateVersionRequest, objectKey, fileName string, fileSize int64, ext string, inheritTags bool) (*model.DocumentVersion, error) {
	var ver *model.DocumentVersion

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.findOwnedDocument(ctx, tx, user, docID, true)
		if err != nil {
			return err
		}

		if doc.IsDeleted {
			return Conflictf("document %s is in trash", doc.ID)
		}

		var maxNum int
		if err := tx.Model(&model.DocumentVersion{}).
			Where("document_id = ?", doc.ID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&maxNum).Error; err != nil {
			return err
		}

		// 元数据继承：未显式覆盖的字段取当前版本的值
		title, description := req.Title, req.Description

		var inherited []model.Tag

		if doc.CurrentVersionID != nil {
			var cur model.DocumentVersion
			if err := tx.Preload("Tags").First(&cur, "id = ?", *doc.CurrentVersionID).Error; err != nil {
				return err
			}

			if title == "" {
				title = cur.Title
			}

			if description == "" {
				description = cur.Description
			}

			if inheritTags {
				inherited = cur.Tags
			}
		}

		ver = &model.DocumentVersion{
			ID:                 model.NewVersionID(),
			DocumentID:         doc.ID,
			VersionNumber:      maxNum + 1,
			Title:              title,
			Description:        description,
			ObjectKey:          objectKey,
			FileName:           fileName,
			FileSize:           fileSize,
			FileType:           ext,
			ChangesDescription: req.ChangesDescription,
			Reason:             req.Reason,
			CreatedBy:          user,
		}

		if err := tx.Create(ver).Error; err != nil {
			return err
		}

		if len(inherited) > 0 {
			if err := tx.Model(ver).Association("Tags").Append(inherited); err != nil {
				return err
			}

			ver.Tags = inherited
		}

		return tx.Model(doc).Update("current_version_id", ver.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return ver, nil
}

// History 返回文档全部版本，按版本号降序.
func (s *DocumentService) History(ctx context.Context, user, docRef string) (*types.VersionHistoryResponse, error) {
	doc, err := s.findOwnedDocument(ctx, s.db.WithContext(ctx), user, docRef, false)
	if err != nil {
		return nil, err
	}

	var rows []model.DocumentVersion
	if err := s.db.WithContext(ctx).Preload("Tags").
		Where("document_id = ?", doc.ID).
		Order("version_number DESC").
		Find(&rows).Error; err != nil {
		return nil, Wrapf(err, "list versions")
	}

	versions := make([]types.VersionResponse, 0, len(rows))
	for i := range rows {
		isCurrent := doc.CurrentVersionID != nil && *doc.CurrentVersionID == rows[i].ID
		versions = append(versions, s.toVersionResponse(&rows[i], isCurrent))
	}

	return &types.VersionHistoryResponse{
		DocumentID: doc.ID,
		Total:      int64(len(versions)),
		Versions:   versions,
	}, nil
}

// GetVersion 查询单个版本.
func (s *DocumentService) GetVersion(ctx context.Context, user, docRef, versionID string) (*types.VersionResponse, error) {
	doc, ver, err := s.findOwnedVersion(ctx, s.db.WithContext(ctx), user, docRef, versionID, false)
	if err != nil {
		return nil, err
	}

	isCurrent := doc.CurrentVersionID != nil && *doc.CurrentVersionID == ver.ID
	resp := s.toVersionResponse(ver, isCurrent)

	return &resp, nil
}

// DownloadURL 生成版本内容的预签名下载地址.
func (s *DocumentService) DownloadURL(ctx context.Context, user, docRef, versionID string) (*types.DownloadURLResponse, error) {
	_, ver, err := s.findOwnedVersion(ctx, s.db.WithContext(ctx), user, docRef, versionID, false)
	if err != nil {
		return nil, err
	}

	expiry := s.cfg.PresignedExpiry()

	url, err := s.blob.GetURL(ctx, ver.ObjectKey, expiry)
	if err != nil {
		return nil, Wrapf(err, "presign download url")
	}

	return &types.DownloadURLResponse{
		ObjectKey: ver.ObjectKey,
		GetURL:    url,
		ExpiresIn: int(expiry.Seconds()),
	}, nil
}

// DownloadCurrentURL 生成当前版本内容的预签名下载地址.
func (s *DocumentService) DownloadCurrentURL(ctx context.Context, user, docRef string) (*types.DownloadURLResponse, error) {
	doc, err := s.findOwnedDocument(ctx, s.db.WithContext(ctx), user, docRef, false)
	if err != nil {
		return nil, err
	}

	if doc.CurrentVersionID == nil {
		return nil, NotFoundf("document has no current version")
	}

	return s.DownloadURL(ctx, user, docRef, *doc.CurrentVersionID)
}

// DeleteVersion 删除历史版本.
// 两条硬性限制：不允许删除当前版本，不允许删除文档仅剩的版本.
func (s *DocumentService) DeleteVersion(ctx context.Context, user, docRef, versionID string) error {
	var ver *model.DocumentVersion

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, v, err := s.findOwnedVersion(ctx, tx, user, docRef, versionID, true)
		if err != nil {
			return err
		}

		if doc.IsDeleted {
			return Conflictf("document %s is in trash", doc.ID)
		}

		if doc.CurrentVersionID != nil && *doc.CurrentVersionID == v.ID {
			return Conflictf("cannot delete the current version, roll back first")
		}

		var count int64
		if err := tx.Model(&model.DocumentVersion{}).
			Where("document_id = ?", doc.ID).Count(&count).Error; err != nil {
			return err
		}

		if count <= 1 {
			return Conflictf("cannot delete the only version of document %s", doc.ID)
		}

		if err := tx.Model(v).Association("Tags").Clear(); err != nil {
			return err
		}

		if err := tx.Delete(v).Error; err != nil {
			return err
		}

		ver = v

		return nil
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return err
		}

		return Wrapf(err, "delete version")
	}

	// 内容删除放在事务提交后，失败不回滚元数据
	if err := s.blob.Delete(ctx, ver.ObjectKey); err != nil {
		nlog.Logger().Warn().Err(err).Str("object_key", ver.ObjectKey).Msg("delete version blob failed")
	}

	s.recorder.Record(ctx, queue.AuditPayload{
		Actor: user, Action: audit.ActionVersionDeleted,
		ResourceType: audit.ResourceVersion, ResourceID: ver.ID, ResourceName: ver.Title,
		Details: map[string]any{"document_id": ver.DocumentID, "version_number": ver.VersionNumber},
	})
	s.publishVersionEvent(ctx, queue.TopicVersionDeleted, ver)

	return nil
}

// findOwnedVersion 定位版本并校验其归属于指定文档.
// forUpdate 为 true 时连带锁定文档行，防止指针在校验与删除之间被并发移动.
func (s *DocumentService) findOwnedVersion(ctx context.Context, tx *gorm.DB, user, docRef, versionID string, forUpdate bool) (*model.Document, *model.DocumentVersion, error) {
	doc, err := s.findOwnedDocument(ctx, tx, user, docRef, forUpdate)
	if err != nil {
		return nil, nil, err
	}

	var ver model.DocumentVersion
	err = tx.WithContext(ctx).Preload("Tags").First(&ver, "id = ?", versionID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, NotFoundf("version %s not found", versionID)
	}

	if err != nil {
		return nil, nil, Wrapf(err, "query version")
	}

	if !ver.BelongsTo(doc.ID) {
		return nil, nil, NotFoundf("version %s does not belong to document %s", versionID, doc.ID)
	}

	return doc, &ver, nil
}

// toVersionResponse 组装版本响应.
func (s *DocumentService) toVersionResponse(ver *model.DocumentVersion, isCurrent bool) types.VersionResponse {
	return types.VersionResponse{
		ID:                 ver.ID,
		DocumentID:         ver.DocumentID,
		VersionNumber:      ver.VersionNumber,
		Title:              ver.Title,
		Description:        ver.Description,
		FileName:           ver.FileName,
		FileSize:           ver.FileSize,
		FileType:           ver.FileType,
		ChangesDescription: ver.ChangesDescription,
		Reason:             ver.Reason,
		IsCurrent:          isCurrent,
		Tags:               toTagResponses(ver.Tags),
		CreatedBy:          ver.CreatedBy,
		CreatedAt:          ver.CreatedAt,
	}
}
