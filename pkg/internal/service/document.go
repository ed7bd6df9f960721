// Package service 实现文档版本管理引擎的核心业务逻辑.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/docvault/pkg/configs"
	ctxPkg "github.com/yeisme/docvault/pkg/context"
	"github.com/yeisme/docvault/pkg/internal/audit"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/storage/mq"
	"github.com/yeisme/docvault/pkg/internal/types"
	nlog "github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/queue"
)

// BlobStore 对象存储抽象，生产环境由 s3.Client 实现.
type BlobStore interface {
	Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) (string, error)
	GetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, objectKey string) error
	SetTags(ctx context.Context, objectKey string, tagSet map[string]string) error
}

// DocumentService 文档引擎服务.
type DocumentService struct {
	db       *gorm.DB
	blob     BlobStore
	mqClient *mq.Client
	recorder *audit.Recorder
	cfg      configs.VersioningConfig
	now      func() time.Time
}

// NewDocumentService 从请求上下文取出存储客户端构造服务.
func NewDocumentService(c context.Context) *DocumentService {
	dbc := ctxPkg.GetDBClient(c)
	s3c := ctxPkg.GetS3Client(c)
	mqc := ctxPkg.GetMQClient(c)

	return newDocumentService(dbc.GetDB(), s3c, mqc, configs.GetConfig().Versioning)
}

// newDocumentService 测试可直接注入 gorm DB 与 BlobStore stub.
func newDocumentService(gdb *gorm.DB, blob BlobStore, mqc *mq.Client, cfg configs.VersioningConfig) *DocumentService {
	return &DocumentService{
		db:       gdb,
		blob:     blob,
		mqClient: mqc,
		recorder: audit.NewRecorder(mqc),
		cfg:      cfg,
		now:      time.Now,
	}
}

// CreateDocument 创建文档. 携带文件时在同一事务内写入版本 1 并设置
// 当前版本指针；file 为 nil 时创建空文档，指针留空直到首个版本上传.
func (s *DocumentService) CreateDocument(ctx context.Context, user string, req types.CreateDocumentRequest, file io.Reader, fileName string, fileSize int64) (*types.DocumentResponse, error) {
	if user == "" {
		return nil, Invalidf("user is required")
	}

	status := model.StatusDraft
	if req.Status != "" {
		status = model.DocumentStatus(req.Status)
	}

	now := s.now().UTC()
	doc := &model.Document{
		ID:          model.NewDocumentID(),
		ShortID:     model.NewShortID(now),
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Owner:       user,
	}

	var ver *model.DocumentVersion

	if file != nil {
		ext, err := s.validateFile(fileName, fileSize)
		if err != nil {
			return nil, err
		}

		ver = &model.DocumentVersion{
			ID:            model.NewVersionID(),
			DocumentID:    doc.ID,
			VersionNumber: 1,
			Title:         req.Title,
			Description:   req.Description,
			ObjectKey:     s.objectKey(doc.ID, ext),
			FileName:      fileName,
			FileSize:      fileSize,
			FileType:      ext,
			Reason:        req.Reason,
			CreatedBy:     user,
		}

		// 内容先落对象存储，失败则整个创建失败
		if _, err := s.blob.Put(ctx, ver.ObjectKey, file, fileSize, contentTypeFor(ext)); err != nil {
			return nil, Wrapf(err, "upload document content")
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return Conflictf("document titled %q already exists", req.Title)
			}

			return err
		}

		if ver == nil {
			return nil
		}

		if err := tx.Create(ver).Error; err != nil {
			return err
		}

		return tx.Model(doc).Update("current_version_id", ver.ID).Error
	})
	if err != nil {
		// 回收已上传的对象，尽力而为
		if ver != nil {
			if derr := s.blob.Delete(ctx, ver.ObjectKey); derr != nil {
				nlog.Logger().Warn().Err(derr).Str("object_key", ver.ObjectKey).Msg("cleanup orphan blob failed")
			}
		}

		if KindOf(err) != KindInternal {
			return nil, err
		}

		return nil, Wrapf(err, "create document")
	}

	details := map[string]any{"short_id": doc.ShortID}

	var versionCount int64

	if ver != nil {
		doc.CurrentVersionID = &ver.ID
		doc.CurrentVersion = ver
		details["version_id"] = ver.ID
		versionCount = 1
	}

	s.recorder.Record(ctx, queue.AuditPayload{
		Actor: user, Action: audit.ActionDocumentCreated,
		ResourceType: audit.ResourceDocument, ResourceID: doc.ID, ResourceName: doc.Title,
		Details: details,
	})
	s.publishDocumentEvent(ctx, queue.TopicDocumentCreated, doc)

	resp := s.toDocumentResponse(doc, versionCount)

	return &resp, nil
}

// GetDocument 按 ID 或 short_id 查询文档详情.
func (s *DocumentService) GetDocument(ctx context.Context, user, docRef string) (*types.DocumentResponse, error) {
	doc, err := s.findOwnedDocument(ctx, s.db.WithContext(ctx), user, docRef, false)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.DocumentVersion{}).
		Where("document_id = ?", doc.ID).Count(&count).Error; err != nil {
		return nil, Wrapf(err, "count versions")
	}

	resp := s.toDocumentResponse(doc, count)

	return &resp, nil
}

// ListDocuments 列出用户文档，scope 控制是否包含回收站内容.
func (s *DocumentService) ListDocuments(ctx context.Context, user string, req types.ListDocumentsRequest) (*types.ListDocumentsResponse, error) {
	if user == "" {
		return nil, Invalidf("user is required")
	}

	page, size := normalizePage(req.Page, req.PageSize)

	dbx := s.db.WithContext(ctx).Model(&model.Document{}).Where("owner = ?", user)

	switch req.Scope {
	case "", "active":
		dbx = dbx.Where("is_deleted = ?", false)
	case "deleted":
		dbx = dbx.Where("is_deleted = ?", true)
	case "all":
	default:
		return nil, Invalidf("unknown scope %q", req.Scope)
	}

	if req.Status != "" {
		dbx = dbx.Where("status = ?", req.Status)
	}

	if req.TagKey != "" {
		sub := s.db.Table("document_tags").
			Select("document_tags.document_id").
			Joins("JOIN tags ON tags.id = document_tags.tag_id").
			Where("tags.tag_key = ?", req.TagKey)
		if req.TagValue != "" {
			sub = sub.Where("tags.tag_value = ?", req.TagValue)
		}

		dbx = dbx.Where("id IN (?)", sub)
	}

	var total int64
	if err := dbx.Count(&total).Error; err != nil {
		return nil, Wrapf(err, "count documents")
	}

	var rows []model.Document
	if err := dbx.Preload("Tags").Preload("CurrentVersion").
		Order("updated_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&rows).Error; err != nil {
		return nil, Wrapf(err, "list documents")
	}

	items := make([]types.DocumentResponse, 0, len(rows))
	for i := range rows {
		items = append(items, s.toDocumentResponse(&rows[i], 0))
	}

	return &types.ListDocumentsResponse{Total: total, Items: items}, nil
}

// UpdateDocument 更新文档层元数据，不产生新版本.
func (s *DocumentService) UpdateDocument(ctx context.Context, user, docRef string, req types.UpdateDocumentRequest) (*types.DocumentResponse, error) {
	var doc *model.Document

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		doc, err = s.findOwnedDocument(ctx, tx, user, docRef, true)
		if err != nil {
			return err
		}

		if doc.IsDeleted {
			return Conflictf("document %s is in trash", doc.ID)
		}

		updates := map[string]any{}
		if req.Title != nil {
			updates["title"] = *req.Title
		}

		if req.Description != nil {
			updates["description"] = *req.Description
		}

		if req.Status != nil {
			updates["status"] = *req.Status
		}

		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(doc).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return Conflictf("document titled %q already exists", *req.Title)
			}

			return err
		}

		return nil
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return nil, err
		}

		return nil, Wrapf(err, "update document")
	}

	s.recorder.Record(ctx, queue.AuditPayload{
		Actor: user, Action: audit.ActionDocumentUpdated,
		ResourceType: audit.ResourceDocument, ResourceID: doc.ID, ResourceName: doc.Title,
	})

	return s.GetDocument(ctx, user, doc.ID)
}

// findOwnedDocument 按 ID 或 short_id 定位文档并校验归属.
// forUpdate 为 true 时在事务内加行锁，版本编号与指针更新依赖该锁串行化.
func (s *DocumentService) findOwnedDocument(ctx context.Context, tx *gorm.DB, user, docRef string, forUpdate bool) (*model.Document, error) {
	if user == "" {
		return nil, Invalidf("user is required")
	}

	if docRef == "" {
		return nil, Invalidf("document id is required")
	}

	dbx := tx.WithContext(ctx).Preload("Tags")
	if forUpdate && lockingSupported(tx) {
		dbx = dbx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var doc model.Document
	err := dbx.Where("id = ? OR short_id = ?", docRef, docRef).First(&doc).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundf("document %s not found", docRef)
	}

	if err != nil {
		return nil, Wrapf(err, "query document")
	}

	if doc.Owner != user {
		return nil, Deniedf("document %s does not belong to %s", docRef, user)
	}

	return &doc, nil
}

// lockingSupported 方言是否支持 SELECT ... FOR UPDATE.
// SQLite 不支持该语法，其单写锁本身就串行化写事务，编号冲突由唯一索引裁决.
func lockingSupported(tx *gorm.DB) bool {
	return tx.Dialector.Name() != "sqlite"
}

// validateFile 校验扩展名与大小，返回规范化的扩展名.
func (s *DocumentService) validateFile(fileName string, fileSize int64) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if !s.cfg.TypeAllowed(ext) {
		return "", Invalidf("file type %q is not allowed, allowed: %s", ext, strings.Join(s.cfg.AllowedTypes(), ","))
	}

	if fileSize <= 0 {
		return "", Invalidf("file is empty")
	}

	if fileSize > s.cfg.MaxFileSize {
		return "", Invalidf("file size %d exceeds limit %d", fileSize, s.cfg.MaxFileSize)
	}

	return ext, nil
}

// objectKey 版本内容的对象键.
// 编号在事务内才最终确定，键用随机段保证不与历史版本碰撞.
func (s *DocumentService) objectKey(docID, ext string) string {
	return fmt.Sprintf("documents/%s/%s.%s", docID, model.NewVersionID(), ext)
}

// contentTypeFor 常见类型映射，未知类型回退 octet-stream.
func contentTypeFor(ext string) string {
	switch ext {
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "txt":
		return "text/plain"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}

	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}

	return page, size
}

// toDocumentResponse 组装文档响应，versionCount 传 0 表示未统计.
func (s *DocumentService) toDocumentResponse(doc *model.Document, versionCount int64) types.DocumentResponse {
	resp := types.DocumentResponse{
		ID:           doc.ID,
		ShortID:      doc.ShortID,
		Title:        doc.Title,
		Description:  doc.Description,
		Status:       string(doc.Status),
		Owner:        doc.Owner,
		VersionCount: versionCount,
		Tags:         toTagResponses(doc.Tags),
		IsDeleted:    doc.IsDeleted,
		DeletedAt:    doc.DeletedAt,
		DeletedBy:    doc.DeletedBy,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}

	if doc.CurrentVersionID != nil {
		resp.CurrentVersionID = *doc.CurrentVersionID
	}

	if doc.CurrentVersion != nil {
		resp.CurrentVersionNumber = doc.CurrentVersion.VersionNumber
	}

	return resp
}

// publishDocumentEvent 发布文档域事件，失败只记日志.
func (s *DocumentService) publishDocumentEvent(ctx context.Context, topic string, doc *model.Document) {
	if s.mqClient == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(topic, queue.DocumentPayload{
		DocumentID: doc.ID, ShortID: doc.ShortID, Title: doc.Title, Owner: doc.Owner,
	}, queue.WithProducer("docvault"))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("encode document event failed")

		return
	}

	if err := s.mqClient.Publish(ctx, topic, msg); err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("publish document event failed")
	}
}

// publishVersionEvent 发布版本域事件，失败只记日志.
func (s *DocumentService) publishVersionEvent(ctx context.Context, topic string, ver *model.DocumentVersion) {
	if s.mqClient == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(topic, queue.VersionPayload{
		DocumentID: ver.DocumentID, VersionID: ver.ID,
		VersionNumber: ver.VersionNumber, ObjectKey: ver.ObjectKey,
	}, queue.WithProducer("docvault"))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("encode version event failed")

		return
	}

	if err := s.mqClient.Publish(ctx, topic, msg); err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("publish version event failed")
	}
}
