package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/internal/audit"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/queue"
)

// maxTagSuggestions 标签建议条数上限.
const maxTagSuggestions = 20

// AttachTags 为文档附加标签并镜像到当前版本.
// 标签遵循 get-or-create 语义：同 owner 下相同 (key, value) 复用已有记录.
func (s *DocumentService) AttachTags(ctx context.Context, user, docRef string, req types.AttachTagsRequest) (*types.DocumentResponse, error) {
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

		tags := make([]model.Tag, 0, len(req.Tags))

		for _, in := range req.Tags {
			tag, err := getOrCreateTag(tx, user, in)
			if err != nil {
				return err
			}

			tags = append(tags, *tag)
		}

		if err := tx.Model(doc).Association("Tags").Append(tags); err != nil {
			return err
		}

		// 当前版本同步打标，保证版本快照的标签集完整
		if doc.CurrentVersionID != nil {
			cur := model.DocumentVersion{ID: *doc.CurrentVersionID}
			if err := tx.Model(&cur).Association("Tags").Append(tags); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return nil, err
		}

		return nil, Wrapf(err, "attach tags")
	}

	s.recorder.Record(ctx, queue.AuditPayload{
		Actor: user, Action: audit.ActionTagsAttached,
		ResourceType: audit.ResourceDocument, ResourceID: doc.ID, ResourceName: doc.Title,
		Details: map[string]any{"count": len(req.Tags)},
	})

	// 重新读取带最新标签集合，并同步对象存储标签
	out, err := s.GetDocument(ctx, user, doc.ID)
	if err != nil {
		return nil, err
	}

	if doc.CurrentVersionID != nil {
		var cur model.DocumentVersion
		if err := s.db.WithContext(ctx).Preload("Tags").
			First(&cur, "id = ?", *doc.CurrentVersionID).Error; err == nil {
			s.syncBlobTags(ctx, cur.ObjectKey, cur.Tags)
		}
	}

	return out, nil
}

// SuggestTags 返回用户已有标签的建议列表，前缀匹配键或值，最多 20 条.
func (s *DocumentService) SuggestTags(ctx context.Context, user string, req types.SuggestTagsRequest) (*types.SuggestTagsResponse, error) {
	if user == "" {
		return nil, Invalidf("user is required")
	}

	dbx := s.db.WithContext(ctx).Model(&model.Tag{}).Where("owner = ?", user)

	if req.Key != "" {
		dbx = dbx.Where("tag_key = ?", req.Key)
	}

	if req.Query != "" {
		pattern := req.Query + "%"
		dbx = dbx.Where("tag_key LIKE ? OR tag_value LIKE ?", pattern, pattern)
	}

	var rows []model.Tag
	if err := dbx.Order("tag_key, tag_value").Limit(maxTagSuggestions).Find(&rows).Error; err != nil {
		return nil, Wrapf(err, "suggest tags")
	}

	return &types.SuggestTagsResponse{Tags: toTagResponses(rows)}, nil
}

// getOrCreateTag 幂等获取标签：先查后建，并发建撞唯一索引后回查.
func getOrCreateTag(tx *gorm.DB, owner string, in types.TagInput) (*model.Tag, error) {
	var tag model.Tag

	err := tx.Where("tag_key = ? AND tag_value = ? AND owner = ?", in.Key, in.Value, owner).
		First(&tag).Error
	if err == nil {
		return &tag, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	color := in.Color
	if color == "" {
		color = model.DefaultTagColor
	}

	tag = model.Tag{
		ID:    model.NewTagID(),
		Key:   in.Key,
		Value: in.Value,
		Owner: owner,
		Color: color,
	}

	if err := tx.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = tx.Where("tag_key = ? AND tag_value = ? AND owner = ?", in.Key, in.Value, owner).
				First(&tag).Error
			if err == nil {
				return &tag, nil
			}
		}

		return nil, err
	}

	return &tag, nil
}

// cleanOrphanTags 删除 owner 名下不再被任何文档或版本引用的标签.
func cleanOrphanTags(tx *gorm.DB, owner string) (int64, error) {
	res := tx.Where(
		"owner = ? AND id NOT IN (SELECT tag_id FROM document_tags) AND id NOT IN (SELECT tag_id FROM document_version_tags)",
		owner,
	).Delete(&model.Tag{})

	return res.RowsAffected, res.Error
}

func toTagResponses(tags []model.Tag) []types.TagResponse {
	out := make([]types.TagResponse, 0, len(tags))
	for i := range tags {
		t := &tags[i]
		out = append(out, types.TagResponse{
			ID:          t.ID,
			Key:         t.Key,
			Value:       t.Value,
			Color:       t.Color,
			DisplayName: t.DisplayName(),
		})
	}

	return out
}
