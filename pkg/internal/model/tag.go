package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 标签键值长度上限.
const (
	TagKeyMaxLen   = 50
	TagValueMaxLen = 100
)

// DefaultTagColor 未指定颜色时的缺省值.
const DefaultTagColor = "#6B7280"

// Tag 键值对标签，(key, value, owner) 三元组唯一.
// get-or-create 语义：同一 owner 重复提交相同键值对返回已有记录.
type Tag struct {
	ID    string `gorm:"type:varchar(36);primaryKey"                       json:"id"`
	// KEY 是 MySQL 保留字，列名用 tag_key/tag_value 避免方言差异
	Key   string `gorm:"column:tag_key;size:50;index:idx_tags_kvo,unique;not null"    json:"key"`
	Value string `gorm:"column:tag_value;size:100;index:idx_tags_kvo,unique;not null" json:"value"`
	Owner string `gorm:"size:255;index:idx_tags_kvo,unique;not null"       json:"owner"`
	Color string `gorm:"size:7;default:#6B7280"                            json:"color"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名.
func (Tag) TableName() string {
	return "tags"
}

// DisplayName 返回 "key: value" 形式的展示名，纯键标签只返回键.
func (t *Tag) DisplayName() string {
	if t.Value == "" {
		return t.Key
	}

	return fmt.Sprintf("%s: %s", t.Key, t.Value)
}

// NewTagID 生成标签主键.
func NewTagID() string {
	return uuid.NewString()
}

// AllModels 返回需要自动迁移的全部模型，migrate 子命令使用.
func AllModels() []any {
	return []any{
		&Document{},
		&DocumentVersion{},
		&Tag{},
	}
}
