// Package model 定义文档版本管理引擎的持久化模型.
package model

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid"
)

// DocumentStatus 文档状态.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusPublished DocumentStatus = "published"
	StatusArchived  DocumentStatus = "archived"
)

// Valid 判断状态取值是否合法.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

// LifecycleState 文档生命周期的两态表示.
// is_deleted/deleted_at/deleted_by 三个字段只允许通过 SoftDelete/Restore
// 一起变更，避免出现 deleted_at 有值而 is_deleted 为 false 之类的脏组合.
type LifecycleState string

const (
	LifecycleActive  LifecycleState = "active"
	LifecycleDeleted LifecycleState = "deleted"
)

// 生命周期转换错误.
var (
	ErrAlreadyDeleted = errors.New("document is already deleted")
	ErrNotDeleted     = errors.New("document is not deleted")
)

// Document 文档聚合根：持有当前版本指针与软删除状态.
type Document struct {
	ID      string `gorm:"type:varchar(36);primaryKey"                     json:"id"`
	ShortID string `gorm:"size:12;uniqueIndex"                             json:"short_id"`
	// 同一 owner 下标题唯一
	Title       string         `gorm:"size:100;index:idx_docs_owner_title,unique" json:"title"`
	Owner       string         `gorm:"size:255;index:idx_docs_owner_title,unique;index" json:"owner"`
	Description string         `gorm:"type:text"                                  json:"description"`
	Status      DocumentStatus `gorm:"size:10;default:draft"                      json:"status"`

	// 当前版本指针：文档创建时为空，第一次上传版本后指向该版本.
	// 指针所指版本必须属于本文档（由 service 层在事务内保证）.
	CurrentVersionID *string          `gorm:"type:varchar(36)" json:"current_version_id"`
	CurrentVersion   *DocumentVersion `gorm:"foreignKey:CurrentVersionID" json:"current_version,omitempty"`

	// Tags 镜像当前版本的标签集合
	Tags []Tag `gorm:"many2many:document_tags" json:"tags"`

	// 软删除字段，只通过 SoftDelete/Restore 变更
	IsDeleted bool       `gorm:"index;default:false" json:"is_deleted"`
	DeletedAt *time.Time `gorm:"index"               json:"deleted_at,omitempty"`
	DeletedBy string     `gorm:"size:255"            json:"deleted_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名.
func (Document) TableName() string {
	return "documents"
}

// Lifecycle 返回当前生命周期状态.
func (d *Document) Lifecycle() LifecycleState {
	if d.IsDeleted {
		return LifecycleDeleted
	}

	return LifecycleActive
}

// SoftDelete 执行 Active -> Deleted 转换.
func (d *Document) SoftDelete(actor string, now time.Time) error {
	if d.IsDeleted {
		return ErrAlreadyDeleted
	}

	t := now.UTC()
	d.IsDeleted = true
	d.DeletedAt = &t
	d.DeletedBy = actor

	return nil
}

// Restore 执行 Deleted -> Active 转换，清空三个软删除字段.
func (d *Document) Restore() error {
	if !d.IsDeleted {
		return ErrNotDeleted
	}

	d.IsDeleted = false
	d.DeletedAt = nil
	d.DeletedBy = ""

	return nil
}

// PurgeDue 判断文档是否超过宽限期、到达永久删除时间.
func (d *Document) PurgeDue(grace time.Duration, now time.Time) bool {
	if !d.IsDeleted || d.DeletedAt == nil {
		return false
	}

	return d.DeletedAt.Add(grace).Before(now)
}

// DaysUntilPurge 返回距永久删除剩余的天数，非删除状态返回 0.
func (d *Document) DaysUntilPurge(grace time.Duration, now time.Time) int {
	if !d.IsDeleted || d.DeletedAt == nil {
		return 0
	}

	remain := d.DeletedAt.Add(grace).Sub(now)
	if remain <= 0 {
		return 0
	}

	return int(remain.Hours()/24) + 1
}

// NewDocumentID 生成文档主键.
func NewDocumentID() string {
	return uuid.NewString()
}

const shortIDLen = 12

// NewShortID 生成人类友好的短标识：取 ULID 的随机尾部 12 个字符.
// Crockford base32，大写字母与数字；唯一性由数据库唯一索引兜底.
func NewShortID(now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()

	return id[len(id)-shortIDLen:]
}
