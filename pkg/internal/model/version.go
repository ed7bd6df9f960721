package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentVersion 不可变的版本快照.
// 版本一旦写入不再修改内容字段，(document_id, version_number) 全局唯一，
// 并发创建时由该唯一索引最终裁决编号冲突.
type DocumentVersion struct {
	ID         string `gorm:"type:varchar(36);primaryKey"                          json:"id"`
	DocumentID string `gorm:"type:varchar(36);index:idx_ver_doc_num,unique;not null" json:"document_id"`
	// 单文档内单调递增，从 1 开始
	VersionNumber int `gorm:"index:idx_ver_doc_num,unique;not null" json:"version_number"`

	// 版本级元数据快照，与文档当前元数据解耦
	Title       string `gorm:"size:100"  json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// 文件内容
	ObjectKey string `gorm:"size:512;not null" json:"object_key"`
	FileName  string `gorm:"size:255"          json:"file_name"`
	FileSize  int64  `gorm:"not null"          json:"file_size"`
	FileType  string `gorm:"size:10"           json:"file_type"`

	// 变更说明
	ChangesDescription string `gorm:"type:text" json:"changes_description"`
	Reason             string `gorm:"size:255"  json:"reason"`

	Tags []Tag `gorm:"many2many:document_version_tags" json:"tags"`

	CreatedBy string    `gorm:"size:255" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名.
func (DocumentVersion) TableName() string {
	return "document_versions"
}

// BelongsTo 判断版本是否属于指定文档，回滚目标校验用.
func (v *DocumentVersion) BelongsTo(docID string) bool {
	return v.DocumentID == docID
}

// NewVersionID 生成版本主键.
func NewVersionID() string {
	return uuid.NewString()
}
