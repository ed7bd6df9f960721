// Package types 定义 HTTP 层的请求与响应结构.
package types

import "time"

// CreateDocumentRequest 创建文档请求（multipart 表单，文件字段名为 file）.
// 创建即携带首个版本，文档创建后当前版本指针立即指向版本 1.
type CreateDocumentRequest struct {
	Title       string `form:"title"       json:"title"       rule:"required,max=100"`   // 文档标题
	Description string `form:"description" json:"description" rule:"max=2000"`           // 文档描述
	Status      string `form:"status"      json:"status"      rule:"omitempty,doc_status"` // 初始状态，缺省 draft
	Reason      string `form:"reason"      json:"reason"      rule:"max=255"`             // 创建原因，记入版本 1
}

// UpdateDocumentRequest 更新文档元数据请求，只改文档层字段，不产生新版本.
type UpdateDocumentRequest struct {
	Title       *string `json:"title,omitempty"       rule:"omitempty,max=100"`
	Description *string `json:"description,omitempty" rule:"omitempty,max=2000"`
	Status      *string `json:"status,omitempty"      rule:"omitempty,doc_status"`
}

// ListDocumentsRequest 文档列表查询参数.
type ListDocumentsRequest struct {
	Scope    string `form:"scope"     rule:"omitempty,oneof=active deleted all"` // 列表范围，缺省 active
	Status   string `form:"status"    rule:"omitempty,doc_status"`               // 按状态过滤
	TagKey   string `form:"tag_key"   rule:"omitempty,max=50"`                   // 按标签键过滤
	TagValue string `form:"tag_value" rule:"omitempty,max=100"`                  // 按标签值过滤
	Page     int    `form:"page"      rule:"omitempty,gte=1"`
	PageSize int    `form:"page_size" rule:"omitempty,gte=1,lte=100"`
}

// DocumentResponse 文档详情.
type DocumentResponse struct {
	ID                   string        `json:"id"`
	ShortID              string        `json:"short_id"`
	Title                string        `json:"title"`
	Description          string        `json:"description"`
	Status               string        `json:"status"`
	Owner                string        `json:"owner"`
	CurrentVersionID     string        `json:"current_version_id,omitempty"`
	CurrentVersionNumber int           `json:"current_version_number,omitempty"`
	VersionCount         int64         `json:"version_count"`
	Tags                 []TagResponse `json:"tags"`
	IsDeleted            bool          `json:"is_deleted"`
	DeletedAt            *time.Time    `json:"deleted_at,omitempty"`
	DeletedBy            string        `json:"deleted_by,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// ListDocumentsResponse 文档列表响应.
type ListDocumentsResponse struct {
	Total int64              `json:"total"`
	Items []DocumentResponse `json:"items"`
}
