package types

import "time"

// CreateVersionRequest 上传新版本请求（multipart 表单，文件字段名为 file）.
// 未显式覆盖的元数据默认继承自当前版本.
type CreateVersionRequest struct {
	Title              string `form:"title"               json:"title"               rule:"max=100"`  // 覆盖标题，留空继承
	Description        string `form:"description"         json:"description"         rule:"max=2000"` // 覆盖描述，留空继承
	ChangesDescription string `form:"changes_description" json:"changes_description" rule:"max=2000"` // 本次变更说明
	Reason             string `form:"reason"              json:"reason"              rule:"max=255"`  // 创建原因
	InheritTags        *bool  `form:"inherit_tags"        json:"inherit_tags"`                        // 是否继承当前版本标签，缺省 true
}

// VersionResponse 版本详情.
type VersionResponse struct {
	ID                 string        `json:"id"`
	DocumentID         string        `json:"document_id"`
	VersionNumber      int           `json:"version_number"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	FileName           string        `json:"file_name"`
	FileSize           int64         `json:"file_size"`
	FileType           string        `json:"file_type"`
	ChangesDescription string        `json:"changes_description,omitempty"`
	Reason             string        `json:"reason,omitempty"`
	IsCurrent          bool          `json:"is_current"`
	Tags               []TagResponse `json:"tags"`
	CreatedBy          string        `json:"created_by"`
	CreatedAt          time.Time     `json:"created_at"`
}

// VersionHistoryResponse 版本历史响应，按版本号降序.
type VersionHistoryResponse struct {
	DocumentID string            `json:"document_id"`
	Total      int64             `json:"total"`
	Versions   []VersionResponse `json:"versions"`
}

// RollbackRequest 回滚请求.
type RollbackRequest struct {
	TargetVersionID string `json:"target_version_id" rule:"required"` // 目标历史版本 ID
	Reason          string `json:"reason"            rule:"max=255"`  // 回滚原因，记入审计
}

// RollbackResponse 回滚结果.
type RollbackResponse struct {
	DocumentID             string `json:"document_id"`
	TargetVersionID        string `json:"target_version_id"`
	ResultingVersionNumber int    `json:"resulting_version_number"` // 回滚后当前版本的版本号
}

// DownloadURLResponse 版本内容的预签名下载地址.
type DownloadURLResponse struct {
	ObjectKey string `json:"object_key"`
	GetURL    string `json:"get_url"`
	ExpiresIn int    `json:"expires_in"` // 过期时间（秒）
}
