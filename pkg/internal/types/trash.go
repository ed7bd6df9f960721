package types

import "time"

// TrashItem 回收站条目.
type TrashItem struct {
	DocumentID     string    `json:"document_id"`
	ShortID        string    `json:"short_id"`
	Title          string    `json:"title"`
	DeletedAt      time.Time `json:"deleted_at"`
	DeletedBy      string    `json:"deleted_by"`
	DaysUntilPurge int       `json:"days_until_purge"` // 距永久删除剩余天数
}

// ListTrashResponse 回收站列表响应.
type ListTrashResponse struct {
	Total int64       `json:"total"`
	Items []TrashItem `json:"items"`
}

// PurgeResponse 永久删除结果.
type PurgeResponse struct {
	DocumentID      string `json:"document_id"`
	VersionsRemoved int64  `json:"versions_removed"`
	BlobsRemoved    int64  `json:"blobs_removed"`
	TagsRemoved     int64  `json:"tags_removed"` // 清理掉的孤儿标签数
}

// ReapResult 过期清扫结果，定时任务与 cleanup 子命令共用.
type ReapResult struct {
	Scanned int64    `json:"scanned"` // 扫描到的过期文档数
	Purged  int64    `json:"purged"`  // 实际永久删除数
	DryRun  bool     `json:"dry_run"`
	Failed  []string `json:"failed,omitempty"` // 删除失败的文档 ID
}
