// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

// 任务名称常量.
const (
	// JobTrashReaper 回收站清扫：永久删除超过宽限期的文档.
	JobTrashReaper = "trash.reaper"
)
