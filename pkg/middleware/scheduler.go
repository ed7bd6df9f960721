package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/scheduler"
)

const schedulerKey = "docvault.scheduler"

// SchedulerMiddleware 将调度器注入 gin 上下文，监控接口使用.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(schedulerKey, sched)
		c.Next()
	}
}

// GetScheduler 从 gin 上下文取出调度器，未注入时返回 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	if v, ok := c.Get(schedulerKey); ok {
		if s, ok := v.(*scheduler.Scheduler); ok {
			return s
		}
	}

	return nil
}
