package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/docvault/pkg/configs"
	ctxPkg "github.com/yeisme/docvault/pkg/context"
	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/storage"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/scheduler"
)

var timeNow = time.Now

// RegisterCronJobs 配置业务定时任务：
//   - 按 versioning.reaper_cron（默认每天 03:00）清扫回收站中超过宽限期的文档
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	vc := configs.GetConfig().Versioning

	if err := sched.AddCron(JobTrashReaper, vc.ReaperCron, func(ctx context.Context) {
		runTrashReaper(ctx)
	}, baseCtx); err != nil {
		return fmt.Errorf("register %s: %w", JobTrashReaper, err)
	}

	return nil
}

// runTrashReaper 执行一轮清扫：删除 deleted_at 早于宽限期截止时间的文档.
func runTrashReaper(ctx context.Context) {
	l := log.Logger().With().Str("job", JobTrashReaper).Logger()

	vc := configs.GetConfig().Versioning
	cutoff := timeNow().Add(-vc.GracePeriod())

	svc := service.NewDocumentService(ctx)

	result, err := svc.ReapExpired(ctx, cutoff, false)
	if err != nil {
		l.Error().Err(err).Msg("reaper run failed")

		return
	}

	if result.Scanned > 0 {
		l.Info().
			Int64("scanned", result.Scanned).
			Int64("purged", result.Purged).
			Int("failed", len(result.Failed)).
			Time("cutoff", cutoff).
			Msg("trash reaper run complete")
	}
}
