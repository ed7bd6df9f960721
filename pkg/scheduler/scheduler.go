// Package scheduler 提供定时任务调度功能，基于 gocron/v2.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/docvault/pkg/log"
)

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 已调度
	StatusRunning   JobStatus = "running"   // 运行中
	StatusError     JobStatus = "error"     // 上次执行出错
)

// JobInfo 任务信息，用于监控接口展示.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
}

// Scheduler 定时任务调度器.
type Scheduler struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job
	jobInfos  map[string]*JobInfo
	mu        sync.RWMutex
	logger    *zerolog.Logger
}

// NewScheduler 创建调度器实例.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		jobInfos:  make(map[string]*JobInfo),
		logger:    log.Logger(),
	}, nil
}

// AddCron 按 cron 表达式注册命名任务. 同名任务只能注册一次.
func (s *Scheduler) AddCron(name, cronExpr string, job func(ctx context.Context), ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	// 包装执行体：捕获 panic 并维护状态
	wrappedJob := func(ctx context.Context) {
		s.updateStatus(name, StatusRunning, "")

		defer func() {
			if r := recover(); r != nil {
				s.updateStatus(name, StatusError, fmt.Sprintf("panic in job: %v", r))
				s.logger.Error().Str("job", name).Interface("panic", r).Msg("job panicked")
			}
		}()

		job(ctx)

		s.mu.Lock()
		if info, ok := s.jobInfos[name]; ok {
			info.Status = StatusScheduled
			info.Error = ""
			info.LastSuccess = time.Now()
		}
		s.mu.Unlock()
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(wrappedJob, ctx),
		gocron.WithName(name),
		gocron.WithEventListeners(
			gocron.AfterJobRuns(func(_ uuid.UUID, jobName string) {
				s.mu.Lock()
				defer s.mu.Unlock()

				if info, exists := s.jobInfos[jobName]; exists {
					info.LastRun = time.Now()

					if job, ok := s.jobs[jobName]; ok {
						if next, err := job.NextRun(); err == nil {
							info.NextRun = next
						}
					}
				}
			}),
		),
	)
	if err != nil {
		return err
	}

	nextRun, _ := j.NextRun()

	s.jobs[name] = j
	s.jobInfos[name] = &JobInfo{
		ID:       j.ID().String(),
		Name:     name,
		CronExpr: cronExpr,
		NextRun:  nextRun,
		Status:   StatusScheduled,
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("added cron job")

	return nil
}

// RemoveJobByName 移除命名任务.
func (s *Scheduler) RemoveJobByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job with name %s does not exist", name)
	}

	if err := s.scheduler.RemoveJob(job.ID()); err != nil {
		return err
	}

	delete(s.jobs, name)
	delete(s.jobInfos, name)

	s.logger.Info().Str("job", name).Msg("removed job")

	return nil
}

// GetJobInfos 返回全部任务信息快照.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobInfos))
	for _, info := range s.jobInfos {
		out = append(out, *info)
	}

	return out
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("starting scheduler")
	s.scheduler.Start()
}

// Stop 停止调度器并等待运行中任务结束.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("stopping scheduler")

	return s.scheduler.Shutdown()
}

func (s *Scheduler) updateStatus(name string, status JobStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.jobInfos[name]; ok {
		info.Status = status
		info.Error = errMsg
	}
}
