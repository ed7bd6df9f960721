package service

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yeisme/docvault/pkg/internal/model"
	nlog "github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
)

// tagSyncBreaker 对象存储打标的熔断器.
// 存储端持续不可用时快速放弃，避免每次写操作都拖一轮重试.
var tagSyncBreaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
	Name:        "blob-tag-sync",
	MaxRequests: 1,
	Interval:    time.Minute,
	Timeout:     30 * time.Second,
	ReadyToTrip: func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 5
	},
})

// syncBlobTags 将版本标签尽力同步到对象存储.
// 同步失败只降级为告警日志与指标，绝不影响已提交的主操作.
func (s *DocumentService) syncBlobTags(ctx context.Context, objectKey string, tags []model.Tag) {
	if s.blob == nil || objectKey == "" {
		return
	}

	tagSet := make(map[string]string, len(tags))
	for i := range tags {
		tagSet[tags[i].Key] = tags[i].Value
	}

	retries := s.cfg.TagSyncRetries
	if retries < 0 {
		retries = 0
	}

	var err error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}

		_, err = tagSyncBreaker.Execute(func() (any, error) {
			return nil, s.blob.SetTags(ctx, objectKey, tagSet)
		})
		if err == nil {
			return
		}

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			break
		}
	}

	metrics.TagSyncFailures.Inc()
	nlog.Logger().Warn().Err(err).
		Str("object_key", objectKey).
		Int("tags", len(tagSet)).
		Msg("blob tag sync failed, metadata remains authoritative")
}
