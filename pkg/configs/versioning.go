package configs

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultMaxFileSize        = 10 << 20 // 单个版本文件大小上限（10 MiB）
	DefaultGracePeriodDays    = 30       // 软删除宽限期（天）
	DefaultNumberingRetries   = 3        // 版本号冲突重试次数
	DefaultTagSyncRetries     = 3        // 对象存储标签同步重试次数
	DefaultAllowedFileTypes   = "pdf,docx,txt,png,jpg,jpeg"
	DefaultReaperCron         = "0 3 * * *" // 每天 03:00 清扫过期回收站
	DefaultPresignedExpirySec = 900         // 预签名下载 URL 有效期（秒）
)

// VersioningConfig 文档版本管理策略配置.
type VersioningConfig struct {
	MaxFileSize         int64  `mapstructure:"max_file_size"         rule:"min=1"`
	AllowedFileTypes    string `mapstructure:"allowed_file_types"`
	GracePeriodDays     int    `mapstructure:"grace_period_days"     rule:"min=1"`
	NumberingRetries    int    `mapstructure:"numbering_retries"     rule:"min=1,max=10"`
	TagSyncRetries      int    `mapstructure:"tag_sync_retries"      rule:"min=0,max=10"`
	ReaperCron          string `mapstructure:"reaper_cron"`
	PresignedExpirySecs int    `mapstructure:"presigned_expiry_secs" rule:"min=1"`
}

// GracePeriod 返回软删除宽限期.
func (c *VersioningConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodDays) * 24 * time.Hour
}

// PresignedExpiry 返回预签名 URL 有效期.
func (c *VersioningConfig) PresignedExpiry() time.Duration {
	return time.Duration(c.PresignedExpirySecs) * time.Second
}

// AllowedTypes 返回小写后的文件类型白名单.
func (c *VersioningConfig) AllowedTypes() []string {
	parts := strings.Split(c.AllowedFileTypes, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

// TypeAllowed 判断扩展名是否在白名单内.
func (c *VersioningConfig) TypeAllowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, t := range c.AllowedTypes() {
		if t == ext {
			return true
		}
	}

	return false
}

// setDefaults 设置版本管理策略的默认值.
func (c *VersioningConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("versioning.max_file_size", DefaultMaxFileSize)
	v.SetDefault("versioning.allowed_file_types", DefaultAllowedFileTypes)
	v.SetDefault("versioning.grace_period_days", DefaultGracePeriodDays)
	v.SetDefault("versioning.numbering_retries", DefaultNumberingRetries)
	v.SetDefault("versioning.tag_sync_retries", DefaultTagSyncRetries)
	v.SetDefault("versioning.reaper_cron", DefaultReaperCron)
	v.SetDefault("versioning.presigned_expiry_secs", DefaultPresignedExpirySec)
}
