package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultMetricsEnabled = true       // 默认启用指标
	DefaultMetricsPath    = "/metrics" // 指标暴露路径
)

// MetricsConfig 指标配置.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// setDefaults 设置指标配置的默认值.
func (m *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", DefaultMetricsEnabled)
	v.SetDefault("metrics.path", DefaultMetricsPath)
}
