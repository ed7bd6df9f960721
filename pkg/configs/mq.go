package configs

import (
	"github.com/spf13/viper"
)

type (
	MQType string
)

const (
	// NATS 通过 watermill-nats 发布.
	MQTypeNATS MQType = "nats"
	// Channel 进程内 Pub/Sub，适合单机部署与测试.
	MQTypeChannel MQType = "channel"
)

const (
	DefaultMQType  = MQTypeChannel           // 默认使用进程内通道
	DefaultNATSURL = "nats://localhost:4222" // 默认 NATS 地址
)

// MQConfig 审计事件队列配置.
type MQConfig struct {
	Type      MQType `mapstructure:"type"      rule:"oneof=nats channel"`
	URL       string `mapstructure:"url"`
	JetStream bool   `mapstructure:"jetstream"`
}

// GetMQType 返回消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置 MQ 配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", string(DefaultMQType))
	v.SetDefault("mq.url", DefaultNATSURL)
	v.SetDefault("mq.jetstream", false)
}
