package core

import "time"

const (
	// DefaultLanguage 是未指定语言时使用的语言代码
	DefaultLanguage = "en"

	// DefaultFloorFactor 是 MinFlowFloor 相对全文最小平均 flow 的系数
	DefaultFloorFactor = 0.9
)

// RerankConfig 是重排相关的配置接口，用于提供默认值。
type RerankConfig interface {
	// DefaultLanguage 返回默认的语言代码
	DefaultLanguage() string

	// DefaultFloorFactor 返回默认的 floor 系数
	DefaultFloorFactor() float64

	// DefaultMaxConcurrent 返回并发拉取时默认的最大并发数
	DefaultMaxConcurrent() int

	// DefaultTimeout 返回单次拉取的默认超时时间
	DefaultTimeout() time.Duration
}

// DefaultRerankConfig 是默认的重排配置实现。
type DefaultRerankConfig struct{}

func (c *DefaultRerankConfig) DefaultLanguage() string {
	return DefaultLanguage
}

func (c *DefaultRerankConfig) DefaultFloorFactor() float64 {
	return DefaultFloorFactor
}

func (c *DefaultRerankConfig) DefaultMaxConcurrent() int {
	return 4
}

func (c *DefaultRerankConfig) DefaultTimeout() time.Duration {
	return 30 * time.Second
}
