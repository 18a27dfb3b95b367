package config

import (
	"time"

	"nft-engine-sol/internal/mq"
	"nft-engine-sol/pkg/logger"
)

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径）
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// RpcConfig RPC 节点相关配置
type RpcConfig struct {
	Endpoint  string `yaml:"endpoint"`   // Solana RPC 节点地址
	TimeoutMs int    `yaml:"timeout_ms"` // 单次 RPC 调用超时（毫秒），0 取默认 10000
}

func (c *RpcConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// BatchConfig 批处理与重试相关配置
type BatchConfig struct {
	Concurrency       int `yaml:"concurrency"`         // 只读查询的并发上限，0 取默认 6
	ResolveAttempts   int `yaml:"resolve_attempts"`    // 单个查询项的最大尝试次数，0 取默认 5
	SendAttempts      int `yaml:"send_attempts"`       // 单笔交易广播+确认的最大尝试次数，0 取默认 6
	SendRetryDelayMs  int `yaml:"send_retry_delay_ms"` // 广播失败后的固定重试间隔（毫秒），0 取默认 500
	BlockhashAttempts int `yaml:"blockhash_attempts"`  // blockhash 获取的最大尝试次数，0 取默认 10
}

func (c *BatchConfig) ConcurrencyOrDefault() int {
	if c.Concurrency <= 0 {
		return 6
	}
	return c.Concurrency
}

func (c *BatchConfig) ResolveAttemptsOrDefault() int {
	if c.ResolveAttempts <= 0 {
		return 5
	}
	return c.ResolveAttempts
}

func (c *BatchConfig) SendAttemptsOrDefault() int {
	if c.SendAttempts <= 0 {
		return 6
	}
	return c.SendAttempts
}

func (c *BatchConfig) SendRetryDelay() time.Duration {
	if c.SendRetryDelayMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.SendRetryDelayMs) * time.Millisecond
}

func (c *BatchConfig) BlockhashAttemptsOrDefault() int {
	if c.BlockhashAttempts <= 0 {
		return 10
	}
	return c.BlockhashAttempts
}

// KafkaProducerConfig Kafka 生产者相关配置（可选，用于无界面运行时上报逐项结果）
type KafkaProducerConfig struct {
	Enabled   bool   `yaml:"enabled"`    // 是否启用 Kafka 上报
	Brokers   string `yaml:"brokers"`    // Kafka broker 地址，多个用英文逗号分隔
	BatchSize int    `yaml:"batch_size"` // 批处理大小（单位字节）
	LingerMs  int    `yaml:"linger_ms"`  // 批处理最大延迟（毫秒）

	Topics struct {
		ItemEvent string `yaml:"item_event"` // 逐项终态事件的 Kafka topic
	} `yaml:"topics"`

	Partitions struct {
		ItemEvent int `yaml:"item_event"` // item_event topic 的分区数
	} `yaml:"partitions"`
}

func (c *KafkaProducerConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:   c.Brokers,
		BatchSize: c.BatchSize,
		LingerMs:  c.LingerMs,
		Topics: []struct {
			Topic      string
			Partitions int
		}{
			{Topic: c.Topics.ItemEvent, Partitions: c.Partitions.ItemEvent},
		},
	}
}

// CacheConfig 元数据缓存配置（可选）
type CacheConfig struct {
	RedisAddr string `yaml:"redis_addr"` // Redis 地址，为空时不启用缓存
	TTLHours  int    `yaml:"ttl_hours"`  // 缓存过期时间（小时），0 取默认 24
}

func (c *CacheConfig) TTL() time.Duration {
	if c.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.TTLHours) * time.Hour
}

// EngineConfig 是主配置结构体，驱动批处理引擎
type EngineConfig struct {
	LogConf           LogConfig           `yaml:"logger"`         // 日志配置
	RpcConf           RpcConfig           `yaml:"rpc"`            // RPC 节点配置
	BatchConf         BatchConfig         `yaml:"batch"`          // 批处理与重试配置
	KafkaProducerConf KafkaProducerConfig `yaml:"kafka_producer"` // Kafka 生产者配置（可选）
	CacheConf         CacheConfig         `yaml:"cache"`          // 元数据缓存配置（可选）

	// 钱包 keypair 文件路径（64 字节 ed25519 私钥的 JSON 数组，solana-cli 格式）
	KeypairPath string `yaml:"keypair_path"`
}
