package svc

import (
	"nft-engine-sol/internal/cache"
	"nft-engine-sol/internal/chain"
	"nft-engine-sol/internal/config"
	"nft-engine-sol/internal/logic/assembler"
	"nft-engine-sol/internal/logic/burn"
	"nft-engine-sol/internal/logic/mint"
	"nft-engine-sol/internal/logic/minters"
	"nft-engine-sol/internal/logic/submit"
	"nft-engine-sol/internal/metaplex"
	"nft-engine-sol/internal/mq"
	"nft-engine-sol/internal/report"
	"nft-engine-sol/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"
)

// ServiceContext 持有引擎的全部共享资源
type ServiceContext struct {
	Config   config.EngineConfig
	Chain    *chain.Client
	Signer   *chain.LocalSigner
	Producer *kafka.Producer // 可为 nil
	Sinks    []report.Sink

	Minters *minters.Service
	Mint    *mint.Service
	Burn    *burn.Service
}

// NewServiceContext 创建引擎服务上下文
func NewServiceContext(c config.EngineConfig) (*ServiceContext, error) {
	// 1. 初始化 RPC 客户端
	chainClient := chain.NewClient(c.RpcConf.Endpoint, c.RpcConf.Timeout())

	// 2. 加载钱包 keypair
	signer, err := chain.LoadLocalSigner(c.KeypairPath)
	if err != nil {
		logger.Errorf("钱包 keypair 加载失败: %v", err)
		return nil, err
	}

	// 3. 上报 sink：日志恒在，Kafka 可选
	sinks := []report.Sink{&report.LogSink{Tag: "engine"}}
	var producer *kafka.Producer
	if c.KafkaProducerConf.Enabled {
		producer, err = mq.NewKafkaProducer(c.KafkaProducerConf.ToKafkaOption())
		if err != nil {
			logger.Errorf("Kafka producer 初始化失败: %v", err)
			return nil, err
		}
		sinks = append(sinks, mq.NewKafkaSink(producer, c.KafkaProducerConf.Topics.ItemEvent))
	}

	// 4. 元数据缓存（可选）
	var metaCache metaplex.MetaCache
	if c.CacheConf.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: c.CacheConf.RedisAddr,
		})
		metaCache = cache.NewRedisMetaCache(rdb, c.CacheConf.TTL())
	}

	// 5. 提交流程组件
	loop := submit.NewLoop(chainClient, c.BatchConf.SendAttemptsOrDefault(),
		c.BatchConf.SendRetryDelay(), chain.ConfirmationProcessed)
	machine := submit.NewMachine(chainClient, loop, c.BatchConf.BlockhashAttemptsOrDefault())
	resolver := metaplex.NewResolver(chainClient, metaCache)

	ctx := &ServiceContext{
		Config:   c,
		Chain:    chainClient,
		Signer:   signer,
		Producer: producer,
		Sinks:    sinks,
		Minters: minters.NewService(chainClient, c.BatchConf.ConcurrencyOrDefault(),
			c.BatchConf.ResolveAttemptsOrDefault(), sinks...),
		Mint: mint.NewService(assembler.NewAssembler(chainClient), machine, signer, sinks...),
		Burn: burn.NewService(chainClient, machine, resolver, signer, sinks...),
	}

	logger.Infof("引擎服务上下文初始化完成: endpoint=%s wallet=%s",
		c.RpcConf.Endpoint, signer.PublicKey())
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *ServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Close()
	}
}
