package mq

import (
	"encoding/json"
	"time"

	"nft-engine-sol/internal/report"
	"nft-engine-sol/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ItemEvent 单个批处理项的终态事件，JSON 序列化后投递到 Kafka。
type ItemEvent struct {
	Batch     string `json:"batch"`               // 批次标识（minters / burn / mint）
	Address   string `json:"address"`             // 该项对应的地址（base58）
	Status    string `json:"status"`              // success / failed / skipped
	Error     string `json:"error,omitempty"`     // 失败原因
	Unknown   bool   `json:"unknown,omitempty"`   // 链上状态不可知（广播后确认超时）
	Signature string `json:"signature,omitempty"` // 成功时的交易签名
	Timestamp int64  `json:"timestamp"`           // Unix 秒
}

// KafkaSink 将逐项终态事件发布到 Kafka，供无界面运行方式消费。
// 进度事件不投递（量大且无终态价值），仅记录 ItemEvent。
type KafkaSink struct {
	producer *kafka.Producer
	topic    string
	timeout  time.Duration
}

func NewKafkaSink(producer *kafka.Producer, topic string) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		topic:    topic,
		timeout:  10 * time.Second,
	}
}

// Publish 同步投递一条事件并等待 ack，失败只记日志，不影响批处理流程。
func (s *KafkaSink) Publish(ev ItemEvent) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}

	value, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("[KafkaSink] 事件序列化失败: %v", err)
		return
	}

	deliveryChan := make(chan kafka.Event, 1)
	err = s.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &s.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(ev.Address),
		Value: value,
	}, deliveryChan)
	if err != nil {
		logger.Errorf("[KafkaSink] produce 失败: addr=%s err=%v", ev.Address, err)
		return
	}

	select {
	case e, ok := <-deliveryChan:
		if !ok {
			logger.Errorf("[KafkaSink] delivery channel closed unexpectedly: addr=%s", ev.Address)
			return
		}
		msg, ok := e.(*kafka.Message)
		if !ok {
			logger.Errorf("[KafkaSink] invalid message type: %T", e)
			return
		}
		if msg.TopicPartition.Error != nil {
			logger.Errorf("[KafkaSink] 投递失败: addr=%s err=%v", ev.Address, msg.TopicPartition.Error)
		}
	case <-time.After(s.timeout):
		go safeDrain(deliveryChan)
		logger.Errorf("[KafkaSink] 投递超时 (>%v): addr=%s", s.timeout, ev.Address)
	}
}

// ObserveItem 实现 report.ItemObserver：逐项终态作为 ItemEvent 投递。
func (s *KafkaSink) ObserveItem(rec report.ItemRecord) {
	s.Publish(ItemEvent{
		Batch:     rec.Batch,
		Address:   rec.Addr.String(),
		Status:    rec.Status,
		Error:     rec.Err,
		Unknown:   rec.Unknown,
		Signature: rec.Signature,
	})
}

// ReportProgress 实现 report.Sink，进度不投递。
func (s *KafkaSink) ReportProgress(completed, total int) {}

// ReportSuccess 实现 report.Sink。
func (s *KafkaSink) ReportSuccess(msg string) {
	logger.Infof("[KafkaSink] %s", msg)
}

// ReportError 实现 report.Sink。
func (s *KafkaSink) ReportError(msg string) {
	logger.Errorf("[KafkaSink] %s", msg)
}

// safeDrain 确保 deliveryChan 被 drain，避免 Kafka 回调阻塞
func safeDrain(ch <-chan kafka.Event) {
	defer func() {
		_ = recover() // deliveryChan 已被回收导致 panic 时吞掉（极少见）
	}()
	select {
	case <-ch:
	case <-time.After(2 * time.Second): // 最多等 2 秒
	}
}
