package report

import (
	"fmt"
	"sync"

	"nft-engine-sol/pkg/logger"
	"nft-engine-sol/pkg/types"
)

// Sink 通知出口。引擎只依赖该接口，由上层（UI/CLI/Kafka）注入具体实现。
type Sink interface {
	ReportProgress(completed, total int)
	ReportSuccess(msg string)
	ReportError(msg string)
}

// ItemRecord 单项的结构化终态，供 ItemObserver 消费。
type ItemRecord struct {
	Batch     string       // 批次标识（minters / mint / burn）
	Addr      types.Pubkey // 该项对应的地址
	Status    string       // success / failed / skipped
	Err       string       // 失败原因
	Unknown   bool         // 链上状态不可知
	Signature string       // 成功时的交易签名（查询批次则为查询结果）
}

// 终态取值
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// ItemObserver 可选扩展：需要逐项结构化终态的 Sink 额外实现它（如 Kafka 出口）。
type ItemObserver interface {
	ObserveItem(rec ItemRecord)
}

// ItemSuccess 批处理中单项成功记录。
type ItemSuccess struct {
	Addr  types.Pubkey // 原始地址
	Value string       // 结果内容（owner 地址 / 交易签名等）
}

// ItemFailure 批处理中单项失败记录。
type ItemFailure struct {
	Addr    types.Pubkey // 原始地址
	Err     string       // 原始错误文本
	Unknown bool         // true 表示链上状态不可知（已广播但确认超时）
}

// BatchReport 一次批处理的最终结构化结果。
type BatchReport struct {
	Total     int           // 输入项总数
	Skipped   int           // 软未命中数
	Successes []ItemSuccess // 按落定顺序或输入顺序（由调用方决定追加顺序）
	Failures  []ItemFailure
}

// FullSuccess 全部成功（软未命中不计入失败）。
func (r *BatchReport) FullSuccess() bool {
	return len(r.Failures) == 0
}

// Summary 渲染给 Sink 的一行总结。
func (r *BatchReport) Summary() string {
	return fmt.Sprintf("total=%d success=%d failed=%d skipped=%d",
		r.Total, len(r.Successes), len(r.Failures), r.Skipped)
}

// Reporter 纯聚合器：累计进度与逐项结果，不含任何重试/网络逻辑。
// 并发安全：runner 的完成回调可能来自多个 goroutine。
type Reporter struct {
	mu     sync.Mutex
	batch  string
	report BatchReport
	sinks  []Sink
}

func NewReporter(batch string, total int, sinks ...Sink) *Reporter {
	return &Reporter{
		batch:  batch,
		report: BatchReport{Total: total},
		sinks:  sinks,
	}
}

// observeItem 将结构化终态转发给实现了 ItemObserver 的 Sink。
func (r *Reporter) observeItem(rec ItemRecord) {
	rec.Batch = r.batch
	for _, s := range r.sinks {
		if obs, ok := s.(ItemObserver); ok {
			obs.ObserveItem(rec)
		}
	}
}

// Progress 上报单调递增的完成计数。
func (r *Reporter) Progress(completed, total int) {
	r.mu.Lock()
	sinks := r.sinks
	r.mu.Unlock()
	for _, s := range sinks {
		s.ReportProgress(completed, total)
	}
}

// AddSuccess 记录一条成功项。
func (r *Reporter) AddSuccess(addr types.Pubkey, value string) {
	r.mu.Lock()
	r.report.Successes = append(r.report.Successes, ItemSuccess{Addr: addr, Value: value})
	r.mu.Unlock()

	r.observeItem(ItemRecord{Addr: addr, Status: StatusSuccess, Signature: value})
}

// AddFailure 记录一条失败项。
func (r *Reporter) AddFailure(addr types.Pubkey, err error, unknown bool) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.mu.Lock()
	r.report.Failures = append(r.report.Failures, ItemFailure{Addr: addr, Err: msg, Unknown: unknown})
	r.mu.Unlock()

	for _, s := range r.sinks {
		s.ReportError(fmt.Sprintf("item failed: addr=%s unknown=%v err=%s", addr, unknown, msg))
	}
	r.observeItem(ItemRecord{Addr: addr, Status: StatusFailed, Err: msg, Unknown: unknown})
}

// AddSkipped 记录一条软未命中（不进成功也不进失败列表）。
func (r *Reporter) AddSkipped(addr types.Pubkey) {
	r.mu.Lock()
	r.report.Skipped++
	r.mu.Unlock()

	r.observeItem(ItemRecord{Addr: addr, Status: StatusSkipped})
}

// Finish 输出最终总结并返回聚合结果的副本。
func (r *Reporter) Finish() BatchReport {
	r.mu.Lock()
	out := BatchReport{
		Total:     r.report.Total,
		Skipped:   r.report.Skipped,
		Successes: append([]ItemSuccess(nil), r.report.Successes...),
		Failures:  append([]ItemFailure(nil), r.report.Failures...),
	}
	r.mu.Unlock()

	for _, s := range r.sinks {
		if out.FullSuccess() {
			s.ReportSuccess(out.Summary())
		} else {
			s.ReportError(out.Summary())
		}
	}
	return out
}

// LogSink 默认通知出口：写入全局 logger。
type LogSink struct {
	Tag string // 日志标签，如 "burn" / "minters"
}

func (s *LogSink) ReportProgress(completed, total int) {
	logger.Infof("[%s] progress %d/%d", s.Tag, completed, total)
}

func (s *LogSink) ReportSuccess(msg string) {
	logger.Infof("[%s] %s", s.Tag, msg)
}

func (s *LogSink) ReportError(msg string) {
	logger.Errorf("[%s] %s", s.Tag, msg)
}
