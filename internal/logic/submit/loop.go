package submit

import (
	"context"
	"fmt"
	"time"

	"nft-engine-sol/internal/chain"
	"nft-engine-sol/pkg/logger"
)

// Outcome 单笔交易提交的最终结果。
// Unknown 表示至少一次广播已被节点接收但未观察到确认，
// 交易可能已经上链，调用方不得直接重签重发。
type Outcome struct {
	State     State
	Signature string
	Attempts  int
	Unknown   bool
}

// Loop 广播/确认循环：对同一份已签名交易字节反复
// sendRawTransaction + 轮询确认，固定间隔，尝试次数封顶。
type Loop struct {
	rpc        chain.RPC
	attempts   int
	retryDelay time.Duration
	commitment chain.Confirmation

	// 单次广播后的确认轮询参数
	pollInterval time.Duration
	pollCount    int
}

func NewLoop(rpc chain.RPC, attempts int, retryDelay time.Duration, commitment chain.Confirmation) *Loop {
	if attempts <= 0 {
		attempts = 6
	}
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}
	if commitment == chain.ConfirmationUnknown {
		commitment = chain.ConfirmationProcessed
	}
	return &Loop{
		rpc:          rpc,
		attempts:     attempts,
		retryDelay:   retryDelay,
		commitment:   commitment,
		pollInterval: 500 * time.Millisecond,
		pollCount:    10,
	}
}

// Run 执行广播/确认循环，raw 为已签名的完整交易字节。
// onState 可为 nil，用于外部观察 Broadcast/Confirming 切换。
func (l *Loop) Run(ctx context.Context, raw []byte, onState func(State)) (Outcome, error) {
	out := Outcome{State: StateBroadcast}
	notify := func(s State) {
		out.State = s
		if onState != nil {
			onState(s)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= l.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			out.State = StateFailed
			return out, err
		}
		out.Attempts = attempt

		// 1. 广播原始字节（重发同一签名是幂等的）
		notify(StateBroadcast)
		sig, err := l.rpc.SendRawTransaction(ctx, raw)
		if err != nil {
			lastErr = fmt.Errorf("broadcast failed: %w", err)
			logger.Warnf("[submit] 广播失败: attempt=%d/%d err=%v", attempt, l.attempts, err)
			if !l.backoff(ctx, attempt) {
				break
			}
			continue
		}
		out.Signature = sig
		out.Unknown = true

		// 2. 轮询确认状态
		notify(StateConfirming)
		confirmed, err := l.awaitConfirmation(ctx, sig)
		if err != nil {
			lastErr = err
			logger.Warnf("[submit] 确认失败: sig=%s attempt=%d/%d err=%v", sig, attempt, l.attempts, err)
			if !l.backoff(ctx, attempt) {
				break
			}
			continue
		}
		if confirmed {
			notify(StateConfirmed)
			out.Unknown = false
			logger.Infof("[submit] 交易确认: sig=%s attempts=%d commitment=%s", sig, attempt, l.commitment)
			return out, nil
		}

		lastErr = fmt.Errorf("confirmation not reached: sig=%s commitment=%s", sig, l.commitment)
		if !l.backoff(ctx, attempt) {
			break
		}
	}

	notify(StateFailed)
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, fmt.Errorf("submit exhausted after %d attempts: %w", out.Attempts, lastErr)
}

// awaitConfirmation 轮询签名状态直到达到目标确认级别或轮询额度用尽。
func (l *Loop) awaitConfirmation(ctx context.Context, sig string) (bool, error) {
	for i := 0; i < l.pollCount; i++ {
		status, err := l.rpc.SignatureStatus(ctx, sig)
		if err != nil {
			return false, fmt.Errorf("query signature status failed: %w", err)
		}
		if status.AtLeast(l.commitment) {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}
	return false, nil
}

// backoff 固定间隔等待下一次尝试。
// 额度用尽或 ctx 取消时返回 false，最后一次尝试后不再等待。
func (l *Loop) backoff(ctx context.Context, attempt int) bool {
	if attempt >= l.attempts {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(l.retryDelay):
		return true
	}
}
