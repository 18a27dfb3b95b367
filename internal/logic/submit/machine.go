package submit

import (
	"context"
	"fmt"

	"nft-engine-sol/internal/chain"
	"nft-engine-sol/pkg/logger"
	"nft-engine-sol/pkg/types"

	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// BuildFunc 用给定 blockhash 组装一笔未签名交易。
type BuildFunc func(ctx context.Context, blockhash types.Hash) (*sdktypes.Transaction, error)

// Machine 驱动单笔交易的完整提交流程：
// 取 blockhash -> 组装 -> 依次签名 -> 序列化 -> 广播/确认循环。
// 签名被拒是终态，不进入广播；广播之后的失败可能已上链（Outcome.Unknown）。
type Machine struct {
	rpc               chain.RPC
	loop              *Loop
	blockhashAttempts int
	onTransition      func(from, to State)
}

func NewMachine(rpc chain.RPC, loop *Loop, blockhashAttempts int) *Machine {
	return &Machine{rpc: rpc, loop: loop, blockhashAttempts: blockhashAttempts}
}

// OnTransition 注册状态切换回调（可选，观测用）。
func (m *Machine) OnTransition(fn func(from, to State)) {
	m.onTransition = fn
}

// Execute 执行一笔交易的完整生命周期。
func (m *Machine) Execute(ctx context.Context, build BuildFunc, signers ...chain.Signer) (Outcome, error) {
	state := StateIdle
	transition := func(to State) {
		if m.onTransition != nil {
			m.onTransition(state, to)
		}
		logger.Debugf("[submit] 状态切换: %s -> %s", state, to)
		state = to
	}

	// 1. 组装（含 blockhash 获取，有界重试）
	transition(StateBuilding)
	hash, err := chain.LatestBlockhashWithRetry(ctx, m.rpc, m.blockhashAttempts)
	if err != nil {
		transition(StateFailed)
		return Outcome{State: StateFailed}, fmt.Errorf("fetch blockhash failed: %w", err)
	}
	tx, err := build(ctx, hash)
	if err != nil {
		transition(StateFailed)
		return Outcome{State: StateFailed}, fmt.Errorf("build transaction failed: %w", err)
	}

	// 2. 依次签名。任一签名者拒签即终止，交易未广播，可安全放弃
	for _, signer := range signers {
		if err := signer.SignTransaction(ctx, tx); err != nil {
			transition(StateFailed)
			return Outcome{State: StateFailed}, fmt.Errorf("sign rejected by %s: %w", signer.PublicKey(), err)
		}
	}
	transition(StateSigned)

	raw, err := tx.Serialize()
	if err != nil {
		transition(StateFailed)
		return Outcome{State: StateFailed}, fmt.Errorf("serialize transaction failed: %w", err)
	}

	// 3. 广播/确认循环
	out, err := m.loop.Run(ctx, raw, func(s State) { transition(s) })
	return out, err
}
