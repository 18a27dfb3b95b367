package minters

import (
	"context"
	"fmt"
	"time"

	"nft-engine-sol/internal/chain"
	"nft-engine-sol/internal/runner"
	"nft-engine-sol/pkg/logger"
	"nft-engine-sol/pkg/types"

	"github.com/avast/retry-go/v4"
)

// MinterRecord 单个 mint 的首铸者解析结果。
type MinterRecord struct {
	Mint  types.Pubkey `json:"mint"`
	Owner string       `json:"owner"`
}

// Resolver 按 mint 地址解析首铸者：
// 取地址历史中 blockTime 最早的签名，读取该交易的首条 post token balance 的 owner。
type Resolver struct {
	rpc      chain.RPC
	attempts int
	delay    time.Duration
}

func NewResolver(rpc chain.RPC, attempts int) *Resolver {
	if attempts <= 0 {
		attempts = 5
	}
	return &Resolver{rpc: rpc, attempts: attempts, delay: 300 * time.Millisecond}
}

// ResolveOwner 解析单个 mint 的首铸者。
// 历史为空或首笔交易缺少 owner 视为软未命中（runner.ErrSkipped），不参与重试。
func (r *Resolver) ResolveOwner(ctx context.Context, mint types.Pubkey) (MinterRecord, error) {
	var record MinterRecord
	err := retry.Do(
		func() error {
			owner, err := r.resolveOnce(ctx, mint)
			if err != nil {
				return err
			}
			record = MinterRecord{Mint: mint, Owner: owner}
			return nil
		},
		retry.Attempts(uint(r.attempts)),
		retry.Delay(r.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Warnf("[minters] 解析重试: mint=%s attempt=%d err=%v", mint, n+1, err)
		}),
	)
	return record, err
}

func (r *Resolver) resolveOnce(ctx context.Context, mint types.Pubkey) (string, error) {
	// 1. 拉取地址全部历史签名
	sigs, err := r.rpc.SignaturesForAddress(ctx, mint)
	if err != nil {
		return "", fmt.Errorf("fetch signatures failed: mint=%s: %w", mint, err)
	}
	if len(sigs) == 0 {
		// 无链上历史，软未命中，重试无意义
		return "", retry.Unrecoverable(fmt.Errorf("%w: no transaction history for %s", runner.ErrSkipped, mint))
	}

	// 2. 取 blockTime 最早的一条（缺失 blockTime 的视为最早之后）
	earliest := earliestSignature(sigs)

	// 3. 读取该笔交易，首条 post token balance 的 owner 即首铸者
	tx, err := r.rpc.Transaction(ctx, earliest.Signature)
	if err != nil {
		return "", fmt.Errorf("fetch transaction failed: sig=%s: %w", earliest.Signature, err)
	}
	if tx == nil {
		return "", fmt.Errorf("transaction not found: sig=%s", earliest.Signature)
	}
	if len(tx.PostTokenBalances) == 0 || tx.PostTokenBalances[0].Owner == "" {
		return "", retry.Unrecoverable(fmt.Errorf("%w: no owner in earliest transaction %s", runner.ErrSkipped, earliest.Signature))
	}
	return tx.PostTokenBalances[0].Owner, nil
}

// earliestSignature 选出 blockTime 最小的签名记录。
func earliestSignature(sigs []chain.SignatureInfo) chain.SignatureInfo {
	best := sigs[0]
	for _, s := range sigs[1:] {
		if s.BlockTime == nil {
			continue
		}
		if best.BlockTime == nil || *s.BlockTime < *best.BlockTime {
			best = s
		}
	}
	return best
}
