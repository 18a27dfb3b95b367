package burn

import (
	"context"
	"fmt"

	"nft-engine-sol/internal/chain"
	"nft-engine-sol/internal/logic/submit"
	"nft-engine-sol/internal/metaplex"
	"nft-engine-sol/internal/report"
	"nft-engine-sol/pkg/logger"
	"nft-engine-sol/pkg/types"

	"github.com/blocto/solana-go-sdk/program/token"
	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// Holding 钱包持仓中的一项，可附带元数据用于展示。
type Holding struct {
	chain.TokenHolding
	Meta *metaplex.TokenMetadata // 可为 nil
}

// Service 钱包持仓销毁服务。
// 销毁严格串行：一笔确认后才提交下一笔，避免同钱包交易相互挤占。
type Service struct {
	rpc      chain.RPC
	machine  *submit.Machine
	resolver *metaplex.Resolver // 可为 nil，表示不做元数据富化
	signer   chain.Signer
	sinks    []report.Sink
}

func NewService(rpc chain.RPC, machine *submit.Machine, resolver *metaplex.Resolver, signer chain.Signer, sinks ...report.Sink) *Service {
	return &Service{rpc: rpc, machine: machine, resolver: resolver, signer: signer, sinks: sinks}
}

// LoadHoldings 枚举钱包当前全部非零持仓，按需富化元数据。
// 单项元数据失败不影响持仓本身，仅缺少展示信息。
func (s *Service) LoadHoldings(ctx context.Context) ([]Holding, error) {
	owner := s.signer.PublicKey()
	accounts, err := s.rpc.TokenAccountsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load token accounts failed: owner=%s: %w", owner, err)
	}

	holdings := make([]Holding, 0, len(accounts))
	for _, acc := range accounts {
		if acc.Amount == 0 {
			continue
		}
		h := Holding{TokenHolding: acc}
		if s.resolver != nil {
			meta, err := s.resolver.Resolve(ctx, acc.Mint)
			if err != nil {
				logger.Warnf("[burn] 元数据解析失败（忽略）: mint=%s err=%v", acc.Mint, err)
			} else {
				h.Meta = meta
			}
		}
		holdings = append(holdings, h)
	}
	logger.Infof("[burn] 持仓加载完成: owner=%s count=%d", owner, len(holdings))
	return holdings, nil
}

// BurnOne 销毁一项持仓：burn 1 枚后 closeAccount 回收租金，单笔交易内完成。
func (s *Service) BurnOne(ctx context.Context, h Holding) (submit.Outcome, error) {
	owner := s.signer.PublicKey()
	build := func(_ context.Context, blockhash types.Hash) (*sdktypes.Transaction, error) {
		return buildBurnTransaction(owner, h.TokenHolding, blockhash)
	}
	out, err := s.machine.Execute(ctx, build, s.signer)
	if err != nil {
		return out, fmt.Errorf("burn failed: mint=%s: %w", h.Mint, err)
	}
	logger.Infof("[burn] 销毁完成: mint=%s sig=%s", h.Mint, out.Signature)
	return out, nil
}

// ItemResult 批量销毁中单项的结果。
type ItemResult struct {
	Holding Holding
	Outcome submit.Outcome
	Err     error
}

// BurnAll 按输入顺序串行销毁整组持仓，一笔确认后才提交下一笔。
// 单项失败不中断批次，只有 ctx 取消才提前返回。
// 第二个返回值是未确认成功的剩余持仓（失败与不确定项保留，供重试）。
func (s *Service) BurnAll(ctx context.Context, holdings []Holding) ([]ItemResult, []Holding) {
	reporter := report.NewReporter("burn", len(holdings), s.sinks...)
	results := make([]ItemResult, 0, len(holdings))
	var remaining []Holding

	for i, h := range holdings {
		if ctx.Err() != nil {
			remaining = append(remaining, holdings[i:]...)
			break
		}
		out, err := s.BurnOne(ctx, h)
		results = append(results, ItemResult{Holding: h, Outcome: out, Err: err})
		if err != nil {
			remaining = append(remaining, h)
			reporter.AddFailure(h.Mint, err, out.Unknown)
		} else {
			reporter.AddSuccess(h.Mint, out.Signature)
		}
		reporter.Progress(i+1, len(holdings))
	}

	summary := reporter.Finish()
	logger.Infof("[burn] 批次完成: %s", summary.Summary())
	return results, remaining
}

// buildBurnTransaction 组装 burn + closeAccount 指令对。
// NFT 余额固定为 1，burn 数量写死 1，账户清零后即可关闭回收租金。
func buildBurnTransaction(owner types.Pubkey, h chain.TokenHolding, blockhash types.Hash) (*sdktypes.Transaction, error) {
	ownerKey := metaplex.ToSDKPubkey(owner)
	account := metaplex.ToSDKPubkey(h.Account)
	mint := metaplex.ToSDKPubkey(h.Mint)

	instructions := []sdktypes.Instruction{
		token.Burn(token.BurnParam{
			Account: account,
			Mint:    mint,
			Auth:    ownerKey,
			Amount:  1,
		}),
		token.CloseAccount(token.CloseAccountParam{
			Account: account,
			Auth:    ownerKey,
			To:      ownerKey,
		}),
	}

	msg := sdktypes.NewMessage(sdktypes.NewMessageParam{
		FeePayer:        ownerKey,
		RecentBlockhash: blockhash.String(),
		Instructions:    instructions,
	})
	// AddSignature 按签名位写入，签名槽必须预先分配
	return &sdktypes.Transaction{
		Signatures: make([]sdktypes.Signature, msg.Header.NumRequireSignatures),
		Message:    msg,
	}, nil
}
