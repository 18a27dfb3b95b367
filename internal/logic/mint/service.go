package mint

import (
	"context"
	"fmt"

	"nft-engine-sol/internal/chain"
	"nft-engine-sol/internal/logic/assembler"
	"nft-engine-sol/internal/logic/submit"
	"nft-engine-sol/internal/metaplex"
	"nft-engine-sol/internal/report"
	"nft-engine-sol/pkg/logger"
	"nft-engine-sol/pkg/types"

	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// Item 待铸造的一枚 NFT。
type Item struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             []metaplex.Creator
}

// Result 单枚铸造的结果。Mint 在组装前生成，失败时也有值，便于排查。
type Result struct {
	Item    Item
	Mint    types.Pubkey
	Outcome submit.Outcome
	Err     error
}

// Service NFT 铸造服务。
// 每枚 NFT 使用新生成的 mint keypair，与钱包共同签名；
// mint keypair 先签，钱包（fee payer）最后签。
type Service struct {
	asm     *assembler.Assembler
	machine *submit.Machine
	wallet  chain.Signer
	sinks   []report.Sink
}

func NewService(asm *assembler.Assembler, machine *submit.Machine, wallet chain.Signer, sinks ...report.Sink) *Service {
	return &Service{asm: asm, machine: machine, wallet: wallet, sinks: sinks}
}

// MintOne 铸造单枚 NFT，走完整提交流程。
func (s *Service) MintOne(ctx context.Context, item Item) Result {
	mintAccount := sdktypes.NewAccount()
	mintPubkey := metaplex.FromSDKPubkey(mintAccount.PublicKey)
	result := Result{Item: item, Mint: mintPubkey}

	mintSigner, err := chain.NewLocalSigner(mintAccount)
	if err != nil {
		result.Err = fmt.Errorf("create mint signer failed: %w", err)
		return result
	}

	params := assembler.MintParams{
		Wallet:               s.wallet.PublicKey(),
		Mint:                 mintPubkey,
		Name:                 item.Name,
		Symbol:               item.Symbol,
		Uri:                  item.Uri,
		SellerFeeBasisPoints: item.SellerFeeBasisPoints,
		Creators:             item.Creators,
		MaxSupply:            0, // 封存供应量，不可再版
	}
	build := func(ctx context.Context, blockhash types.Hash) (*sdktypes.Transaction, error) {
		return s.asm.BuildMintTransaction(ctx, params, blockhash)
	}

	result.Outcome, result.Err = s.machine.Execute(ctx, build, mintSigner, s.wallet)
	if result.Err == nil {
		logger.Infof("[mint] 铸造完成: mint=%s name=%q sig=%s", mintPubkey, item.Name, result.Outcome.Signature)
	}
	return result
}

// MintAll 按输入顺序串行铸造整批 NFT，单枚失败不中断批次。
func (s *Service) MintAll(ctx context.Context, items []Item) ([]Result, report.BatchReport) {
	reporter := report.NewReporter("mint", len(items), s.sinks...)
	results := make([]Result, 0, len(items))

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		res := s.MintOne(ctx, item)
		results = append(results, res)
		if res.Err != nil {
			reporter.AddFailure(res.Mint, res.Err, res.Outcome.Unknown)
		} else {
			reporter.AddSuccess(res.Mint, res.Outcome.Signature)
		}
		reporter.Progress(i+1, len(items))
	}

	summary := reporter.Finish()
	logger.Infof("[mint] 批次完成: %s", summary.Summary())
	return results, summary
}
