package assembler

import (
	"context"
	"fmt"

	"nft-engine-sol/internal/chain"
	"nft-engine-sol/internal/consts"
	"nft-engine-sol/internal/metaplex"
	"nft-engine-sol/pkg/types"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// MintParams 铸造一枚 NFT 所需的全部输入。
// Mint 必须是新生成的 keypair 公钥，该 keypair 与钱包共同签名。
type MintParams struct {
	Wallet               types.Pubkey // 付费方、权限方、接收方
	Mint                 types.Pubkey
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             []metaplex.Creator
	MaxSupply            uint64
}

// Assembler 组装 NFT 铸造交易。
// 免租金额每笔交易现查现用，不做缓存，避免链上参数调整后组装出欠租账户。
type Assembler struct {
	rpc chain.RPC
}

func NewAssembler(rpc chain.RPC) *Assembler {
	return &Assembler{rpc: rpc}
}

// BuildMintTransaction 组装六指令铸造交易，指令顺序即账户依赖顺序，不可调整：
//
//  1. System 创建 mint 账户（82 字节，免租入金）
//  2. InitializeMint（decimals=0）
//  3. 创建钱包的关联 token 账户
//  4. MintTo 数量 1
//  5. CreateMetadataAccount（metadata PDA）
//  6. CreateMasterEdition（edition PDA，封存供应量）
//
// 返回未签名交易，签名由调用方驱动（钱包 + mint keypair）。
func (a *Assembler) BuildMintTransaction(ctx context.Context, params MintParams, blockhash types.Hash) (*sdktypes.Transaction, error) {
	if params.Wallet.IsZero() || params.Mint.IsZero() {
		return nil, fmt.Errorf("wallet and mint are required")
	}

	rent, err := a.rpc.MinimumBalanceForRentExemption(ctx, consts.MintAccountSize)
	if err != nil {
		return nil, fmt.Errorf("fetch rent exemption failed: %w", err)
	}

	ata, err := metaplex.DeriveAssociatedTokenAccount(params.Wallet, params.Mint)
	if err != nil {
		return nil, err
	}
	metadataPDA, err := metaplex.DeriveMetadataAccount(params.Mint)
	if err != nil {
		return nil, err
	}
	editionPDA, err := metaplex.DeriveMasterEditionAccount(params.Mint)
	if err != nil {
		return nil, err
	}

	wallet := metaplex.ToSDKPubkey(params.Wallet)
	mint := metaplex.ToSDKPubkey(params.Mint)

	// 创作者缺省为钱包自身独占 100%
	creators := params.Creators
	if len(creators) == 0 {
		creators = []metaplex.Creator{{Address: params.Wallet, Verified: true, Share: 100}}
	}
	data := metaplex.Data{
		Name:                 params.Name,
		Symbol:               params.Symbol,
		Uri:                  params.Uri,
		SellerFeeBasisPoints: params.SellerFeeBasisPoints,
		Creators:             &creators,
	}

	metadataIx, err := metaplex.CreateMetadataAccountInstruction(
		metadataPDA, params.Mint, params.Wallet, params.Wallet, params.Wallet, data, true)
	if err != nil {
		return nil, err
	}
	editionIx, err := metaplex.CreateMasterEditionInstruction(
		editionPDA, params.Mint, params.Wallet, params.Wallet, params.Wallet, metadataPDA, params.MaxSupply)
	if err != nil {
		return nil, err
	}

	instructions := []sdktypes.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     wallet,
			New:      mint,
			Owner:    common.TokenProgramID,
			Lamports: rent,
			Space:    consts.MintAccountSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   0,
			Mint:       mint,
			MintAuth:   wallet,
			FreezeAuth: &wallet,
		}),
		associated_token_account.Create(associated_token_account.CreateParam{
			Funder:                 wallet,
			Owner:                  wallet,
			Mint:                   mint,
			AssociatedTokenAccount: metaplex.ToSDKPubkey(ata),
		}),
		token.MintTo(token.MintToParam{
			Mint:   mint,
			To:     metaplex.ToSDKPubkey(ata),
			Auth:   wallet,
			Amount: 1,
		}),
		metadataIx,
		editionIx,
	}

	msg := sdktypes.NewMessage(sdktypes.NewMessageParam{
		FeePayer:        wallet,
		RecentBlockhash: blockhash.String(),
		Instructions:    instructions,
	})
	// AddSignature 按签名位写入，签名槽必须预先分配
	return &sdktypes.Transaction{
		Signatures: make([]sdktypes.Signature, msg.Header.NumRequireSignatures),
		Message:    msg,
	}, nil
}
