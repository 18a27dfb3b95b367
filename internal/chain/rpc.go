package chain

import (
	"context"

	"nft-engine-sol/pkg/types"
)

// SignatureInfo 地址历史中的一条交易签名记录。
type SignatureInfo struct {
	Signature string
	Slot      uint64
	BlockTime *int64 // 可能缺失
	Failed    bool   // 该交易在链上执行失败
}

// TxTokenBalance 交易执行后的 token 余额条目（仅保留本引擎关心的字段）。
type TxTokenBalance struct {
	Mint  string
	Owner string // 可能为空
}

// TxSummary 单笔已确认交易的摘要。
type TxSummary struct {
	Signature         string
	PostTokenBalances []TxTokenBalance
}

// TokenHolding 钱包持有的一个 token 账户。
// Account 是按 (mint, owner) 派生的关联账户地址，链上不存储该映射。
type TokenHolding struct {
	Mint    types.Pubkey
	Owner   types.Pubkey
	Account types.Pubkey
	Amount  uint64
}

// Confirmation 签名确认状态，按确认深度递增排序。
type Confirmation int

const (
	ConfirmationUnknown Confirmation = iota
	ConfirmationProcessed
	ConfirmationConfirmed
	ConfirmationFinalized
)

func (c Confirmation) String() string {
	switch c {
	case ConfirmationProcessed:
		return "processed"
	case ConfirmationConfirmed:
		return "confirmed"
	case ConfirmationFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// AtLeast 判断当前确认深度是否达到 level。
func (c Confirmation) AtLeast(level Confirmation) bool {
	return c >= level
}

// RPC 引擎消费的账本 RPC 面。所有实现必须可被多个在途操作并发使用。
type RPC interface {
	// LatestBlockhash 获取最新 blockhash。
	LatestBlockhash(ctx context.Context) (types.Hash, error)

	// MinimumBalanceForRentExemption 查询指定字节数账户的免租最低余额。
	MinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)

	// SignaturesForAddress 获取地址的历史交易签名（节点返回顺序，新在前）。
	SignaturesForAddress(ctx context.Context, addr types.Pubkey) ([]SignatureInfo, error)

	// Transaction 按签名获取已确认交易摘要；未找到时返回 (nil, nil)。
	Transaction(ctx context.Context, signature string) (*TxSummary, error)

	// AccountData 获取账户原始数据；账户不存在时返回 (nil, nil)。
	AccountData(ctx context.Context, addr types.Pubkey) ([]byte, error)

	// TokenAccountsByOwner 按 owner 过滤 Token Program 账户（dataSize=165 + memcmp(32)）。
	TokenAccountsByOwner(ctx context.Context, owner types.Pubkey) ([]TokenHolding, error)

	// SendRawTransaction 广播已签名交易字节，返回签名。
	SendRawTransaction(ctx context.Context, raw []byte) (string, error)

	// SignatureStatus 查询签名当前确认状态；未观察到时返回 ConfirmationUnknown。
	SignatureStatus(ctx context.Context, signature string) (Confirmation, error)
}
