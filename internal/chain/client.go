package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"nft-engine-sol/internal/consts"
	"nft-engine-sol/pkg/types"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
)

// Client 基于 solana-go-sdk 的 RPC 实现。
// 每次调用都套用固定超时，保证批处理整体耗时有界。
type Client struct {
	cli     *client.Client
	raw     *rpc.RpcClient
	timeout time.Duration
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	raw := rpc.NewRpcClient(endpoint)
	return &Client{
		cli:     client.NewClient(endpoint),
		raw:     &raw,
		timeout: timeout,
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) LatestBlockhash(ctx context.Context) (types.Hash, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.cli.GetLatestBlockhash(ctx)
	if err != nil {
		return types.Hash{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}
	h, err := types.HashFromBase58(resp.Blockhash)
	if err != nil {
		return types.Hash{}, fmt.Errorf("invalid blockhash %q: %w", resp.Blockhash, err)
	}
	return h, nil
}

func (c *Client) MinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	lamports, err := c.cli.GetMinimumBalanceForRentExemption(ctx, dataLen)
	if err != nil {
		return 0, fmt.Errorf("getMinimumBalanceForRentExemption failed: %w", err)
	}
	return lamports, nil
}

func (c *Client) SignaturesForAddress(ctx context.Context, addr types.Pubkey) ([]SignatureInfo, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sigs, err := c.cli.GetSignaturesForAddress(ctx, addr.String())
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress failed: addr=%s: %w", addr, err)
	}

	out := make([]SignatureInfo, 0, len(sigs))
	for _, s := range sigs {
		out = append(out, SignatureInfo{
			Signature: s.Signature,
			Slot:      s.Slot,
			BlockTime: s.BlockTime,
			Failed:    s.Err != nil,
		})
	}
	return out, nil
}

func (c *Client) Transaction(ctx context.Context, signature string) (*TxSummary, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tx, err := c.cli.GetTransaction(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("getTransaction failed: sig=%s: %w", signature, err)
	}
	if tx == nil {
		return nil, nil
	}

	summary := &TxSummary{Signature: signature}
	if tx.Meta != nil {
		for _, b := range tx.Meta.PostTokenBalances {
			summary.PostTokenBalances = append(summary.PostTokenBalances, TxTokenBalance{
				Mint:  b.Mint,
				Owner: b.Owner,
			})
		}
	}
	return summary, nil
}

func (c *Client) AccountData(ctx context.Context, addr types.Pubkey) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	info, err := c.cli.GetAccountInfo(ctx, addr.String())
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo failed: addr=%s: %w", addr, err)
	}
	return info.Data, nil
}

func (c *Client) TokenAccountsByOwner(ctx context.Context, owner types.Pubkey) ([]TokenHolding, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	// 按数据长度 165 + owner 字段 memcmp 过滤 Token Program 账户
	resp, err := c.raw.GetProgramAccountsWithConfig(ctx, consts.TokenProgramStr, rpc.GetProgramAccountsConfig{
		Encoding: rpc.AccountEncodingBase64,
		Filters: []rpc.GetProgramAccountsConfigFilter{
			{DataSize: consts.TokenAccountSize},
			{MemCmp: &rpc.GetProgramAccountsConfigFilterMemCmp{
				Offset: consts.TokenAccountOwnerOffset,
				Bytes:  owner.String(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getProgramAccounts failed: owner=%s: %w", owner, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getProgramAccounts rpc error: owner=%s: %v", owner, resp.Error)
	}

	holdings := make([]TokenHolding, 0, len(resp.Result))
	for _, acc := range resp.Result {
		account, err := types.TryPubkeyFromBase58(acc.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("invalid account pubkey %q: %w", acc.Pubkey, err)
		}
		data, err := decodeAccountData(acc.Account.Data)
		if err != nil {
			return nil, fmt.Errorf("decode account data failed: account=%s: %w", acc.Pubkey, err)
		}
		mint, accOwner, amount, err := ParseTokenAccount(data)
		if err != nil {
			return nil, fmt.Errorf("parse token account failed: account=%s: %w", acc.Pubkey, err)
		}
		holdings = append(holdings, TokenHolding{
			Mint:    mint,
			Owner:   accOwner,
			Account: account,
			Amount:  amount,
		})
	}
	return holdings, nil
}

func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	// 走底层 RPC 透传已签名字节，重播时不重新序列化
	resp, err := c.raw.SendTransactionWithConfig(ctx,
		base64.StdEncoding.EncodeToString(raw),
		rpc.SendTransactionConfig{Encoding: rpc.SendTransactionConfigEncodingBase64},
	)
	if err != nil {
		return "", fmt.Errorf("sendTransaction failed: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("sendTransaction rpc error: %v", resp.Error)
	}
	return resp.Result, nil
}

func (c *Client) SignatureStatus(ctx context.Context, signature string) (Confirmation, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	status, err := c.cli.GetSignatureStatus(ctx, signature)
	if err != nil {
		return ConfirmationUnknown, fmt.Errorf("getSignatureStatuses failed: sig=%s: %w", signature, err)
	}
	if status == nil {
		return ConfirmationUnknown, nil
	}
	if status.Err != nil {
		return ConfirmationUnknown, fmt.Errorf("transaction failed on chain: sig=%s err=%v", signature, status.Err)
	}
	if status.ConfirmationStatus == nil {
		return ConfirmationUnknown, nil
	}

	switch *status.ConfirmationStatus {
	case rpc.CommitmentProcessed:
		return ConfirmationProcessed, nil
	case rpc.CommitmentConfirmed:
		return ConfirmationConfirmed, nil
	case rpc.CommitmentFinalized:
		return ConfirmationFinalized, nil
	default:
		return ConfirmationUnknown, nil
	}
}

// decodeAccountData 解析 getProgramAccounts 返回的 [base64, "base64"] 数据对。
func decodeAccountData(data any) ([]byte, error) {
	pair, ok := data.([]any)
	if !ok || len(pair) < 2 {
		return nil, fmt.Errorf("unexpected account data shape: %T", data)
	}
	encoded, ok := pair[0].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected account data payload: %T", pair[0])
	}
	if enc, ok := pair[1].(string); !ok || enc != "base64" {
		return nil, fmt.Errorf("unexpected account data encoding: %v", pair[1])
	}
	return base64.StdEncoding.DecodeString(encoded)
}
