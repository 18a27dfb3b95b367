package minters

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"nft-engine-sol/internal/chain"
	"nft-engine-sol/internal/runner"
	"nft-engine-sol/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRPC 仅实现本包用到的方法，其余直接 panic。
type fakeRPC struct {
	mu           sync.Mutex
	sigCalls     int
	signaturesFn func(addr types.Pubkey) ([]chain.SignatureInfo, error)
	txFn         func(sig string) (*chain.TxSummary, error)
}

func (f *fakeRPC) SignaturesForAddress(_ context.Context, addr types.Pubkey) ([]chain.SignatureInfo, error) {
	f.mu.Lock()
	f.sigCalls++
	f.mu.Unlock()
	return f.signaturesFn(addr)
}

func (f *fakeRPC) Transaction(_ context.Context, sig string) (*chain.TxSummary, error) {
	return f.txFn(sig)
}

func (f *fakeRPC) LatestBlockhash(context.Context) (types.Hash, error) { panic("unexpected") }
func (f *fakeRPC) MinimumBalanceForRentExemption(context.Context, uint64) (uint64, error) {
	panic("unexpected")
}
func (f *fakeRPC) AccountData(context.Context, types.Pubkey) ([]byte, error) { panic("unexpected") }
func (f *fakeRPC) TokenAccountsByOwner(context.Context, types.Pubkey) ([]chain.TokenHolding, error) {
	panic("unexpected")
}
func (f *fakeRPC) SendRawTransaction(context.Context, []byte) (string, error) { panic("unexpected") }
func (f *fakeRPC) SignatureStatus(context.Context, string) (chain.Confirmation, error) {
	panic("unexpected")
}

func int64Ptr(v int64) *int64 { return &v }

func testMint(i byte) types.Pubkey {
	var p types.Pubkey
	p[0] = i
	p[31] = 1
	return p
}

// 正常路径：取 blockTime 最早的签名，读取首条 post token balance 的 owner
func TestResolveOwnerPicksEarliest(t *testing.T) {
	rpc := &fakeRPC{
		signaturesFn: func(types.Pubkey) ([]chain.SignatureInfo, error) {
			return []chain.SignatureInfo{
				{Signature: "sig-new", BlockTime: int64Ptr(300)},
				{Signature: "sig-mid", BlockTime: int64Ptr(200)},
				{Signature: "sig-old", BlockTime: int64Ptr(100)},
			}, nil
		},
		txFn: func(sig string) (*chain.TxSummary, error) {
			require.Equal(t, "sig-old", sig)
			return &chain.TxSummary{
				Signature:         sig,
				PostTokenBalances: []chain.TxTokenBalance{{Mint: "m", Owner: "owner-1"}},
			}, nil
		},
	}

	resolver := NewResolver(rpc, 5)
	resolver.delay = 0

	record, err := resolver.ResolveOwner(context.Background(), testMint(1))
	require.NoError(t, err)
	assert.Equal(t, "owner-1", record.Owner)
	assert.Equal(t, testMint(1), record.Mint)
	assert.Equal(t, 1, rpc.sigCalls)
}

// 持续失败时恰好尝试 5 次
func TestResolveOwnerRetriesFiveTimes(t *testing.T) {
	rpc := &fakeRPC{
		signaturesFn: func(types.Pubkey) ([]chain.SignatureInfo, error) {
			return nil, errors.New("rpc unavailable")
		},
	}

	resolver := NewResolver(rpc, 5)
	resolver.delay = 0

	_, err := resolver.ResolveOwner(context.Background(), testMint(2))
	require.Error(t, err)
	assert.False(t, errors.Is(err, runner.ErrSkipped))
	assert.Equal(t, 5, rpc.sigCalls)
}

// 历史为空是软未命中，不重试
func TestResolveOwnerEmptyHistorySkipped(t *testing.T) {
	rpc := &fakeRPC{
		signaturesFn: func(types.Pubkey) ([]chain.SignatureInfo, error) {
			return nil, nil
		},
	}

	resolver := NewResolver(rpc, 5)
	resolver.delay = 0

	_, err := resolver.ResolveOwner(context.Background(), testMint(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, runner.ErrSkipped))
	assert.Equal(t, 1, rpc.sigCalls)
}

// 首笔交易缺少 owner 同样视为软未命中
func TestResolveOwnerMissingOwnerSkipped(t *testing.T) {
	rpc := &fakeRPC{
		signaturesFn: func(types.Pubkey) ([]chain.SignatureInfo, error) {
			return []chain.SignatureInfo{{Signature: "sig-1", BlockTime: int64Ptr(10)}}, nil
		},
		txFn: func(string) (*chain.TxSummary, error) {
			return &chain.TxSummary{Signature: "sig-1"}, nil
		},
	}

	resolver := NewResolver(rpc, 5)
	resolver.delay = 0

	_, err := resolver.ResolveOwner(context.Background(), testMint(4))
	require.Error(t, err)
	assert.True(t, errors.Is(err, runner.ErrSkipped))
}

// 缺失 blockTime 的记录不参与最早判定
func TestEarliestSignatureNilBlockTime(t *testing.T) {
	sigs := []chain.SignatureInfo{
		{Signature: "a", BlockTime: nil},
		{Signature: "b", BlockTime: int64Ptr(50)},
		{Signature: "c", BlockTime: int64Ptr(20)},
	}
	assert.Equal(t, "c", earliestSignature(sigs).Signature)

	only := []chain.SignatureInfo{{Signature: "x", BlockTime: nil}}
	assert.Equal(t, "x", earliestSignature(only).Signature)
}

// 部分失败不影响其余项，汇总计数一致
func TestServicePartialFailure(t *testing.T) {
	rpc := &fakeRPC{
		signaturesFn: func(addr types.Pubkey) ([]chain.SignatureInfo, error) {
			switch addr[0] % 3 {
			case 0:
				return nil, errors.New("rpc down")
			case 1:
				return nil, nil // 软未命中
			default:
				return []chain.SignatureInfo{{Signature: fmt.Sprintf("sig-%d", addr[0]), BlockTime: int64Ptr(1)}}, nil
			}
		},
		txFn: func(sig string) (*chain.TxSummary, error) {
			return &chain.TxSummary{
				Signature:         sig,
				PostTokenBalances: []chain.TxTokenBalance{{Owner: "owner-" + sig}},
			}, nil
		},
	}

	svc := NewService(rpc, 6, 1)
	mints := make([]types.Pubkey, 9)
	for i := range mints {
		mints[i] = testMint(byte(i))
	}

	records, summary, err := svc.Run(context.Background(), mints)
	require.NoError(t, err)
	assert.Equal(t, 9, summary.Total)
	assert.Len(t, records, 3)
	assert.Len(t, summary.Failures, 3)
	assert.Equal(t, 3, summary.Skipped)
	assert.False(t, summary.FullSuccess())
}

func TestWriteRecords(t *testing.T) {
	dir := t.TempDir()
	records := []MinterRecord{{Mint: testMint(1), Owner: "owner-a"}}

	path, err := WriteRecords(dir, records)
	require.NoError(t, err)
	assert.Contains(t, path, "Minters-")
	assert.FileExists(t, path)
}
