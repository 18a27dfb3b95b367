package submit

import (
	"context"
	"errors"
	"testing"
	"time"

	"nft-engine-sol/internal/chain"
	"nft-engine-sol/pkg/types"

	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRPC struct {
	sendCalls   int
	statusCalls int
	sendFn      func(attempt int) (string, error)
	statusFn    func(call int) (chain.Confirmation, error)
	blockhash   types.Hash
}

func (f *fakeRPC) SendRawTransaction(_ context.Context, _ []byte) (string, error) {
	f.sendCalls++
	return f.sendFn(f.sendCalls)
}

func (f *fakeRPC) SignatureStatus(_ context.Context, _ string) (chain.Confirmation, error) {
	f.statusCalls++
	return f.statusFn(f.statusCalls)
}

func (f *fakeRPC) LatestBlockhash(context.Context) (types.Hash, error) {
	return f.blockhash, nil
}

func (f *fakeRPC) MinimumBalanceForRentExemption(context.Context, uint64) (uint64, error) {
	panic("unexpected")
}
func (f *fakeRPC) SignaturesForAddress(context.Context, types.Pubkey) ([]chain.SignatureInfo, error) {
	panic("unexpected")
}
func (f *fakeRPC) Transaction(context.Context, string) (*chain.TxSummary, error) {
	panic("unexpected")
}
func (f *fakeRPC) AccountData(context.Context, types.Pubkey) ([]byte, error) { panic("unexpected") }
func (f *fakeRPC) TokenAccountsByOwner(context.Context, types.Pubkey) ([]chain.TokenHolding, error) {
	panic("unexpected")
}

func fastLoop(rpc chain.RPC) *Loop {
	l := NewLoop(rpc, 6, time.Millisecond, chain.ConfirmationProcessed)
	l.pollInterval = time.Millisecond
	l.pollCount = 1
	return l
}

// 首次广播即确认
func TestLoopFirstAttemptConfirmed(t *testing.T) {
	rpc := &fakeRPC{
		sendFn:   func(int) (string, error) { return "sig-1", nil },
		statusFn: func(int) (chain.Confirmation, error) { return chain.ConfirmationProcessed, nil },
	}

	out, err := fastLoop(rpc).Run(context.Background(), []byte{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, out.State)
	assert.Equal(t, "sig-1", out.Signature)
	assert.Equal(t, 1, out.Attempts)
	assert.False(t, out.Unknown)
	assert.Equal(t, 1, rpc.sendCalls)
}

// 广播持续被拒时恰好尝试 6 次，且未进入不确定状态
func TestLoopExhaustsSixAttempts(t *testing.T) {
	rpc := &fakeRPC{
		sendFn: func(int) (string, error) { return "", errors.New("node rejected") },
	}

	out, err := fastLoop(rpc).Run(context.Background(), []byte{1}, nil)
	require.Error(t, err)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, 6, out.Attempts)
	assert.Equal(t, 6, rpc.sendCalls)
	assert.False(t, out.Unknown)
}

// 额度用尽后立即返回，不再等最后一个重试间隔
func TestLoopNoDelayAfterFinalAttempt(t *testing.T) {
	rpc := &fakeRPC{
		sendFn: func(int) (string, error) { return "", errors.New("node rejected") },
	}
	loop := NewLoop(rpc, 1, time.Hour, chain.ConfirmationProcessed)

	start := time.Now()
	out, err := loop.Run(context.Background(), []byte{1}, nil)
	require.Error(t, err)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, 1, out.Attempts)
	assert.Less(t, time.Since(start), time.Second)
}

// 广播被接收但始终未确认：结果不确定（可能已上链）
func TestLoopUnknownWhenAcceptedButUnconfirmed(t *testing.T) {
	rpc := &fakeRPC{
		sendFn:   func(int) (string, error) { return "sig-x", nil },
		statusFn: func(int) (chain.Confirmation, error) { return chain.ConfirmationUnknown, nil },
	}

	out, err := fastLoop(rpc).Run(context.Background(), []byte{1}, nil)
	require.Error(t, err)
	assert.Equal(t, StateFailed, out.State)
	assert.True(t, out.Unknown)
	assert.Equal(t, "sig-x", out.Signature)
}

// 前两次广播失败，第三次成功并确认
func TestLoopRecoversAfterTransientFailures(t *testing.T) {
	rpc := &fakeRPC{
		sendFn: func(attempt int) (string, error) {
			if attempt <= 2 {
				return "", errors.New("blockhash not found")
			}
			return "sig-ok", nil
		},
		statusFn: func(int) (chain.Confirmation, error) { return chain.ConfirmationProcessed, nil },
	}

	out, err := fastLoop(rpc).Run(context.Background(), []byte{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, out.State)
	assert.Equal(t, 3, out.Attempts)
	assert.False(t, out.Unknown)
}

// ctx 取消立即停止，不再继续重试
func TestLoopContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rpc := &fakeRPC{
		sendFn: func(int) (string, error) { return "", errors.New("should not retry") },
	}

	out, err := fastLoop(rpc).Run(ctx, []byte{1}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, 0, rpc.sendCalls)
}

type rejectingSigner struct{ pub types.Pubkey }

func (s *rejectingSigner) PublicKey() types.Pubkey { return s.pub }
func (s *rejectingSigner) SignTransaction(context.Context, *sdktypes.Transaction) error {
	return errors.New("user rejected")
}

// 签名被拒是终态：不广播、结果确定为失败
func TestMachineSignRejectionTerminal(t *testing.T) {
	rpc := &fakeRPC{blockhash: types.Hash{1}}
	machine := NewMachine(rpc, fastLoop(rpc), 1)

	var transitions []State
	machine.OnTransition(func(_, to State) { transitions = append(transitions, to) })

	build := func(_ context.Context, _ types.Hash) (*sdktypes.Transaction, error) {
		return &sdktypes.Transaction{}, nil
	}

	out, err := machine.Execute(context.Background(), build, &rejectingSigner{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign rejected")
	assert.Equal(t, StateFailed, out.State)
	assert.False(t, out.Unknown)
	assert.Equal(t, 0, rpc.sendCalls)
	assert.Equal(t, []State{StateBuilding, StateFailed}, transitions)
}

// 完整生命周期：组装、签名、广播、确认，状态单向推进
func TestMachineFullLifecycle(t *testing.T) {
	payer := sdktypes.NewAccount()
	rpc := &fakeRPC{
		blockhash: types.Hash{2},
		sendFn:    func(int) (string, error) { return "sig-life", nil },
		statusFn:  func(int) (chain.Confirmation, error) { return chain.ConfirmationProcessed, nil },
	}
	machine := NewMachine(rpc, fastLoop(rpc), 1)

	var transitions []State
	machine.OnTransition(func(_, to State) { transitions = append(transitions, to) })

	build := func(_ context.Context, blockhash types.Hash) (*sdktypes.Transaction, error) {
		msg := sdktypes.NewMessage(sdktypes.NewMessageParam{
			FeePayer:        payer.PublicKey,
			RecentBlockhash: blockhash.String(),
			Instructions: []sdktypes.Instruction{{
				ProgramID: payer.PublicKey,
				Accounts: []sdktypes.AccountMeta{
					{PubKey: payer.PublicKey, IsSigner: true, IsWritable: true},
				},
				Data: []byte{0},
			}},
		})
		tx, err := sdktypes.NewTransaction(sdktypes.NewTransactionParam{
			Message: msg,
			Signers: []sdktypes.Account{payer},
		})
		if err != nil {
			return nil, err
		}
		return &tx, nil
	}

	out, err := machine.Execute(context.Background(), build)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, out.State)
	assert.Equal(t, "sig-life", out.Signature)
	assert.Equal(t,
		[]State{StateBuilding, StateSigned, StateBroadcast, StateConfirming, StateConfirmed},
		transitions)
}

func TestStateStringsAndTerminal(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "confirmed", StateConfirmed.String())
	assert.True(t, StateConfirmed.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateConfirming.Terminal())
}
