package assembler

import (
	"context"
	"encoding/binary"
	"testing"

	"nft-engine-sol/internal/chain"
	"nft-engine-sol/internal/consts"
	"nft-engine-sol/internal/metaplex"
	"nft-engine-sol/pkg/types"

	"github.com/blocto/solana-go-sdk/common"
	sdktoken "github.com/blocto/solana-go-sdk/program/token"
	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRPC struct {
	rentCalls int
	rent      uint64
}

func (f *fakeRPC) MinimumBalanceForRentExemption(_ context.Context, dataLen uint64) (uint64, error) {
	f.rentCalls++
	if dataLen != consts.MintAccountSize {
		panic("unexpected data length")
	}
	return f.rent, nil
}

func (f *fakeRPC) LatestBlockhash(context.Context) (types.Hash, error) { panic("unexpected") }
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
func (f *fakeRPC) SendRawTransaction(context.Context, []byte) (string, error) { panic("unexpected") }
func (f *fakeRPC) SignatureStatus(context.Context, string) (chain.Confirmation, error) {
	panic("unexpected")
}

func testParams() MintParams {
	wallet := sdktypes.NewAccount()
	mint := sdktypes.NewAccount()
	return MintParams{
		Wallet: metaplex.FromSDKPubkey(wallet.PublicKey),
		Mint:   metaplex.FromSDKPubkey(mint.PublicKey),
		Name:   "Test NFT",
		Symbol: "TST",
		Uri:    "https://example.com/1.json",
	}
}

// 指令顺序即程序调用顺序：System、Token、ATA、Token、Metadata、Metadata
func TestBuildMintTransactionInstructionOrder(t *testing.T) {
	rpc := &fakeRPC{rent: 1_461_600}
	asm := NewAssembler(rpc)
	params := testParams()

	tx, err := asm.BuildMintTransaction(context.Background(), params, types.Hash{1})
	require.NoError(t, err)
	require.NotNil(t, tx)

	msg := tx.Message
	require.Len(t, msg.Instructions, 6)

	programAt := func(i int) common.PublicKey {
		return msg.Accounts[msg.Instructions[i].ProgramIDIndex]
	}
	metaProgram := metaplex.ToSDKPubkey(consts.TokenMetaProgramId)

	assert.Equal(t, common.SystemProgramID, programAt(0))
	assert.Equal(t, common.TokenProgramID, programAt(1))
	assert.Equal(t, common.SPLAssociatedTokenAccountProgramID, programAt(2))
	assert.Equal(t, common.TokenProgramID, programAt(3))
	assert.Equal(t, metaProgram, programAt(4))
	assert.Equal(t, metaProgram, programAt(5))

	// InitializeMint: decimals=0
	initData := msg.Instructions[1].Data
	assert.Equal(t, byte(sdktoken.InstructionInitializeMint), initData[0])
	assert.Equal(t, byte(0), initData[1])

	// MintTo: 数量恰好为 1
	mintToData := msg.Instructions[3].Data
	assert.Equal(t, byte(sdktoken.InstructionMintTo), mintToData[0])
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(mintToData[1:9]))

	// Metadata / MasterEdition 判别码
	assert.Equal(t, byte(0), msg.Instructions[4].Data[0])
	assert.Equal(t, byte(10), msg.Instructions[5].Data[0])

	// 签名槽按 NumRequireSignatures 预分配（mint 账户 + 钱包各占一位）
	assert.Len(t, tx.Signatures, int(msg.Header.NumRequireSignatures))
	assert.GreaterOrEqual(t, int(msg.Header.NumRequireSignatures), 2)
}

// 每次组装都重新查询免租金额
func TestBuildMintTransactionFetchesFreshRent(t *testing.T) {
	rpc := &fakeRPC{rent: 1_000_000}
	asm := NewAssembler(rpc)
	params := testParams()

	_, err := asm.BuildMintTransaction(context.Background(), params, types.Hash{1})
	require.NoError(t, err)
	_, err = asm.BuildMintTransaction(context.Background(), params, types.Hash{2})
	require.NoError(t, err)

	assert.Equal(t, 2, rpc.rentCalls)
}

// 创作者缺省回落为钱包自身 100%
func TestBuildMintTransactionDefaultCreators(t *testing.T) {
	rpc := &fakeRPC{rent: 1}
	asm := NewAssembler(rpc)
	params := testParams()
	params.Creators = nil

	tx, err := asm.BuildMintTransaction(context.Background(), params, types.Hash{1})
	require.NoError(t, err)

	var args metaplex.CreateMetadataArgs
	require.NoError(t, borsh.Deserialize(&args, tx.Message.Instructions[4].Data))
	require.NotNil(t, args.Data.Creators)
	require.Len(t, *args.Data.Creators, 1)
	creator := (*args.Data.Creators)[0]
	assert.Equal(t, params.Wallet, creator.Address)
	assert.True(t, creator.Verified)
	assert.Equal(t, uint8(100), creator.Share)
	assert.True(t, args.IsMutable)
}

func TestBuildMintTransactionExplicitCreators(t *testing.T) {
	rpc := &fakeRPC{rent: 1}
	asm := NewAssembler(rpc)
	params := testParams()
	other := metaplex.FromSDKPubkey(sdktypes.NewAccount().PublicKey)
	params.Creators = []metaplex.Creator{
		{Address: params.Wallet, Verified: true, Share: 60},
		{Address: other, Verified: false, Share: 40},
	}

	tx, err := asm.BuildMintTransaction(context.Background(), params, types.Hash{1})
	require.NoError(t, err)

	var args metaplex.CreateMetadataArgs
	require.NoError(t, borsh.Deserialize(&args, tx.Message.Instructions[4].Data))
	require.NotNil(t, args.Data.Creators)
	assert.Len(t, *args.Data.Creators, 2)
}

func TestBuildMintTransactionRequiresKeys(t *testing.T) {
	asm := NewAssembler(&fakeRPC{rent: 1})

	_, err := asm.BuildMintTransaction(context.Background(), MintParams{}, types.Hash{1})
	assert.Error(t, err)
}
