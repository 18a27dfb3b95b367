package metaplex

import (
	"nft-engine-sol/internal/consts"
	"nft-engine-sol/pkg/types"

	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// CreateMetadataAccountInstruction 构建 CreateMetadataAccount 指令。
//
// 账户布局（顺序与读写/签名标志即链上 ABI）：
// #0 metadata PDA（可写）
// #1 mint
// #2 mint authority（签名）
// #3 payer（签名、可写）
// #4 update authority
// #5 System Program
// #6 Rent sysvar
func CreateMetadataAccountInstruction(
	metadata, mint, mintAuthority, payer, updateAuthority types.Pubkey,
	data Data,
	isMutable bool,
) (sdktypes.Instruction, error) {
	payload, err := EncodeCreateMetadataArgs(data, isMutable)
	if err != nil {
		return sdktypes.Instruction{}, err
	}

	return sdktypes.Instruction{
		ProgramID: ToSDKPubkey(consts.TokenMetaProgramId),
		Accounts: []sdktypes.AccountMeta{
			{PubKey: ToSDKPubkey(metadata), IsSigner: false, IsWritable: true},
			{PubKey: ToSDKPubkey(mint), IsSigner: false, IsWritable: false},
			{PubKey: ToSDKPubkey(mintAuthority), IsSigner: true, IsWritable: false},
			{PubKey: ToSDKPubkey(payer), IsSigner: true, IsWritable: true},
			{PubKey: ToSDKPubkey(updateAuthority), IsSigner: false, IsWritable: false},
			{PubKey: ToSDKPubkey(consts.SystemProgram), IsSigner: false, IsWritable: false},
			{PubKey: ToSDKPubkey(consts.SysvarRent), IsSigner: false, IsWritable: false},
		},
		Data: payload,
	}, nil
}

// CreateMasterEditionInstruction 构建 CreateMasterEdition 指令。
//
// 账户布局：
// #0 master edition PDA（可写）
// #1 mint（可写）
// #2 update authority（签名）
// #3 mint authority（签名）
// #4 payer（签名、可写）
// #5 metadata PDA
// #6 Token Program
// #7 System Program
// #8 Rent sysvar
func CreateMasterEditionInstruction(
	edition, mint, updateAuthority, mintAuthority, payer, metadata types.Pubkey,
	maxSupply uint64,
) (sdktypes.Instruction, error) {
	payload, err := EncodeCreateMasterEditionArgs(maxSupply)
	if err != nil {
		return sdktypes.Instruction{}, err
	}

	return sdktypes.Instruction{
		ProgramID: ToSDKPubkey(consts.TokenMetaProgramId),
		Accounts: []sdktypes.AccountMeta{
			{PubKey: ToSDKPubkey(edition), IsSigner: false, IsWritable: true},
			{PubKey: ToSDKPubkey(mint), IsSigner: false, IsWritable: true},
			{PubKey: ToSDKPubkey(updateAuthority), IsSigner: true, IsWritable: false},
			{PubKey: ToSDKPubkey(mintAuthority), IsSigner: true, IsWritable: false},
			{PubKey: ToSDKPubkey(payer), IsSigner: true, IsWritable: true},
			{PubKey: ToSDKPubkey(metadata), IsSigner: false, IsWritable: false},
			{PubKey: ToSDKPubkey(consts.TokenProgram), IsSigner: false, IsWritable: false},
			{PubKey: ToSDKPubkey(consts.SystemProgram), IsSigner: false, IsWritable: false},
			{PubKey: ToSDKPubkey(consts.SysvarRent), IsSigner: false, IsWritable: false},
		},
		Data: payload,
	}, nil
}
