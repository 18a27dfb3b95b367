package metaplex

import (
	"fmt"

	"nft-engine-sol/internal/consts"
	"nft-engine-sol/pkg/types"

	"github.com/blocto/solana-go-sdk/common"
)

// ToSDKPubkey 转换为 SDK 公钥类型（SDK 边界专用）。
func ToSDKPubkey(p types.Pubkey) common.PublicKey {
	return common.PublicKeyFromBytes(p[:])
}

// FromSDKPubkey 从 SDK 公钥类型转回。
func FromSDKPubkey(p common.PublicKey) types.Pubkey {
	var out types.Pubkey
	copy(out[:], p.Bytes())
	return out
}

// DeriveMetadataAccount 派生 mint 对应的 Metadata PDA。
// 种子：["metadata", metadata_program_id, mint]，派生算法由平台定义，必须逐位一致，
// 因此直接使用 SDK 的 FindProgramAddress。
func DeriveMetadataAccount(mint types.Pubkey) (types.Pubkey, error) {
	seeds := [][]byte{
		[]byte(consts.MetadataSeed),
		consts.TokenMetaProgramId.Bytes(),
		mint.Bytes(),
	}
	pub, _, err := common.FindProgramAddress(seeds, ToSDKPubkey(consts.TokenMetaProgramId))
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("derive metadata account failed: mint=%s: %w", mint, err)
	}
	return FromSDKPubkey(pub), nil
}

// DeriveMasterEditionAccount 派生 mint 对应的 Master Edition PDA。
// 种子：["metadata", metadata_program_id, mint, "edition"]。
func DeriveMasterEditionAccount(mint types.Pubkey) (types.Pubkey, error) {
	seeds := [][]byte{
		[]byte(consts.MetadataSeed),
		consts.TokenMetaProgramId.Bytes(),
		mint.Bytes(),
		[]byte(consts.EditionSeed),
	}
	pub, _, err := common.FindProgramAddress(seeds, ToSDKPubkey(consts.TokenMetaProgramId))
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("derive master edition account failed: mint=%s: %w", mint, err)
	}
	return FromSDKPubkey(pub), nil
}

// DeriveAssociatedTokenAccount 派生 (owner, mint) 的关联 token 账户地址。
func DeriveAssociatedTokenAccount(owner, mint types.Pubkey) (types.Pubkey, error) {
	pub, _, err := common.FindAssociatedTokenAddress(ToSDKPubkey(owner), ToSDKPubkey(mint))
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("derive associated token account failed: owner=%s mint=%s: %w",
			owner, mint, err)
	}
	return FromSDKPubkey(pub), nil
}
