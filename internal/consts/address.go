package consts

import "nft-engine-sol/pkg/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	// Programs
	SystemProgramStr          = "11111111111111111111111111111111"
	TokenProgramStr           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgramStr = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	TokenMetaProgramIdStr     = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

	// Sysvars
	SysvarRentStr = "SysvarRent111111111111111111111111111111111"
)

var (
	// Programs
	SystemProgram          = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram           = types.PubkeyFromBase58(TokenProgramStr)
	AssociatedTokenProgram = types.PubkeyFromBase58(AssociatedTokenProgramStr)
	TokenMetaProgramId     = types.PubkeyFromBase58(TokenMetaProgramIdStr)

	// Sysvars
	SysvarRent = types.PubkeyFromBase58(SysvarRentStr)
)

// PDA 派生种子（Token Metadata 程序约定的固定字符串）
const (
	MetadataSeed = "metadata"
	EditionSeed  = "edition"
)

// SPL 账户固定长度（字节）
const (
	// MintAccountSize Mint 账户布局长度
	MintAccountSize = 82
	// TokenAccountSize SPL Token 账户布局长度，getProgramAccounts 过滤用
	TokenAccountSize = 165
	// TokenAccountOwnerOffset Token 账户布局中 owner 字段的偏移，memcmp 过滤用
	TokenAccountOwnerOffset = 32
)
