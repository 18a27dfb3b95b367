package chain

import (
	"encoding/binary"
	"fmt"

	"nft-engine-sol/internal/consts"
	"nft-engine-sol/pkg/types"
)

// ParseTokenAccount 按 SPL Token 账户固定布局解析原始账户数据。
//
// 布局（共 165 字节）：
// [0:32]   -> mint
// [32:64]  -> owner
// [64:72]  -> amount (u64, little-endian)
// [72:165] -> delegate/state/... （本引擎不关心）
func ParseTokenAccount(data []byte) (mint, owner types.Pubkey, amount uint64, err error) {
	if len(data) < consts.TokenAccountSize {
		return mint, owner, 0, fmt.Errorf("token account data too short: got=%d want>=%d",
			len(data), consts.TokenAccountSize)
	}
	copy(mint[:], data[0:32])
	copy(owner[:], data[32:64])
	amount = binary.LittleEndian.Uint64(data[64:72])
	return mint, owner, amount, nil
}
