package metaplex

import (
	"fmt"

	"nft-engine-sol/pkg/types"

	"github.com/near/borsh-go"
)

// Token Metadata 程序指令判别码（borsh 序列化的首字节）
const (
	InstructionCreateMetadataAccount uint8 = 0
	InstructionCreateMasterEdition   uint8 = 10
)

// Creator 元数据中的创作者条目。
type Creator struct {
	Address  types.Pubkey
	Verified bool
	Share    uint8 // 百分比，所有创作者份额之和必须为 100
}

// Data 元数据主体。字段顺序与整数宽度即链上 schema，不可调整。
type Data struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator // Option<Vec<Creator>>
}

// CreateMetadataArgs CreateMetadataAccount 指令参数。
type CreateMetadataArgs struct {
	Instruction uint8
	Data        Data
	IsMutable   bool
}

// CreateMasterEditionArgs CreateMasterEdition 指令参数。
// MaxSupply = Some(0) 表示不可再版。
type CreateMasterEditionArgs struct {
	Instruction uint8
	MaxSupply   *uint64 // Option<u64>
}

// EncodeCreateMetadataArgs 序列化 CreateMetadataAccount 指令数据。
func EncodeCreateMetadataArgs(data Data, isMutable bool) ([]byte, error) {
	buf, err := borsh.Serialize(CreateMetadataArgs{
		Instruction: InstructionCreateMetadataAccount,
		Data:        data,
		IsMutable:   isMutable,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize CreateMetadataArgs failed: %w", err)
	}
	return buf, nil
}

// EncodeCreateMasterEditionArgs 序列化 CreateMasterEdition 指令数据。
func EncodeCreateMasterEditionArgs(maxSupply uint64) ([]byte, error) {
	buf, err := borsh.Serialize(CreateMasterEditionArgs{
		Instruction: InstructionCreateMasterEdition,
		MaxSupply:   &maxSupply,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize CreateMasterEditionArgs failed: %w", err)
	}
	return buf, nil
}
