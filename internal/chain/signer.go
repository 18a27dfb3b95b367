package chain

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"nft-engine-sol/pkg/types"

	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// Signer 钱包签名面。签名者是独占资源（交互式人类钱包），
// 调用方必须保证同一时刻只有一个未完成的签名请求（串行提交环节天然满足）。
type Signer interface {
	PublicKey() types.Pubkey
	// SignTransaction 对已组装交易追加本钱包的签名。
	// 用户拒绝签名属于终态错误，调用方不得重试。
	SignTransaction(ctx context.Context, tx *sdktypes.Transaction) error
}

// LocalSigner 本地 keypair 签名实现（CLI 场景；浏览器钱包由上层注入其它实现）。
type LocalSigner struct {
	account sdktypes.Account
	pubkey  types.Pubkey
}

func NewLocalSigner(account sdktypes.Account) (*LocalSigner, error) {
	pub, err := types.PubkeyFromBytes(account.PublicKey.Bytes())
	if err != nil {
		return nil, fmt.Errorf("invalid account public key: %w", err)
	}
	return &LocalSigner{account: account, pubkey: pub}, nil
}

// LoadLocalSigner 从 solana-cli 格式的 keypair 文件（64 字节 JSON 数组）加载签名者。
func LoadLocalSigner(path string) (*LocalSigner, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file failed: %w", err)
	}
	// solana-cli 落盘为 JSON 数字数组，不能直接反序列化进 []byte
	var nums []int
	if err := json.Unmarshal(raw, &nums); err != nil {
		return nil, fmt.Errorf("parse keypair file failed: %w", err)
	}
	key := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("invalid keypair byte %d at index %d", n, i)
		}
		key[i] = byte(n)
	}
	account, err := sdktypes.AccountFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("invalid keypair bytes: %w", err)
	}
	return NewLocalSigner(account)
}

func (s *LocalSigner) PublicKey() types.Pubkey {
	return s.pubkey
}

func (s *LocalSigner) SignTransaction(ctx context.Context, tx *sdktypes.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := tx.Message.Serialize()
	if err != nil {
		return fmt.Errorf("serialize message failed: %w", err)
	}
	sig := ed25519.Sign(s.account.PrivateKey, msg)
	if err := tx.AddSignature(sig); err != nil {
		return fmt.Errorf("add signature failed: %w", err)
	}
	return nil
}
