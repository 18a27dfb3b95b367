package chain

import (
	"context"
	"fmt"
	"time"

	"nft-engine-sol/pkg/logger"
	"nft-engine-sol/pkg/types"

	retry "github.com/avast/retry-go/v4"
)

// LatestBlockhashWithRetry 带上限的 blockhash 获取。
// 重试有界（指数退避），耗尽后向上返回错误，
// 避免网络长时间不可用时批处理卡死。
func LatestBlockhashWithRetry(ctx context.Context, rpc RPC, attempts int) (types.Hash, error) {
	if attempts <= 0 {
		attempts = 10
	}

	var blockhash types.Hash
	err := retry.Do(
		func() error {
			h, err := rpc.LatestBlockhash(ctx)
			if err != nil {
				return err
			}
			blockhash = h
			return nil
		},
		retry.Attempts(uint(attempts)),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Warnf("[chain] 第 %d 次获取 blockhash 失败: %v", n+1, err)
		}),
	)
	if err != nil {
		return types.Hash{}, fmt.Errorf("fetch latest blockhash failed after %d attempts: %w", attempts, err)
	}
	return blockhash, nil
}
