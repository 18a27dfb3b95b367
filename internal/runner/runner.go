package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"nft-engine-sol/pkg/logger"
	"nft-engine-sol/pkg/types"
)

// ErrSkipped 表示软未命中：该项既不算成功也不算失败（如地址无任何链上活动）。
var ErrSkipped = errors.New("item skipped")

// Result 单个批处理项的最终结果，每项有且仅有一次落定。
type Result[T any] struct {
	Index   int          // 输入序号，保证结果可按输入顺序消费
	Addr    types.Pubkey // 原始地址
	Value   T            // 成功时的值
	Err     error        // 失败原因；Skipped 为 true 时为 nil
	Skipped bool         // 软未命中
}

// Func 单项操作。重试策略由操作自身实现，Runner 只负责调度。
type Func[T any] func(ctx context.Context, addr types.Pubkey) (T, error)

// Run 以固定并发上限执行一批相互独立的操作。
//
//   - 同时在途的操作数不超过 concurrency；
//   - 单项失败只产生该项的 Failed 结果，不取消兄弟项、不中断批次；
//   - 所有项落定后才返回（完整 join，非竞速）；
//   - 每项落定后 completed 计数单调递增，并通过 onProgress(completed, total) 上报；
//   - 返回的切片按输入顺序排列，长度恒等于 len(items)。
//
// ctx 取消后不再调度新项，未开始的项以 ctx.Err() 记为失败。
func Run[T any](
	ctx context.Context,
	items []types.Pubkey,
	concurrency int,
	fn Func[T],
	onProgress func(completed, total int),
) []Result[T] {
	total := len(items)
	results := make([]Result[T], total)
	if total == 0 {
		if onProgress != nil {
			onProgress(0, 0)
		}
		return results
	}

	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > total {
		concurrency = total
	}

	var (
		wg        sync.WaitGroup
		completed atomic.Int64
		mu        sync.Mutex // 保护 onProgress 调用顺序与 settled 标记
		settled   = make([]bool, total)
	)

	settle := func(i int, res Result[T]) {
		mu.Lock()
		defer mu.Unlock()
		if settled[i] {
			return
		}
		settled[i] = true
		results[i] = res
		done := int(completed.Add(1))
		if onProgress != nil {
			onProgress(done, total)
		}
	}

	idxCh := make(chan int)

	// 固定大小的 worker 池从队列拉取任务，天然满足并发上限
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxCh {
				settle(i, runOne(ctx, i, items[i], fn))
			}
		}()
	}

	// 投递下标；ctx 取消后停止投递，剩余项在 join 后统一落定
feed:
	for i := 0; i < total; i++ {
		select {
		case idxCh <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(idxCh)
	wg.Wait()

	// ctx 取消时未被调度的项以 ctx.Err() 落定，保证结果数恒为 N
	for i := 0; i < total; i++ {
		if !settled[i] {
			settle(i, Result[T]{Index: i, Addr: items[i], Err: ctx.Err()})
		}
	}

	return results
}

// runOne 执行单项操作，panic 被捕获并转为该项的失败结果。
func runOne[T any](ctx context.Context, i int, addr types.Pubkey, fn Func[T]) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Runner] item panic: addr=%s err=%v\nstack: %s", addr, r, debug.Stack())
			res = Result[T]{Index: i, Addr: addr, Err: fmt.Errorf("item panic: %v", r)}
		}
	}()

	value, err := fn(ctx, addr)
	switch {
	case errors.Is(err, ErrSkipped):
		return Result[T]{Index: i, Addr: addr, Skipped: true}
	case err != nil:
		return Result[T]{Index: i, Addr: addr, Err: err}
	default:
		return Result[T]{Index: i, Addr: addr, Value: value}
	}
}
