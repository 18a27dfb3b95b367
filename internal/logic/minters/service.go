package minters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"nft-engine-sol/internal/chain"
	"nft-engine-sol/internal/report"
	"nft-engine-sol/internal/runner"
	"nft-engine-sol/pkg/logger"
	"nft-engine-sol/pkg/types"
)

// Service 批量首铸者解析服务。
type Service struct {
	resolver    *Resolver
	concurrency int
	sinks       []report.Sink
}

func NewService(rpc chain.RPC, concurrency, attempts int, sinks ...report.Sink) *Service {
	return &Service{
		resolver:    NewResolver(rpc, attempts),
		concurrency: concurrency,
		sinks:       sinks,
	}
}

// Run 并发解析整批 mint 的首铸者。
// 单项失败与软未命中互不影响，批次汇总统一上报。
func (s *Service) Run(ctx context.Context, mints []types.Pubkey) ([]MinterRecord, report.BatchReport, error) {
	reporter := report.NewReporter("minters", len(mints), s.sinks...)

	results := runner.Run(ctx, mints, s.concurrency, s.resolver.ResolveOwner, reporter.Progress)

	records := make([]MinterRecord, 0, len(results))
	for _, res := range results {
		switch {
		case res.Skipped:
			reporter.AddSkipped(res.Addr)
		case res.Err != nil:
			reporter.AddFailure(res.Addr, res.Err, false)
		default:
			records = append(records, res.Value)
			reporter.AddSuccess(res.Addr, res.Value.Owner)
		}
	}

	summary := reporter.Finish()
	logger.Infof("[minters] 批次完成: %s", summary.Summary())
	return records, summary, ctx.Err()
}

// WriteRecords 将解析结果落盘为 Minters-<毫秒时间戳>.json。
func WriteRecords(dir string, records []MinterRecord) (string, error) {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal minter records failed: %w", err)
	}
	path := fmt.Sprintf("%s/Minters-%d.json", dir, time.Now().UnixMilli())
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write minter records failed: %w", err)
	}
	return path, nil
}
