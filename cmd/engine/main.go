package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"nft-engine-sol/internal/addrset"
	"nft-engine-sol/internal/config"
	"nft-engine-sol/internal/logic/mint"
	"nft-engine-sol/internal/logic/minters"
	"nft-engine-sol/internal/svc"
	"nft-engine-sol/pkg/logger"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
)

var (
	configFile = flag.String("f", "etc/engine.yaml", "the config file")
	mode       = flag.String("mode", "", "run mode: minters | mint | burn")

	// minters 模式
	addrsFile = flag.String("addrs", "", "mint address list file (minters mode)")
	outDir    = flag.String("out", ".", "output directory for minter records (minters mode)")

	// mint 模式
	nftName   = flag.String("name", "", "NFT name (mint mode)")
	nftSymbol = flag.String("symbol", "", "NFT symbol (mint mode)")
	nftUri    = flag.String("uri", "", "NFT metadata uri (mint mode)")
	nftCount  = flag.Int("count", 1, "number of NFTs to mint (mint mode)")
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.EngineConfig
	conf.MustLoad(*configFile, &c)

	logger.Init(c.LogConf.ToLogOption())
	defer logger.Sync()

	svcCtx, err := svc.NewServiceContext(c)
	if err != nil {
		logx.Errorf("service context init failed: %v", err)
		os.Exit(1)
	}
	defer svcCtx.Close()

	// 退出信号触发 ctx 取消，剩余工作安全收尾
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logx.Info("Shutting down...")
		cancel()
	}()

	if err := run(ctx, svcCtx); err != nil {
		logx.Errorf("run failed: %v", err)
		svcCtx.Close()
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, svcCtx *svc.ServiceContext) error {
	switch *mode {
	case "minters":
		return runMinters(ctx, svcCtx)
	case "mint":
		return runMint(ctx, svcCtx)
	case "burn":
		return runBurn(ctx, svcCtx)
	default:
		return fmt.Errorf("unknown mode %q, want minters | mint | burn", *mode)
	}
}

// runMinters 批量解析 mint 地址的首铸者并落盘
func runMinters(ctx context.Context, svcCtx *svc.ServiceContext) error {
	if *addrsFile == "" {
		return fmt.Errorf("minters mode requires -addrs")
	}
	raw, err := os.ReadFile(*addrsFile)
	if err != nil {
		return fmt.Errorf("read address file failed: %w", err)
	}
	mints, err := addrset.Parse(string(raw))
	if err != nil {
		return err
	}

	records, summary, err := svcCtx.Minters.Run(ctx, mints)
	if err != nil {
		return err
	}
	path, err := minters.WriteRecords(*outDir, records)
	if err != nil {
		return err
	}
	logx.Infof("minter records written: path=%s %s", path, summary.Summary())
	return nil
}

// runMint 串行铸造一批 NFT
func runMint(ctx context.Context, svcCtx *svc.ServiceContext) error {
	if *nftName == "" || *nftUri == "" {
		return fmt.Errorf("mint mode requires -name and -uri")
	}
	if *nftCount <= 0 {
		return fmt.Errorf("invalid -count %d", *nftCount)
	}

	items := make([]mint.Item, *nftCount)
	for i := range items {
		name := *nftName
		if *nftCount > 1 {
			name = fmt.Sprintf("%s #%d", *nftName, i+1)
		}
		items[i] = mint.Item{Name: name, Symbol: *nftSymbol, Uri: *nftUri}
	}

	results, summary := svcCtx.Mint.MintAll(ctx, items)
	for _, res := range results {
		if res.Err == nil {
			logx.Infof("minted: mint=%s sig=%s", res.Mint, res.Outcome.Signature)
		}
	}
	if !summary.FullSuccess() {
		return fmt.Errorf("mint batch incomplete: %s", summary.Summary())
	}
	return nil
}

// runBurn 销毁钱包当前全部持仓
func runBurn(ctx context.Context, svcCtx *svc.ServiceContext) error {
	holdings, err := svcCtx.Burn.LoadHoldings(ctx)
	if err != nil {
		return err
	}
	if len(holdings) == 0 {
		logx.Info("no holdings to burn")
		return nil
	}

	results, remaining := svcCtx.Burn.BurnAll(ctx, holdings)
	for _, res := range results {
		if res.Err == nil {
			logx.Infof("burned: mint=%s sig=%s", res.Holding.Mint, res.Outcome.Signature)
		}
	}
	if len(remaining) > 0 {
		return fmt.Errorf("burn batch incomplete: %d of %d left", len(remaining), len(holdings))
	}
	return nil
}
