package metaplex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"nft-engine-sol/internal/chain"
	"nft-engine-sol/pkg/logger"
	"nft-engine-sol/pkg/types"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/near/borsh-go"
)

// OnchainMetadata 链上 Metadata 账户的 borsh 布局（本引擎关心的前缀部分）。
type OnchainMetadata struct {
	Key                 uint8
	UpdateAuthority     types.Pubkey
	Mint                types.Pubkey
	Data                Data
	PrimarySaleHappened bool
	IsMutable           bool
}

// OffchainMetadata 链下 JSON 元数据（Metaplex 标准的子集）。
type OffchainMetadata struct {
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Image        string `json:"image"`
	AnimationURL string `json:"animation_url"`
	Properties   struct {
		Category string `json:"category"`
		Files    []struct {
			Type string `json:"type"`
			Uri  string `json:"uri"`
		} `json:"files"`
	} `json:"properties"`
}

// TokenMetadata 链上 + 链下合并后的展示视图。
type TokenMetadata struct {
	Mint                 types.Pubkey `json:"mint"`
	Name                 string       `json:"name"`
	Symbol               string       `json:"symbol"`
	Uri                  string       `json:"uri"`
	SellerFeeBasisPoints uint16       `json:"seller_fee_basis_points"`
	Image                string       `json:"image,omitempty"`
	Video                string       `json:"video,omitempty"`
	Category             string       `json:"category,omitempty"`
}

// DecodeOnchainMetadata 解码链上 Metadata 账户数据。
// 链上字符串按最大长度预分配并以 NUL 填充，解码后需裁剪。
func DecodeOnchainMetadata(data []byte) (*OnchainMetadata, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("metadata account data is empty")
	}
	var meta OnchainMetadata
	if err := borsh.Deserialize(&meta, data); err != nil {
		return nil, fmt.Errorf("deserialize metadata failed: %w", err)
	}
	meta.Data.Name = strings.TrimRight(meta.Data.Name, "\x00")
	meta.Data.Symbol = strings.TrimRight(meta.Data.Symbol, "\x00")
	meta.Data.Uri = strings.TrimRight(meta.Data.Uri, "\x00")
	return &meta, nil
}

// MetaCache 元数据读穿缓存。实现必须容忍并发访问；nil 表示不启用。
type MetaCache interface {
	Get(ctx context.Context, mint types.Pubkey) (*TokenMetadata, bool)
	Set(ctx context.Context, mint types.Pubkey, meta *TokenMetadata)
}

// Resolver 按 mint 解析富元数据：metadata PDA -> 链上记录 -> 链下 JSON。
// 单项失败彼此隔离，由调用方（runner）负责不让失败中断批次。
type Resolver struct {
	rpc   chain.RPC
	http  *retryablehttp.Client
	cache MetaCache // 可为 nil
}

func NewResolver(rpc chain.RPC, cache MetaCache) *Resolver {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 2
	httpClient.Logger = nil
	return &Resolver{rpc: rpc, http: httpClient, cache: cache}
}

// Resolve 解析单个 mint 的元数据。
// 无 metadata 账户视为软未命中，返回 (nil, nil)；链下 JSON 拉取失败仅降级（保留链上字段）。
func (r *Resolver) Resolve(ctx context.Context, mint types.Pubkey) (*TokenMetadata, error) {
	if r.cache != nil {
		if meta, ok := r.cache.Get(ctx, mint); ok {
			return meta, nil
		}
	}

	pda, err := DeriveMetadataAccount(mint)
	if err != nil {
		return nil, err
	}

	data, err := r.rpc.AccountData(ctx, pda)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata account failed: mint=%s: %w", mint, err)
	}
	if len(data) == 0 {
		// 该 mint 没有 metadata 账户，非错误
		return nil, nil
	}

	onchain, err := DecodeOnchainMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("decode metadata failed: mint=%s: %w", mint, err)
	}

	meta := &TokenMetadata{
		Mint:                 mint,
		Name:                 onchain.Data.Name,
		Symbol:               onchain.Data.Symbol,
		Uri:                  onchain.Data.Uri,
		SellerFeeBasisPoints: onchain.Data.SellerFeeBasisPoints,
	}

	if onchain.Data.Uri != "" {
		if offchain, err := r.fetchOffchain(ctx, onchain.Data.Uri); err != nil {
			logger.Warnf("[metaplex] 链下元数据拉取失败（忽略）: mint=%s uri=%s err=%v",
				mint, onchain.Data.Uri, err)
		} else {
			applyOffchain(meta, offchain)
		}
	}

	if r.cache != nil {
		r.cache.Set(ctx, mint, meta)
	}
	return meta, nil
}

func (r *Resolver) fetchOffchain(ctx context.Context, uri string) (*OffchainMetadata, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1MB 上限
	if err != nil {
		return nil, err
	}
	var meta OffchainMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("parse offchain json failed: %w", err)
	}
	return &meta, nil
}

// applyOffchain 展示字段提取：优先 image；video 类别时取第一个文件地址。
func applyOffchain(meta *TokenMetadata, off *OffchainMetadata) {
	meta.Category = off.Properties.Category
	if off.Image != "" {
		meta.Image = off.Image
		return
	}
	if off.Properties.Category == "video" && len(off.Properties.Files) > 0 {
		meta.Video = off.Properties.Files[0].Uri
	}
}
