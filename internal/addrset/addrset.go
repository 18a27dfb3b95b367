package addrset

import (
	"encoding/json"
	"fmt"
	"strings"

	"nft-engine-sol/pkg/types"
)

// Parse 解析用户输入的地址列表文本。
// 输入可以是 JSON 字符串数组，也可以是换行/逗号/空白分隔的裸列表。
// 校验是全有或全无的：任何一个 token 非法则整体失败，并指出第一个非法 token，
// 因为后续批处理代价高，不应在坏输入上启动。
// 重复地址按原样保留，顺序与输入一致。
func Parse(text string) ([]types.Pubkey, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("address list is empty")
	}

	result := make([]types.Pubkey, 0, len(tokens))
	for i, tok := range tokens {
		p, err := types.TryPubkeyFromBase58(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid address at position %d: %q: %w", i+1, tok, err)
		}
		result = append(result, p)
	}
	return result, nil
}

// tokenize 将文本拆为候选地址 token。优先按 JSON 数组解析。
func tokenize(text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	// JSON 数组形式：["addr1", "addr2", ...]
	if strings.HasPrefix(trimmed, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(trimmed), &arr); err != nil {
			return nil, fmt.Errorf("invalid JSON address array: %w", err)
		}
		out := make([]string, 0, len(arr))
		for _, s := range arr {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}

	// 裸列表形式：换行/逗号/空白分隔
	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ',' || r == ' ' || r == '\t'
	})
	return fields, nil
}
