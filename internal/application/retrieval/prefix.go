package retrieval

import (
	"strings"
)

// NormalizePrefixes 将前缀列表标准化为大写下划线形式，去掉空项与重复项。
// 入参可以是裸键（character）或带括号形式（[Character Sheet]）。
func NormalizePrefixes(prefixes []string) []string {
	if len(prefixes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(prefixes))
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(p, "[")
		p = strings.TrimSuffix(p, "]")
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToUpper(strings.ReplaceAll(p, " ", "_"))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func containsPrefix(prefixes []string, key string) bool {
	for _, p := range prefixes {
		if p == key {
			return true
		}
	}
	return false
}
