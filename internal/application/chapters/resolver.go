// Package chapters 章节区间解析与正文装载
package chapters

import (
	"context"
	"fmt"
	"strings"

	"lore-context-api/internal/domain/repository"
)

const (
	minRangeCount = 1
	// maxRangeCount 单次最多装载的章节数，防止上下文失控的硬上限
	maxRangeCount = 50
)

// 区间模式
const (
	ModeRange  = "range"
	ModeFirst  = "first"
	ModeLatest = "latest"
)

// Range 解析出的章节号闭区间
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RangeResolver 将区间模式解析为具体章节号区间
type RangeResolver struct {
	chapters repository.ChapterRepository
}

// NewRangeResolver 创建区间解析器
func NewRangeResolver(chapters repository.ChapterRepository) *RangeResolver {
	return &RangeResolver{chapters: chapters}
}

// Resolve 解析章节区间。
// range 模式直接使用 explicitRange（自动换序保证 start ≤ end）；
// first / latest 以项目最小/最大章节号为基准开窗；
// 模式无法识别或项目无章节时返回 nil，由调用方回退到按名查找。
func (r *RangeResolver) Resolve(ctx context.Context, projectID, mode string, count int, explicitRange []int) (*Range, error) {
	count = clampCount(count)

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeRange:
		if len(explicitRange) < 2 {
			return nil, fmt.Errorf("range mode requires two chapter numbers")
		}
		start, end := explicitRange[0], explicitRange[1]
		if start > end {
			start, end = end, start
		}
		return &Range{Start: start, End: end}, nil

	case ModeFirst:
		min, _, err := r.chapters.NumberBounds(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if min == 0 {
			return nil, nil
		}
		return &Range{Start: min, End: min + count - 1}, nil

	case ModeLatest:
		_, max, err := r.chapters.NumberBounds(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if max == 0 {
			return nil, nil
		}
		start := max - count + 1
		if start < 1 {
			start = 1
		}
		return &Range{Start: start, End: max}, nil
	}

	return nil, nil
}

func clampCount(count int) int {
	if count < minRangeCount {
		return minRangeCount
	}
	if count > maxRangeCount {
		return maxRangeCount
	}
	return count
}
