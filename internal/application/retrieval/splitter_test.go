package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitByRunesShortText(t *testing.T) {
	assert.Nil(t, splitByRunes("   ", 100, 10))
	assert.Equal(t, []string{"短文本"}, splitByRunes("  短文本  ", 100, 10))
	// maxRunes<=0 时不切分
	assert.Equal(t, []string{"abc"}, splitByRunes("abc", 0, 0))
}

func TestSplitByRunesExactWindows(t *testing.T) {
	chunks := splitByRunes("abcdefghij", 4, 1)
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, chunks)
}

func TestSplitByRunesOverlap(t *testing.T) {
	text := strings.Repeat("甲乙丙丁戊己庚辛壬癸", 10) // 100 runes
	parts := splitByRunes(text, 40, 10)

	assert.Len(t, parts, 4)
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), 40)
	}
	// 相邻分块间保留重叠
	first := []rune(parts[0])
	second := []rune(parts[1])
	assert.Equal(t, string(first[30:]), string(second[:10]))
}

func TestSplitByRunesNoOverlapDegenerate(t *testing.T) {
	text := strings.Repeat("a", 95)
	// overlap >= max 时退化为 step = max，不得死循环
	parts := splitByRunes(text, 30, 30)
	assert.Len(t, parts, 4)
	assert.Equal(t, 5, len(parts[3]))
}
