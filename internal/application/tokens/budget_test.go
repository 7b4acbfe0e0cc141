package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	assert.Equal(t, 0, Estimate(""))
	assert.Equal(t, 1, Estimate("a"))
	assert.Equal(t, 1, Estimate("abc"))
	assert.Equal(t, 1, Estimate("abcd"))
	assert.Equal(t, 2, Estimate("abcdefgh"))
	assert.Equal(t, 25, Estimate(strings.Repeat("x", 100)))

	// 多字节字符按字符数而非字节数估算
	assert.Equal(t, 1, Estimate("你好世界"))
}

func TestCapWithinBudget(t *testing.T) {
	text := strings.Repeat("a", 400) // 100 tokens
	out, est := Cap(text, 100)
	assert.Equal(t, text, out)
	assert.Equal(t, 100, est)
}

func TestCapTruncatesHead(t *testing.T) {
	text := strings.Repeat("a", 4000) // 1000 tokens
	out, est := Cap(text, 100)
	assert.Equal(t, 400, len(out))
	assert.Equal(t, 100, est)
	assert.True(t, strings.HasPrefix(text, out), "裁剪必须保留开头")
}

func TestCapUnlimited(t *testing.T) {
	text := strings.Repeat("a", 4000)
	out, est := Cap(text, 0)
	assert.Equal(t, text, out)
	assert.Equal(t, 1000, est)

	out, _ = Cap(text, -5)
	assert.Equal(t, text, out)
}

func TestCapIdempotent(t *testing.T) {
	text := strings.Repeat("好", 12345)
	for _, budget := range []int{1, 10, 100, 500, 3000, 10000} {
		once, est1 := Cap(text, budget)
		twice, est2 := Cap(once, budget)
		assert.Equal(t, once, twice, "budget=%d", budget)
		assert.Equal(t, est1, est2, "budget=%d", budget)
		assert.LessOrEqual(t, est1, budget)
	}
}

func TestCapEmpty(t *testing.T) {
	out, est := Cap("", 10)
	assert.Equal(t, "", out)
	assert.Equal(t, 0, est)
}
