// Package tokens 提供启发式 token 估算与预算裁剪
package tokens

const (
	// charsPerToken 估算比率：每 4 个字符约折合 1 token
	charsPerToken = 4
	// trimBlock 超预算时每轮从尾部裁掉的字符数
	trimBlock = 500
)

// Estimate 估算文本的 token 数
// 按字符数 / 4 取整，非空文本至少为 1，空文本为 0。
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	n := len([]rune(text)) / charsPerToken
	if n < 1 {
		n = 1
	}
	return n
}

// Cap 将文本裁剪到 token 预算内，保留开头
// 先按 maxTokens*4 字符截断，若仍超预算则从尾部按 500 字符块裁剪，
// 直到满足预算或剩余不足一块。maxTokens <= 0 视为不限制。
// 返回裁剪后的文本及其估算 token 数；对同一预算重复调用结果不变。
func Cap(text string, maxTokens int) (string, int) {
	if maxTokens <= 0 {
		return text, Estimate(text)
	}
	est := Estimate(text)
	if est <= maxTokens {
		return text, est
	}

	runes := []rune(text)
	target := maxTokens * charsPerToken
	if target < len(runes) {
		runes = runes[:target]
	}

	for Estimate(string(runes)) > maxTokens && len(runes) > trimBlock {
		runes = runes[:len(runes)-trimBlock]
	}

	out := string(runes)
	return out, Estimate(out)
}
