package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorMetaRoundTrip(t *testing.T) {
	meta := VectorMeta{DocType: "chunk", ChapterID: "ch-1", ArcID: "arc-1", SheetName: "人物表"}
	encoded := encodeVectorText(meta, "第一章正文片段")

	got, body := decodeVectorText(encoded)
	assert.Equal(t, meta, got)
	assert.Equal(t, "第一章正文片段", body)
}

func TestDecodeVectorTextWithoutMeta(t *testing.T) {
	// 非本服务写入的文本：原样返回
	got, body := decodeVectorText("  plain text content  ")
	assert.Equal(t, VectorMeta{}, got)
	assert.Equal(t, "plain text content", body)
}

func TestDecodeVectorTextCorruptMeta(t *testing.T) {
	got, body := decodeVectorText("@@meta:{not json\nbody text")
	assert.Equal(t, VectorMeta{}, got)
	assert.Equal(t, "body text", body)
}
