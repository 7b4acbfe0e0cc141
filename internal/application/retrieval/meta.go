package retrieval

import (
	"encoding/json"
	"strings"
)

const vectorMetaPrefix = "@@meta:"

// VectorMeta 是写入向量库 text_content 的结构化元信息。
// 约定：仅用于读写自家写入的条目；不存在时应安全降级。
type VectorMeta struct {
	DocType string `json:"doc_type,omitempty"` // bible_entity | chunk

	EntityName string `json:"entity_name,omitempty"`
	ChapterID  string `json:"chapter_id,omitempty"`
	ArcID      string `json:"arc_id,omitempty"`
	SheetName  string `json:"sheet_name,omitempty"`
}

func encodeVectorText(meta VectorMeta, text string) string {
	b, _ := json.Marshal(meta)
	var sb strings.Builder
	sb.Grow(len(vectorMetaPrefix) + len(b) + 1 + len(text))
	sb.WriteString(vectorMetaPrefix)
	sb.Write(b)
	sb.WriteByte('\n')
	sb.WriteString(text)
	return sb.String()
}

func decodeVectorText(textContent string) (VectorMeta, string) {
	raw := strings.TrimSpace(textContent)
	if !strings.HasPrefix(raw, vectorMetaPrefix) {
		return VectorMeta{}, raw
	}
	rest := strings.TrimPrefix(raw, vectorMetaPrefix)
	line, body, ok := strings.Cut(rest, "\n")
	if !ok {
		return VectorMeta{}, raw
	}
	var meta VectorMeta
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &meta); err != nil {
		return VectorMeta{}, strings.TrimSpace(body)
	}
	return meta, strings.TrimSpace(body)
}
