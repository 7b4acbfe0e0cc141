// Package entity 定义领域实体
package entity

import (
	"regexp"
	"strings"
	"time"
)

// PrefixOther 无法解析出前缀时的默认分类
const PrefixOther = "OTHER"

// prefixPattern 匹配条目名开头的 [TAG] 前缀
var prefixPattern = regexp.MustCompile(`^\[([^\]]*)\]\s*`)

// ExtractPrefix 从条目名解析分类前缀
// 返回标准化后的前缀键（大写、空格转下划线）和去掉前缀的名称；
// 无前缀时返回 PrefixOther 和原名。
func ExtractPrefix(name string) (string, string) {
	m := prefixPattern.FindStringSubmatch(name)
	if m == nil {
		return PrefixOther, strings.TrimSpace(name)
	}
	key := strings.TrimSpace(m[1])
	key = strings.ToUpper(strings.ReplaceAll(key, " ", "_"))
	if key == "" {
		key = PrefixOther
	}
	rest := strings.TrimSpace(name[len(m[0]):])
	return key, rest
}

// BibleEntity 设定集条目（角色/地点/规则等，条目名携带 [TAG] 分类前缀）
type BibleEntity struct {
	ID          string `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID   string `json:"project_id" gorm:"type:uuid;index;not null"`
	EntityName  string `json:"entity_name" gorm:"type:varchar(512);not null;index"`
	Description string `json:"description,omitempty" gorm:"type:text"`
	// ImportanceBias 人工标注的重要性 (0-1)，nil 时打分按 0.5 处理
	ImportanceBias *float64 `json:"importance_bias,omitempty"`
	// LookupCount 被检索命中的累计次数
	LookupCount int `json:"lookup_count" gorm:"default:0"`
	// LastLookupAt 最近一次被命中的时间
	LastLookupAt *time.Time `json:"last_lookup_at,omitempty"`
	// ParentID 变体条目指向的主条目
	ParentID *string `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	// SourceChapter 条目出处章节号，0 表示未知
	SourceChapter int       `json:"source_chapter,omitempty"`
	SheetName     string    `json:"sheet_name,omitempty" gorm:"type:varchar(255)"`
	SourceFile    string    `json:"source_file,omitempty" gorm:"type:varchar(512)"`
	VectorID      string    `json:"vector_id,omitempty" gorm:"type:varchar(64)"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (BibleEntity) TableName() string {
	return "bible_entities"
}

// NewBibleEntity 创建新设定条目
func NewBibleEntity(projectID, entityName string) *BibleEntity {
	now := time.Now()
	return &BibleEntity{
		ProjectID:  projectID,
		EntityName: entityName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// PrefixKey 返回条目名的分类前缀键
func (e *BibleEntity) PrefixKey() string {
	key, _ := ExtractPrefix(e.EntityName)
	return key
}

// DisplayName 返回去掉 [TAG] 前缀后的名称
func (e *BibleEntity) DisplayName() string {
	_, name := ExtractPrefix(e.EntityName)
	return name
}

// Importance 返回重要性，未标注时取 0.5
func (e *BibleEntity) Importance() float64 {
	if e.ImportanceBias == nil {
		return 0.5
	}
	return *e.ImportanceBias
}

// RecordLookup 记录一次检索命中
func (e *BibleEntity) RecordLookup() {
	now := time.Now()
	e.LookupCount++
	e.LastLookupAt = &now
	e.UpdatedAt = now
}
