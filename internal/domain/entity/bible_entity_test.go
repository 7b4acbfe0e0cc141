package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKey  string
		wantName string
	}{
		{"standard", "[CHARACTER] Hùng", "CHARACTER", "Hùng"},
		{"lowercase", "[character] Hùng", "CHARACTER", "Hùng"},
		{"spaces in tag", "[Faction Lore] 北境同盟", "FACTION_LORE", "北境同盟"},
		{"no prefix", "Rusty Dagger", "OTHER", "Rusty Dagger"},
		{"empty tag", "[] something", "OTHER", "something"},
		{"no space after tag", "[ITEM]Sword", "ITEM", "Sword"},
		{"bracket mid-name", "Sword [of Dawn]", "OTHER", "Sword [of Dawn]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, name := ExtractPrefix(tt.input)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestBibleEntityImportance(t *testing.T) {
	e := NewBibleEntity("p1", "[ITEM] Sword")
	assert.Equal(t, 0.5, e.Importance())

	bias := 0.8
	e.ImportanceBias = &bias
	assert.Equal(t, 0.8, e.Importance())
}

func TestBibleEntityRecordLookup(t *testing.T) {
	e := NewBibleEntity("p1", "[CHARACTER] A")
	assert.Nil(t, e.LastLookupAt)

	e.RecordLookup()
	e.RecordLookup()
	assert.Equal(t, 2, e.LookupCount)
	assert.NotNil(t, e.LastLookupAt)
}

func TestBibleEntityPrefixHelpers(t *testing.T) {
	e := NewBibleEntity("p1", "[Location] 黑石城")
	assert.Equal(t, "LOCATION", e.PrefixKey())
	assert.Equal(t, "黑石城", e.DisplayName())
}
