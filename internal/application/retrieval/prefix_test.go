package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrefixes(t *testing.T) {
	got := NormalizePrefixes([]string{"[CHARACTER]", "faction lore", "character", "  ", "Item"})
	assert.Equal(t, []string{"CHARACTER", "FACTION_LORE", "ITEM"}, got)
}

func TestNormalizePrefixesEmpty(t *testing.T) {
	assert.Empty(t, NormalizePrefixes(nil))
	assert.Empty(t, NormalizePrefixes([]string{"", "   "}))
}

func TestContainsPrefix(t *testing.T) {
	prefixes := []string{"CHARACTER", "ITEM"}
	assert.True(t, containsPrefix(prefixes, "ITEM"))
	assert.False(t, containsPrefix(prefixes, "LOCATION"))
	assert.False(t, containsPrefix(nil, "ITEM"))
}
