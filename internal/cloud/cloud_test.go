package cloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordsDropsShortWords(t *testing.T) {
	counts := Keywords("la vie est belle à Abidjan, la ville est belle")

	assert.NotContains(t, counts, "la")
	assert.NotContains(t, counts, "vie")
	assert.NotContains(t, counts, "est")
	assert.Equal(t, 2, counts["belle"])
	assert.Equal(t, 1, counts["abidjan"])
	assert.Equal(t, 1, counts["ville"])
}

func TestKeywordsHandlesAccentsAndPunctuation(t *testing.T) {
	counts := Keywords("Élections! élections... #élections")

	assert.Equal(t, 3, counts["élections"])
}

func TestKeywordsEmptyText(t *testing.T) {
	assert.Empty(t, Keywords(""))
	assert.Empty(t, Keywords("a b c !!!"))
}

func TestTopKeepsMostFrequent(t *testing.T) {
	counts := map[string]int{
		"abidjan": 5,
		"bouake":  3,
		"daloa":   3,
		"korhogo": 1,
	}

	top := Top(counts, 2)
	assert.Len(t, top, 2)
	assert.Contains(t, top, "abidjan")
	// tie between bouake and daloa resolves alphabetically
	assert.Contains(t, top, "bouake")
}

func TestTopNoTruncationNeeded(t *testing.T) {
	counts := map[string]int{"abidjan": 1}
	assert.Equal(t, counts, Top(counts, 10))
}
