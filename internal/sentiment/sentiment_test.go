package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeEmptyText(t *testing.T) {
	assert.Equal(t, Score{}, Analyze(""))
}

func TestAnalyzePositiveText(t *testing.T) {
	score := Analyze("This place is wonderful, I love it so much!")
	assert.Greater(t, score.Compound, 0.0)
	assert.Greater(t, score.Positif, score.Negatif)
}

func TestAnalyzeNegativeText(t *testing.T) {
	score := Analyze("This is horrible, I hate everything about it.")
	assert.Less(t, score.Compound, 0.0)
	assert.Greater(t, score.Negatif, score.Positif)
}

func TestMapKeys(t *testing.T) {
	m := Score{Negatif: 0.1, Neutre: 0.5, Positif: 0.4, Compound: 0.6}.Map()
	assert.Equal(t, map[string]float64{
		"neg":      0.1,
		"neu":      0.5,
		"pos":      0.4,
		"compound": 0.6,
	}, m)
}
