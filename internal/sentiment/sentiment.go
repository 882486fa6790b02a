package sentiment

import (
	"github.com/grassmudhorses/vader-go/lexicon"
	"github.com/grassmudhorses/vader-go/sentitext"
)

// Score carries the VADER polarity of a post text. Keys mirror the
// analyse documents exchanged between services.
type Score struct {
	Negatif  float64 `json:"negatif"`
	Neutre   float64 `json:"neutre"`
	Positif  float64 `json:"positif"`
	Compound float64 `json:"compound"`
}

// Analyze scores a text with the default VADER lexicon. Empty text
// yields the zero Score, which reads as fully neutral downstream.
func Analyze(text string) Score {
	if text == "" {
		return Score{}
	}
	parsed := sentitext.Parse(text, lexicon.DefaultLexicon)
	polarity := sentitext.PolarityScore(parsed)
	return Score{
		Negatif:  polarity.Negative,
		Neutre:   polarity.Neutral,
		Positif:  polarity.Positive,
		Compound: polarity.Compound,
	}
}

// Map renders the score the way posts persist it alongside raw data.
func (s Score) Map() map[string]float64 {
	return map[string]float64{
		"neg":      s.Negatif,
		"neu":      s.Neutre,
		"pos":      s.Positif,
		"compound": s.Compound,
	}
}
