package cloud

import (
	"bytes"
	"image/color"
	"sort"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/psykhi/wordclouds"
)

// minWordLength filters connectives and hashtag glue out of the cloud.
const minWordLength = 4

// maxWords caps the rendered cloud so dense keywords stay readable.
const maxWords = 80

// Keywords tokenizes text and counts word frequency. Words are lowercased,
// stripped of punctuation and dropped when shorter than four runes.
func Keywords(text string) map[string]int {
	counts := make(map[string]int)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, word := range words {
		word = strings.ToLower(word)
		if len([]rune(word)) < minWordLength {
			continue
		}
		counts[word]++
	}
	return counts
}

// Top keeps the n most frequent words, ties broken alphabetically.
func Top(counts map[string]int, n int) map[string]int {
	if len(counts) <= n {
		return counts
	}
	type entry struct {
		word  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for word, count := range counts {
		entries = append(entries, entry{word, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].word < entries[j].word
	})
	top := make(map[string]int, n)
	for _, e := range entries[:n] {
		top[e.word] = e.count
	}
	return top
}

var palette = []color.Color{
	color.RGBA{0x1d, 0x35, 0x57, 0xff},
	color.RGBA{0x45, 0x7b, 0x9d, 0xff},
	color.RGBA{0xe6, 0x39, 0x46, 0xff},
	color.RGBA{0xa8, 0xda, 0xdc, 0xff},
}

// Image renders a PNG word cloud on a white background. fontPath must point
// to a TTF file readable by the service.
func Image(counts map[string]int, fontPath string) ([]byte, error) {
	cloud := wordclouds.NewWordcloud(
		Top(counts, maxWords),
		wordclouds.FontFile(fontPath),
		wordclouds.FontMaxSize(96),
		wordclouds.FontMinSize(12),
		wordclouds.Width(1024),
		wordclouds.Height(768),
		wordclouds.Colors(palette),
		wordclouds.BackgroundColor(color.White),
	)
	img := cloud.Draw()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
