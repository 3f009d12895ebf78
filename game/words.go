package game

import (
	"bufio"
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/samber/lo"
)

//go:embed words.txt
var defaultWords string

// WordSource hands out the secret word pair for a round.
type WordSource interface {
	Pair() (word, decoy string)
}

type WordList struct {
	words []string
	intn  func(n int) int
}

// NewWordList builds a WordList from words, dropping blanks and
// case-insensitive duplicates. At least two distinct words are required.
func NewWordList(words []string) (*WordList, error) {
	cleaned := lo.UniqBy(
		lo.Filter(lo.Map(words, func(w string, _ int) string {
			return strings.TrimSpace(w)
		}), func(w string, _ int) bool {
			return w != "" && !strings.HasPrefix(w, "#")
		}),
		strings.ToLower,
	)

	if len(cleaned) < 2 {
		return nil, fmt.Errorf("word list needs at least 2 distinct words, got %d", len(cleaned))
	}

	return &WordList{words: cleaned, intn: rand.Intn}, nil
}

// DefaultWordList returns the bundled word list.
func DefaultWordList() *WordList {
	wl, err := NewWordList(strings.Split(defaultWords, "\n"))
	if err != nil {
		panic(fmt.Sprintf("bundled word list: %v", err))
	}
	return wl
}

// LoadWordList reads one word per line from path. Lines starting with # are
// ignored.
func LoadWordList(path string) (*WordList, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word file %s: %w", path, err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading word file %s: %w", path, err)
	}

	return NewWordList(words)
}

func (wl *WordList) Len() int {
	return len(wl.words)
}

// Pair picks a real word and a decoy, re-rolling the decoy until it differs
// from the real word.
func (wl *WordList) Pair() (string, string) {
	word := wl.words[wl.intn(len(wl.words))]
	decoy := word
	for strings.EqualFold(decoy, word) {
		decoy = wl.words[wl.intn(len(wl.words))]
	}
	return word, decoy
}
