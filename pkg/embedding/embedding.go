package embedding

import (
	"slices"

	"github.com/jespino/bookmap/pkg/topics"
)

// MaxTopics is the default vocabulary cap.
const MaxTopics = 80

// Vocabulary stores topic frequencies across one batch of items
type Vocabulary struct {
	parser   *topics.Parser
	counts   map[string]int // topic -> occurrences in the batch
	seen     []string       // topics in first-seen order
	wordList []string
	index    map[string]int
}

func NewVocabulary(parser *topics.Parser) *Vocabulary {
	if parser == nil {
		parser = topics.NewParser(topics.DefaultCacheSize)
	}
	return &Vocabulary{
		parser: parser,
		counts: make(map[string]int),
	}
}

// AddDocument parses a raw theme string and counts its topics.
func (v *Vocabulary) AddDocument(raw string) []string {
	tokens := v.parser.Parse(raw)
	v.AddTokens(tokens)
	return tokens
}

// AddTokens counts every occurrence, so a topic repeated inside one item is
// counted twice.
func (v *Vocabulary) AddTokens(tokens []string) {
	for _, token := range tokens {
		if _, ok := v.counts[token]; !ok {
			v.seen = append(v.seen, token)
		}
		v.counts[token]++
	}
}

// Finalize ranks topics by descending count and keeps the first max of them.
// Ties keep first-seen order.
func (v *Vocabulary) Finalize(max int) {
	ranked := slices.Clone(v.seen)
	slices.SortStableFunc(ranked, func(a, b string) int {
		return v.counts[b] - v.counts[a]
	})
	if max >= 0 && len(ranked) > max {
		ranked = ranked[:max]
	}

	v.wordList = ranked
	v.index = make(map[string]int, len(ranked))
	for i, word := range ranked {
		v.index[word] = i
	}
}

// Words returns the vocabulary in rank order.
func (v *Vocabulary) Words() []string {
	return v.wordList
}

func (v *Vocabulary) Len() int {
	return len(v.wordList)
}

// Count reports how many times topic occurred in the batch.
func (v *Vocabulary) Count(topic string) int {
	return v.counts[topic]
}

// Index returns the vector position of topic.
func (v *Vocabulary) Index(topic string) (int, bool) {
	i, ok := v.index[topic]
	return i, ok
}

// Vector encodes tokens as a binary presence vector over the vocabulary.
func (v *Vocabulary) Vector(tokens []string) []float64 {
	vector := make([]float64, len(v.wordList))
	for _, token := range tokens {
		if i, ok := v.index[token]; ok {
			vector[i] = 1
		}
	}
	return vector
}

// Vectorize builds the top-maxTopics vocabulary of a batch of raw theme
// strings and one feature vector per input, in input order.
func Vectorize(parser *topics.Parser, raws []string, maxTopics int) (*Vocabulary, [][]float64) {
	vocab := NewVocabulary(parser)

	tokenLists := make([][]string, len(raws))
	for i, raw := range raws {
		tokenLists[i] = vocab.AddDocument(raw)
	}
	vocab.Finalize(maxTopics)

	vectors := make([][]float64, len(raws))
	for i, tokens := range tokenLists {
		vectors[i] = vocab.Vector(tokens)
	}

	return vocab, vectors
}

// Float32 converts a feature vector for indexes that store float32.
func Float32(vector []float64) []float32 {
	out := make([]float32, len(vector))
	for i, value := range vector {
		out[i] = float32(value)
	}
	return out
}
