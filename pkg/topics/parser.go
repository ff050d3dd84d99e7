// Package topics splits the pipe-delimited theme field of a book into
// normalized topic tokens.
package topics

import (
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Delimiter separates topics inside a raw theme string.
const Delimiter = "|"

// DefaultCacheSize bounds the number of distinct raw strings remembered by a
// Parser built with a non-positive size.
const DefaultCacheSize = 10000

// Parser turns raw theme strings into token lists and remembers the result
// for every distinct raw string it has seen, evicting the least recently
// used entries once the cache is full.
//
// A Parser is safe for concurrent use. Returned slices are shared between
// callers and must not be modified.
type Parser struct {
	cache  *lru.Cache[string, []string]
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache usage of a Parser.
type Stats struct {
	Size   int
	Hits   int64
	Misses int64
}

// NewParser creates a Parser whose cache holds at most size raw strings.
func NewParser(size int) *Parser {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails on a non-positive size.
	cache, _ := lru.New[string, []string](size)
	return &Parser{cache: cache}
}

var defaultParser = NewParser(DefaultCacheSize)

// Parse splits raw with the package default parser.
func Parse(raw string) []string {
	return defaultParser.Parse(raw)
}

// Parse returns the lower-cased, trimmed, non-empty tokens of raw in the
// order they appear. Duplicates are kept.
func (p *Parser) Parse(raw string) []string {
	if raw == "" {
		return nil
	}

	if tokens, ok := p.cache.Get(raw); ok {
		p.hits.Add(1)
		return tokens
	}
	p.misses.Add(1)

	tokens := split(raw)
	p.cache.Add(raw, tokens)
	return tokens
}

func split(raw string) []string {
	parts := strings.Split(raw, Delimiter)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.ToLower(strings.TrimSpace(part))
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Stats returns the current cache size and hit/miss counters.
func (p *Parser) Stats() Stats {
	return Stats{
		Size:   p.cache.Len(),
		Hits:   p.hits.Load(),
		Misses: p.misses.Load(),
	}
}

// HitRate is the fraction of Parse calls answered from the cache.
func (p *Parser) HitRate() float64 {
	s := p.Stats()
	if s.Hits+s.Misses == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Purge drops every cached entry and resets the counters.
func (p *Parser) Purge() {
	p.cache.Purge()
	p.hits.Store(0)
	p.misses.Store(0)
}
