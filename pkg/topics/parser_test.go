package topics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty string", raw: "", want: nil},
		{name: "single topic", raw: "War", want: []string{"war"}},
		{name: "trims and lowercases", raw: "  War | HISTORY  ", want: []string{"war", "history"}},
		{name: "drops empty tokens", raw: "war||  |history|", want: []string{"war", "history"}},
		{name: "only delimiters", raw: "| | |", want: []string{}},
		{name: "keeps duplicates in order", raw: "war|history|War", want: []string{"war", "history", "war"}},
		{name: "keeps inner spaces", raw: "civil war|cold  war", want: []string{"civil war", "cold  war"}},
		{name: "unicode", raw: "Guerra Civil|Época", want: []string{"guerra civil", "época"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewParser(16)
			got := p.Parse(tt.raw)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	t.Parallel()

	p := NewParser(16)
	inputs := []string{"war|history", "romance", " a | b | a ", ""}

	first := make([][]string, len(inputs))
	for i, raw := range inputs {
		first[i] = append([]string(nil), p.Parse(raw)...)
	}

	// Reverse order so earlier calls cannot influence the result.
	for i := len(inputs) - 1; i >= 0; i-- {
		assert.Equal(t, first[i], append([]string(nil), p.Parse(inputs[i])...), inputs[i])
	}

	fresh := NewParser(16)
	for i, raw := range inputs {
		assert.Equal(t, first[i], append([]string(nil), fresh.Parse(raw)...), raw)
	}
}

func TestParseCachesRawString(t *testing.T) {
	t.Parallel()

	p := NewParser(16)
	a := p.Parse("war|history")
	b := p.Parse("war|history")

	require.Len(t, a, 2)
	// Same backing array means the string was not split again.
	assert.Same(t, &a[0], &b[0])

	stats := p.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, p.HitRate(), 1e-9)
}

func TestParseEmptyIsNotCached(t *testing.T) {
	t.Parallel()

	p := NewParser(16)
	p.Parse("")
	assert.Equal(t, 0, p.Stats().Size)
	assert.Zero(t, p.HitRate())
}

func TestParserEviction(t *testing.T) {
	t.Parallel()

	p := NewParser(2)
	p.Parse("a")
	p.Parse("b")
	p.Parse("c")

	assert.Equal(t, 2, p.Stats().Size)
	assert.Equal(t, []string{"a"}, p.Parse("a"))
	assert.Equal(t, int64(4), p.Stats().Misses)
}

func TestParserPurge(t *testing.T) {
	t.Parallel()

	p := NewParser(4)
	p.Parse("a|b")
	p.Parse("a|b")
	p.Purge()

	assert.Equal(t, Stats{}, p.Stats())
}

func TestParserNonPositiveSize(t *testing.T) {
	t.Parallel()

	p := NewParser(0)
	assert.Equal(t, []string{"x"}, p.Parse("x"))
}

func TestParserConcurrent(t *testing.T) {
	t.Parallel()

	p := NewParser(8)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, []string{"war", "history"}, p.Parse("War|History"))
			}
		}()
	}
	wg.Wait()

	s := p.Stats()
	assert.Equal(t, int64(1600), s.Hits+s.Misses)
}
