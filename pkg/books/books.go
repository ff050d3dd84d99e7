// Package books loads the book dataset and derives the filtered views, item
// batches and summary statistics shown next to the topic map.
package books

import (
	"encoding/json"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/jespino/bookmap/pkg/layout"
)

// Book is one dataset record. Field names follow the dataset's JSON keys.
type Book struct {
	ID                 int    `json:"id"`
	Title              string `json:"Titulo"`
	Author             string `json:"Autor"`
	Year               int    `json:"Año"`
	Genre              string `json:"Genero"`
	Topics             string `json:"Temas"`
	AuthorCountry      string `json:"Pais_Autor"`
	PublicationCountry string `json:"Pais_Publicacion"`
}

// Migrated reports whether the book was published outside the author's
// country.
func (b Book) Migrated() bool {
	return b.AuthorCountry != "" && b.PublicationCountry != "" && b.AuthorCountry != b.PublicationCountry
}

// Load reads a JSON array of books from path.
func Load(path string) ([]Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read dataset")
	}
	return Parse(data)
}

// Parse decodes a JSON array of books and rejects duplicate ids.
func Parse(data []byte) ([]Book, error) {
	var books []Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, errors.Wrap(err, "failed to decode dataset")
	}

	seen := make(map[int]struct{}, len(books))
	for _, b := range books {
		if _, ok := seen[b.ID]; ok {
			return nil, errors.Errorf("duplicate book id %d", b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	return books, nil
}

// Filter selects books by publication year, genre and author country.
// Empty string fields match everything.
type Filter struct {
	From    int    `json:"from"`
	To      int    `json:"to"`
	Genre   string `json:"genre,omitempty"`
	Country string `json:"country,omitempty"`
}

const (
	DefaultFrom = 1980
	DefaultTo   = 1990

	// Histogram bounds.
	FirstYear = 1980
	LastYear  = 2020
)

func DefaultFilter() Filter {
	return Filter{From: DefaultFrom, To: DefaultTo}
}

// Match reports whether b passes the filter. The year range is inclusive.
func (f Filter) Match(b Book) bool {
	from, to := f.From, f.To
	if from > to {
		from, to = to, from
	}
	if b.Year < from || b.Year > to {
		return false
	}
	if f.Genre != "" && !strings.EqualFold(b.Genre, f.Genre) {
		return false
	}
	if f.Country != "" && !strings.EqualFold(b.AuthorCountry, f.Country) {
		return false
	}
	return true
}

// Apply returns the books matching f, keeping dataset order.
func Apply(books []Book, f Filter) []Book {
	filtered := make([]Book, 0, len(books))
	for _, b := range books {
		if f.Match(b) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

// Items projects books to layout items, keeping order.
func Items(books []Book) []layout.Item {
	items := make([]layout.Item, len(books))
	for i, b := range books {
		items[i] = layout.Item{ID: b.ID, Topics: b.Topics}
	}
	return items
}

// ByID indexes books by id.
func ByID(books []Book) map[int]Book {
	index := make(map[int]Book, len(books))
	for _, b := range books {
		index[b.ID] = b
	}
	return index
}

// Genres returns the distinct genres in alphabetical order.
func Genres(books []Book) []string {
	var genres []string
	for _, b := range books {
		if b.Genre != "" && !slices.Contains(genres, b.Genre) {
			genres = append(genres, b.Genre)
		}
	}
	slices.Sort(genres)
	return genres
}
