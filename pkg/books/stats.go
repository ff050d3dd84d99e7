package books

import (
	"cmp"
	"slices"
)

// YearBin is one bar of the publication-year histogram.
type YearBin struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// YearHistogram counts books of genre per year over [from, to], with a bin
// for every year including empty ones. An empty genre counts every book.
func YearHistogram(books []Book, genre string, from, to int) []YearBin {
	if from > to {
		from, to = to, from
	}

	counts := make(map[int]int)
	for _, b := range books {
		if genre == "" || b.Genre == genre {
			counts[b.Year]++
		}
	}

	bins := make([]YearBin, 0, to-from+1)
	for year := from; year <= to; year++ {
		bins = append(bins, YearBin{Year: year, Count: counts[year]})
	}
	return bins
}

// GenreStat is the share of one genre within a set of books.
type GenreStat struct {
	Genre      string  `json:"genre"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// GenreStats returns the limit most common genres, most common first. Ties
// keep the order in which genres first appear. A non-positive limit returns
// every genre.
func GenreStats(books []Book, limit int) []GenreStat {
	if len(books) == 0 {
		return nil
	}

	var stats []GenreStat
	position := make(map[string]int)
	for _, b := range books {
		i, ok := position[b.Genre]
		if !ok {
			i = len(stats)
			position[b.Genre] = i
			stats = append(stats, GenreStat{Genre: b.Genre})
		}
		stats[i].Count++
	}

	total := float64(len(books))
	for i := range stats {
		stats[i].Percentage = float64(stats[i].Count) / total * 100
	}

	slices.SortStableFunc(stats, func(a, b GenreStat) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

// CountryCount is the number of books by authors from one country.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// CountryCounts groups books by author country, most books first and then
// alphabetically. Books without a country are skipped.
func CountryCounts(books []Book) []CountryCount {
	counts := make(map[string]int)
	for _, b := range books {
		if b.AuthorCountry != "" {
			counts[b.AuthorCountry]++
		}
	}

	out := make([]CountryCount, 0, len(counts))
	for country, count := range counts {
		out = append(out, CountryCount{Country: country, Count: count})
	}
	slices.SortFunc(out, func(a, b CountryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Country, b.Country)
	})
	return out
}

// Migrations counts books published outside their author's country.
func Migrations(books []Book) int {
	n := 0
	for _, b := range books {
		if b.Migrated() {
			n++
		}
	}
	return n
}
