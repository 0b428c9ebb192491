package domain

import (
	"sort"
	"strings"
)

// OtherLanguage is the bucket used when a repository has no known language.
const OtherLanguage = "Other"

// CountingModeRepoPresence labels tables where each repository counts once per language.
const CountingModeRepoPresence = "repo_presence"

// LanguageCount is one row of the language count table.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// SortLanguageCounts flattens counts into table order: descending by count,
// then ascending by lowercased name.
func SortLanguageCounts(counts map[string]int) []LanguageCount {
	rows := make([]LanguageCount, 0, len(counts))
	for language, count := range counts {
		rows = append(rows, LanguageCount{Language: language, Count: count})
	}
	SortLanguageRows(rows)
	return rows
}

// SortLanguageRows sorts rows in place using the table order.
func SortLanguageRows(rows []LanguageCount) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		li, lj := strings.ToLower(rows[i].Language), strings.ToLower(rows[j].Language)
		if li != lj {
			return li < lj
		}
		return rows[i].Language < rows[j].Language
	})
}

// TotalLanguageCount sums every row of the table.
func TotalLanguageCount(rows []LanguageCount) int {
	total := 0
	for _, row := range rows {
		total += row.Count
	}
	return total
}
