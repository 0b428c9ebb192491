// Package store persists aggregated tables as CSV files with JSON metadata
// sidecars, and reads them back for rendering.
package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/naka-gawa/github-activity-charts/internal/domain"
)

// File names inside the output directory.
const (
	LanguageCSV  = "language-project-counts.csv"
	LanguageJSON = "language-project-counts.json"
	LanguageSVG  = "language-project-chart.svg"
)

// ActivityCSV returns the CSV file name of the days-long activity table.
func ActivityCSV(days int) string { return fmt.Sprintf("coding-days-%dd.csv", days) }

// ActivityJSON returns the metadata file name of the days-long activity table.
func ActivityJSON(days int) string { return fmt.Sprintf("coding-days-%dd.json", days) }

// ActivitySVG returns the chart file name of the days-long activity table.
func ActivitySVG(days int) string { return fmt.Sprintf("coding-days-%dd.svg", days) }

// LanguageMeta is the metadata written next to the language table.
type LanguageMeta struct {
	Owner        string         `json:"owner"`
	GeneratedAt  string         `json:"generated_at"`
	CountingMode string         `json:"counting_mode"`
	Total        int            `json:"total_counted_repos"`
	Counts       map[string]int `json:"project_counts_by_language,omitempty"`
	CSVFile      string         `json:"csv_file"`
}

// ActivityMeta is the metadata written next to a daily activity table.
type ActivityMeta struct {
	Owner       string `json:"owner"`
	GeneratedAt string `json:"generated_at"`
	Source      string `json:"source,omitempty"`
	domain.ActivitySummary
	CSVFile  string   `json:"csv_file"`
	Degraded []string `json:"degraded_sites,omitempty"`
}

// Store reads and writes the files of one output directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the path of name inside the output directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteLanguageCounts overwrites the language table and its metadata.
func (s *Store) WriteLanguageCounts(owner string, rows []domain.LanguageCount, generatedAt time.Time) error {
	records := [][]string{{"language", "count"}}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		records = append(records, []string{row.Language, strconv.Itoa(row.Count)})
		counts[row.Language] = row.Count
	}
	if err := s.writeCSV(LanguageCSV, records); err != nil {
		return err
	}
	meta := LanguageMeta{
		Owner:        owner,
		GeneratedAt:  generatedAt.Format(time.RFC3339),
		CountingMode: domain.CountingModeRepoPresence,
		Total:        domain.TotalLanguageCount(rows),
		Counts:       counts,
		CSVFile:      LanguageCSV,
	}
	return s.writeJSON(LanguageJSON, meta)
}

// WriteDailyActivity overwrites the activity table of one window and its metadata.
func (s *Store) WriteDailyActivity(owner string, activity domain.DailyActivity, generatedAt time.Time) error {
	days := activity.Window.Days
	records := [][]string{{"date", "count"}}
	for _, row := range activity.Days {
		records = append(records, []string{row.Date, strconv.Itoa(row.Count)})
	}
	if err := s.writeCSV(ActivityCSV(days), records); err != nil {
		return err
	}
	meta := ActivityMeta{
		Owner:           owner,
		GeneratedAt:     generatedAt.Format(time.RFC3339),
		Source:          activity.Source,
		ActivitySummary: domain.Summarize(activity.Days, days),
		CSVFile:         ActivityCSV(days),
		Degraded:        activity.Degraded,
	}
	return s.writeJSON(ActivityJSON(days), meta)
}

// ReadLanguageCounts reads the language table in table order. A missing file yields no rows;
// rows without a language or with a non-numeric count are skipped.
func (s *Store) ReadLanguageCounts() ([]domain.LanguageCount, error) {
	var rows []domain.LanguageCount
	err := s.readCSV(LanguageCSV, func(get func(...string) string) {
		language := get("language")
		count, err := strconv.Atoi(get("count"))
		if language == "" || err != nil {
			return
		}
		rows = append(rows, domain.LanguageCount{Language: language, Count: count})
	})
	domain.SortLanguageRows(rows)
	return rows, err
}

// ReadDailyActivity reads the activity table of one window. Unparseable counts read as zero.
func (s *Store) ReadDailyActivity(days int) ([]domain.DayCount, error) {
	var rows []domain.DayCount
	err := s.readCSV(ActivityCSV(days), func(get func(...string) string) {
		date := get("date")
		if date == "" {
			return
		}
		count, err := strconv.Atoi(get("count", "contribution_count", "commit_count"))
		if err != nil {
			count = 0
		}
		rows = append(rows, domain.DayCount{Date: date, Count: count})
	})
	return rows, err
}

// ReadLanguageMeta reads the language metadata. Missing or corrupt files yield zero metadata.
func (s *Store) ReadLanguageMeta() LanguageMeta {
	var meta LanguageMeta
	s.readJSON(LanguageJSON, &meta)
	return meta
}

// ReadActivityMeta reads the metadata of one window. The boolean is false when
// the file is missing or corrupt.
func (s *Store) ReadActivityMeta(days int) (ActivityMeta, bool) {
	var meta ActivityMeta
	ok := s.readJSON(ActivityJSON(days), &meta)
	return meta, ok
}

// WriteFile atomically replaces name with data.
func (s *Store) WriteFile(name string, data []byte) error {
	return s.replace(name, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func (s *Store) writeCSV(name string, records [][]string) error {
	return s.replace(name, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(records); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		return nil
	})
}

func (s *Store) writeJSON(name string, v interface{}) error {
	return s.replace(name, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		return nil
	})
}

// replace writes to a temporary file and renames it over name so readers never see a partial file.
func (s *Store) replace(name string, write func(io.Writer) error) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// readCSV calls row for every record of name with a getter returning the first
// non-empty value among the given column names.
func (s *Store) readCSV(name string, row func(get func(columns ...string) string)) error {
	f, err := os.Open(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	index := make(map[string]int, len(header))
	for i, column := range header {
		index[strings.TrimSpace(column)] = i
	}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		row(func(columns ...string) string {
			for _, column := range columns {
				if i, ok := index[column]; ok && i < len(record) {
					if v := strings.TrimSpace(record[i]); v != "" {
						return v
					}
				}
			}
			return ""
		})
	}
}

func (s *Store) readJSON(name string, v interface{}) bool {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
