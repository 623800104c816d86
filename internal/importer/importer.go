// Package importer loads word catalog entries from xlsx and csv files.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"word-garden/internal/model"
)

// Recognized header names. Headers are matched case-insensitively.
const (
	ColWord               = "word"
	ColPhonetic           = "phonetic"
	ColMeaning            = "meaning"
	ColExample            = "example"
	ColExampleTranslation = "example_translation"
	ColDifficulty         = "difficulty"
	ColCategory           = "category"
)

// DefaultDifficulty is used when the difficulty cell is empty.
const DefaultDifficulty = "easy"

var validDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true}

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// RowError describes a row that could not be turned into a word.
type RowError struct {
	Row    int // 1-based, header included
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// WordUpserter stores a word, reporting whether it was newly created.
type WordUpserter interface {
	Upsert(ctx context.Context, w *model.Word) (bool, error)
}

// Result summarizes an import run.
type Result struct {
	Created int
	Updated int
	Skipped []RowError
}

// Importer writes parsed words into the catalog.
type Importer struct {
	words WordUpserter
}

// New creates a new Importer.
func New(words WordUpserter) *Importer {
	return &Importer{words: words}
}

// ImportFile parses path and upserts every valid row. sheet is only used for
// xlsx files; empty means the first sheet.
func (im *Importer) ImportFile(ctx context.Context, path, sheet string) (*Result, error) {
	words, skipped, err := ReadFile(path, sheet)
	if err != nil {
		return nil, err
	}

	res, err := im.Import(ctx, words)
	if err != nil {
		return nil, err
	}
	res.Skipped = append(skipped, res.Skipped...)
	return res, nil
}

// Import upserts words. Storage errors abort the run.
func (im *Importer) Import(ctx context.Context, words []*model.Word) (*Result, error) {
	res := &Result{}
	for _, w := range words {
		created, err := im.words.Upsert(ctx, w)
		if err != nil {
			return res, fmt.Errorf("failed to upsert %q: %w", w.Word, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Msg("Word import finished")

	return res, nil
}

// ReadFile parses an xlsx or csv file, chosen by extension.
func ReadFile(path, sheet string) ([]*model.Word, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ParseCSV(f)
	case ".xlsx", ".xlsm":
		return ParseXLSX(f, sheet)
	default:
		return nil, nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

// ParseXLSX reads words from a workbook sheet.
func ParseXLSX(r io.Reader, sheet string) ([]*model.Word, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return parseRows(rows)
}

// ParseCSV reads words from comma separated data with a header row.
func ParseCSV(r io.Reader) ([]*model.Word, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]*model.Word, []RowError, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColWord)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(h))
		name = strings.ReplaceAll(name, " ", "_")
		if _, dup := cols[name]; !dup && name != "" {
			cols[name] = i
		}
	}
	for _, required := range []string{ColWord, ColMeaning} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		words   []*model.Word
		skipped []RowError
		seen    = make(map[string]int)
	)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}

		w := &model.Word{
			Word:               cell(row, ColWord),
			Phonetic:           cell(row, ColPhonetic),
			Meaning:            cell(row, ColMeaning),
			Example:            cell(row, ColExample),
			ExampleTranslation: cell(row, ColExampleTranslation),
			Difficulty:         strings.ToLower(cell(row, ColDifficulty)),
			Category:           cell(row, ColCategory),
		}
		if w.Difficulty == "" {
			w.Difficulty = DefaultDifficulty
		}

		switch {
		case w.Word == "":
			skipped = append(skipped, RowError{Row: rowNum, Reason: "word is empty"})
			continue
		case w.Meaning == "":
			skipped = append(skipped, RowError{Row: rowNum, Reason: fmt.Sprintf("meaning of %q is empty", w.Word)})
			continue
		case !validDifficulties[w.Difficulty]:
			skipped = append(skipped, RowError{Row: rowNum, Reason: fmt.Sprintf("unknown difficulty %q", w.Difficulty)})
			continue
		}

		key := strings.ToLower(w.Word)
		if first, dup := seen[key]; dup {
			skipped = append(skipped, RowError{Row: rowNum, Reason: fmt.Sprintf("duplicate of row %d", first)})
			continue
		}
		seen[key] = rowNum
		words = append(words, w)
	}

	return words, skipped, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
