package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"verselearn/internal/models"
)

// ImportRow is one text read from a spreadsheet
type ImportRow struct {
	Line     int
	Title    string
	Language string
	Text     string
}

// ImportResult summarizes a bulk import
type ImportResult struct {
	Added   int
	Skipped int
	Errors  []string
}

// ReadImportFile reads title, language and text columns from an .xlsx or
// .csv file. A header row naming the columns is skipped.
func ReadImportFile(path string) ([]ImportRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return readCSV(f)
	default:
		return nil, fmt.Errorf("unsupported import file type %q", filepath.Ext(path))
	}
}

func readXLSX(path string) ([]ImportRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return toImportRows(rows), nil
}

func readCSV(r io.Reader) ([]ImportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return toImportRows(records), nil
}

func toImportRows(records [][]string) []ImportRow {
	var out []ImportRow
	for i, rec := range records {
		if len(rec) < 3 {
			if len(rec) > 0 && strings.TrimSpace(strings.Join(rec, "")) != "" {
				out = append(out, ImportRow{Line: i + 1})
			}
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "title") {
			continue
		}
		out = append(out, ImportRow{
			Line:     i + 1,
			Title:    strings.TrimSpace(rec[0]),
			Language: strings.ToUpper(strings.TrimSpace(rec[1])),
			Text:     rec[2],
		})
	}
	return out
}

// ImportPublic publishes every valid row to the catalog as addedBy. Invalid
// rows and duplicate titles are reported and skipped.
func (s *TextService) ImportPublic(ctx context.Context, rows []ImportRow, addedBy string) ImportResult {
	var res ImportResult
	for _, row := range rows {
		if row.Title == "" {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: missing columns", row.Line))
			continue
		}
		units, err := s.prepare(ctx, row.Language, row.Title, row.Text)
		if err == nil {
			err = s.catalog.Publish(models.PublicText{
				Title:    row.Title,
				Language: row.Language,
				Units:    units,
				AddedBy:  addedBy,
			})
		}
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d (%s): %v", row.Line, row.Title, err))
			continue
		}
		res.Added++
	}

	s.logger.Info("catalog import finished",
		zap.Int("added", res.Added),
		zap.Int("skipped", res.Skipped))
	return res
}
