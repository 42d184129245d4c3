package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// ParseWorkbook reads cards from the first sheet of an .xlsx file: column A
// is the front and column B the back. A leading "front"/"back" header row is
// skipped.
func ParseWorkbook(path string) ([]domain.Card, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows of sheet %s: %w", sheets[0], err)
	}
	return cardsFromRows(rows), nil
}

// ParseCSVFile reads cards from a two-column CSV file laid out like a workbook.
func ParseCSVFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseCSV(file)
}

// ParseCSV reads front,back records.
func ParseCSV(r io.Reader) ([]domain.Card, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return cardsFromRows(rows), nil
}

func cardsFromRows(rows [][]string) []domain.Card {
	var cards []domain.Card
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		front, back := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if i == 0 && strings.EqualFold(front, "front") && strings.EqualFold(back, "back") {
			continue
		}
		if front == "" || back == "" {
			continue
		}
		cards = append(cards, domain.Card{Front: front, Back: back})
	}
	return cards
}
