package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"itemmatch/internal/domain"
)

// Required header columns of the catalog source.
const (
	ColumnItemCode        = "ItemCode"
	ColumnItemDescription = "ItemDescription"
)

// Load reads the catalog from an .xlsx/.xlsm workbook or a .csv file.
// The source must carry ItemCode and ItemDescription columns; a missing
// column is a configuration error. Missing cell values become empty strings.
// Sheet selects the worksheet for Excel sources; empty means the first sheet.
func Load(path, sheet string) ([]domain.CatalogItem, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readExcel(path, sheet)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (want .xlsx, .xlsm or .csv)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog %s has no header row", path)
	}
	codeCol, descCol := -1, -1
	for i, name := range rows[0] {
		switch strings.TrimSpace(name) {
		case ColumnItemCode:
			codeCol = i
		case ColumnItemDescription:
			descCol = i
		}
	}
	if codeCol < 0 {
		return nil, fmt.Errorf("catalog %s must contain a %q column", path, ColumnItemCode)
	}
	if descCol < 0 {
		return nil, fmt.Errorf("catalog %s must contain a %q column", path, ColumnItemDescription)
	}
	items := make([]domain.CatalogItem, 0, len(rows)-1)
	for i, row := range rows[1:] {
		items = append(items, domain.CatalogItem{
			Position:    i,
			Code:        cell(row, codeCol),
			Description: cell(row, descCol),
		})
	}
	return items, nil
}

// cell returns the value at idx, or "" when the row is shorter than the
// header (Excel rows drop trailing empty cells).
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog workbook: %w", err)
	}
	defer f.Close()
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse catalog csv: %w", err)
	}
	return rows, nil
}

// FreshnessToken derives a token that changes whenever the catalog source
// changes, from the source's modification time. When the source cannot be
// stat'ed the token is a per-call sentinel that never equals a stored one,
// forcing embedding regeneration.
func FreshnessToken(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return "unavailable-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return strconv.FormatInt(fi.ModTime().UnixNano(), 10)
}

// Descriptions projects the item descriptions in catalog order.
func Descriptions(items []domain.CatalogItem) []string {
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Description
	}
	return texts
}
