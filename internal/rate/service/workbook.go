package service

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	ratedomain "github.com/smallbiznis/weighbill/internal/rate/domain"
	"github.com/xuri/excelize/v2"
)

var workbookHeader = []string{"Product", "Rate", "Scope"}

// sheetRate remembers which 1-based sheet row a rate came from so later
// checks can point at the right row after blank rows were skipped.
type sheetRate struct {
	ratedomain.Rate
	row int
}

func ratesOf(parsed []sheetRate) []ratedomain.Rate {
	out := make([]ratedomain.Rate, len(parsed))
	for i, p := range parsed {
		out[i] = p.Rate
	}
	return out
}

// parseWorkbook reads Product | Rate | Scope rows from the first sheet.
// The first row is a header and blank rows are skipped.
func parseWorkbook(r io.Reader) ([]sheetRate, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ratedomain.ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ratedomain.ErrInvalidWorkbook)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ratedomain.ErrInvalidWorkbook, err)
	}

	var out []sheetRate
	for i, row := range rows {
		if i == 0 || blank(row) {
			continue
		}
		rate, err := parseRow(i+1, row)
		if err != nil {
			return nil, err
		}
		out = append(out, sheetRate{Rate: rate, row: i + 1})
	}
	return out, nil
}

func parseRow(rowNum int, row []string) (ratedomain.Rate, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	product := cell(0)
	if product == "" {
		return ratedomain.Rate{}, &ratedomain.RowError{Row: rowNum, Column: "Product", Err: ratedomain.ErrInvalidRow}
	}

	amount, err := decimal.NewFromString(cell(1))
	if err != nil || !amount.IsInteger() || amount.IsNegative() {
		return ratedomain.Rate{}, &ratedomain.RowError{Row: rowNum, Column: "Rate", Err: ratedomain.ErrInvalidRow}
	}

	scope := cell(2)
	if scope == "" {
		return ratedomain.Rate{}, &ratedomain.RowError{Row: rowNum, Column: "Scope", Err: ratedomain.ErrInvalidRow}
	}
	if strings.EqualFold(scope, ratedomain.ScopeAll) {
		scope = ratedomain.ScopeAll
	}

	return ratedomain.Rate{ProductID: product, Rate: amount.IntPart(), Scope: scope}, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func writeWorkbook(w io.Writer, rates []ratedomain.Rate) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &workbookHeader); err != nil {
		return err
	}
	for i, r := range rates {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.ProductID, r.Rate, r.Scope}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}
