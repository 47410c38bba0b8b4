package data

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads songs from columns A to F of sheet, the first row being a header.
// An empty sheet name means the first sheet of the workbook. Lines are sent to out
// with the same contract as Parse.
func ReadXLSX(ctx context.Context, path, sheet string, out chan<- Line) error {
	defer close(out)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("get rows of %q: %w", sheet, err)
	}

	invalidLines := make([]int, 0, 10) //nolint:mnd // 10 is the expected capacity
	for i, row := range rows {
		if i == 0 || isBlank(row) {
			continue
		}

		fields := make([]string, fieldsCount)
		copy(fields, row)

		line, err := parseFields(fields)
		if err != nil {
			invalidLines = append(invalidLines, i+1)
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case out <- line: // continue
		}
	}

	if len(invalidLines) > 0 {
		return &ParsingError{InvalidLines: invalidLines}
	}

	return nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
