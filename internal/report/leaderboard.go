package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"timed-quiz-service/internal/domain"
)

// SheetName is the worksheet the leaderboard is written to.
const SheetName = "Leaderboard"

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteLeaderboard renders lb as an xlsx workbook into w.
func WriteLeaderboard(w io.Writer, lb domain.Leaderboard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	if err := sw.SetRow("A1", []interface{}{"Rank", "User", "Score", "Last Updated"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range lb.Entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{e.Rank, sanitize(e.UserID), e.Score, e.LastUpdated.UTC().Format(time.RFC3339)}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}

// sanitize keeps user names from being evaluated as formulas.
func sanitize(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
