package google

import (
	"fmt"
	"strings"

	"videojobs/internal/core"
)

var header = []any{"Fecha", "Tipo de video", "Duración (min)", "Pago (ARS)"}

// jobRow renders one record as date, type, duration, price. Missing dates
// are written as empty cells.
func jobRow(rec core.JobRecord) []any {
	return []any{rec.Date.String(), rec.VideoType, rec.DurationMinutes, rec.Price.Pesos}
}

func sheetRows(log core.JobLog) [][]any {
	rows := make([][]any, 0, len(log)+1)
	rows = append(rows, header)
	for _, rec := range log {
		rows = append(rows, jobRow(rec))
	}
	return rows
}

// sheetRange builds an A1 range, quoting sheet names that need it.
func sheetRange(sheet, cells string) string {
	if strings.ContainsAny(sheet, " '!-") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return fmt.Sprintf("%s!%s", sheet, cells)
}
