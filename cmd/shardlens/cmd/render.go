package cmd

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// maxCellWidth keeps one oversized value from blowing up the whole table.
const maxCellWidth = 40

// printTable renders columns and rows with padded, truncated cells.
func printTable(w io.Writer, columns []string, rows [][]string) {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = cellWidth(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if cw := cellWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	printRow(w, columns, widths)
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		for j := 0; j < width; j++ {
			fmt.Fprint(w, "-")
		}
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, cells []string, widths []int) {
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		cell := ""
		if i < len(cells) {
			cell = truncate(cells[i])
		}
		fmt.Fprintf(w, "%-*s", width, cell)
	}
	fmt.Fprintln(w)
}

func cellWidth(s string) int {
	if n := utf8.RuneCountInString(s); n <= maxCellWidth {
		return n
	}
	return maxCellWidth
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxCellWidth {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxCellWidth-1]) + "…"
}
