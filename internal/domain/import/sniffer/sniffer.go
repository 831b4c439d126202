// Package sniffer locates the header row of marketplace spreadsheet exports.
// Exports carry a banner of title and filter rows above the real header, and
// the number of banner rows changes between report versions.
package sniffer

import (
	"strings"
)

// HeaderScanLimit is the last 0-based row index inspected for a header.
const HeaderScanLimit = 50

// Key columns that identify each ledger's header row.
var (
	KeyColumnsSales   = []string{"n.º de venda", "data da venda", "sku"}
	KeyColumnsReturns = []string{"n.º de venda", "estado", "canal"}
)

// LocateHeader returns the 0-based index of the first row, among rows
// 0..HeaderScanLimit, where every required substring is contained
// (case-insensitively) in some cell. Different substrings may match different
// cells. When no row qualifies it returns 0.
func LocateHeader(grid [][]string, required []string) int {
	idx, _ := FindHeader(grid, required)
	return idx
}

// FindHeader is LocateHeader that also reports whether a match was found.
func FindHeader(grid [][]string, required []string) (int, bool) {
	needles := make([]string, 0, len(required))
	for _, r := range required {
		needles = append(needles, strings.ToLower(r))
	}

	last := len(grid) - 1
	if last > HeaderScanLimit {
		last = HeaderScanLimit
	}

	for i := 0; i <= last; i++ {
		if rowHasAll(grid[i], needles) {
			return i, true
		}
	}
	return 0, false
}

func rowHasAll(row []string, needles []string) bool {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.ToLower(c)
	}

	for _, n := range needles {
		found := false
		for _, c := range cells {
			if strings.Contains(c, n) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CleanHeaders trims header cells; blank cells keep their position.
func CleanHeaders(row []string) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return headers
}
