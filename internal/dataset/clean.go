package dataset

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	datetimePat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\s\d{2}:\d{2}:\d{2}`)
	ctrlCharPat = regexp.MustCompile("\r\n|\n|\r|\t|\x0b|\x0c")
)

// CleanCell normalizes a single cell value for export: trims surrounding
// whitespace, applies Unicode NFKC normalization, rounds over-precise
// floating-point strings, rewrites datetime strings to YYYYMMDD and strips
// embedded line breaks, tabs and page breaks. Idempotent.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = norm.NFKC.String(s)
	s = cleanFloat(s)
	s = datetimeToYYYYMMDD(s)
	s = ctrlCharPat.ReplaceAllString(s, "")
	return s
}

// CleanMatrix applies CleanCell to every cell of a matrix, returning a new
// matrix.
func CleanMatrix(data [][]string) [][]string {
	out := make([][]string, len(data))
	for i, row := range data {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = CleanCell(cell)
		}
	}
	return out
}

// cleanFloat rounds a floating-point string to single precision, so that
// spreadsheet artifacts like 15.699999999999999 come out as 15.7. Integer
// strings and non-numeric strings pass through unchanged.
func cleanFloat(s string) string {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return s
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	return strconv.FormatFloat(f, 'g', -1, 32)
}

// datetimeToYYYYMMDD rewrites a "2006-01-02 15:04:05" prefix as 20060102.
func datetimeToYYYYMMDD(s string) string {
	m := datetimePat.FindString(s)
	if m == "" {
		return s
	}
	t, err := time.Parse("2006-01-02 15:04:05", m)
	if err != nil {
		return s
	}
	return t.Format("20060102")
}
