package dataset

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Metadata keys recognized in comment rows. The value of a key sits two
// cells to the right of the key cell.
var metadataKeys = []string{
	"DATA CREATED", "DATA CREATER", "DATA TITLE", "SITE NAME", "PLOT NAME",
	"PLOT ID", "PLOT SIZE", "NO. OF TRAPS", "TRAP SIZE",
}

var plotIDPat = regexp.MustCompile(`[A-Z]{2}-(?:AT|EC|BC|EB|DB)[0-9]`)

// SplitComments separates comment rows (first cell starting with
// commentChr) from the data rows. An empty commentChr disables splitting.
func SplitComments(data [][]string, commentChr string) (rows, comments [][]string) {
	if commentChr == "" {
		return data, nil
	}
	for _, row := range data {
		if len(row) > 0 && strings.HasPrefix(row[0], commentChr) {
			comments = append(comments, row)
		} else {
			rows = append(rows, row)
		}
	}
	comments = MatStrip(comments, "")
	return rows, comments
}

// JoinComments stacks the comment rows above the data rows, padding the
// narrower block with empty cells so the result stays rectangular.
func JoinComments(data, comments [][]string) [][]string {
	if len(comments) == 0 {
		return data
	}
	dataW := matWidth(data)
	comW := matWidth(comments)
	width := dataW
	if comW > width {
		width = comW
	}

	out := make([][]string, 0, len(comments)+len(data))
	for _, row := range comments {
		out = append(out, padRow(row, width))
	}
	for _, row := range data {
		out = append(out, padRow(row, width))
	}
	return out
}

func matWidth(m [][]string) int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return append([]string(nil), row...)
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// MatStrip removes rows and columns from the edges of a matrix when all
// their cells equal strip.
func MatStrip(mat [][]string, strip string) [][]string {
	if len(mat) == 0 {
		return mat
	}

	isStrip := func(s string) bool { return s == strip }

	rowAll := func(i int) bool {
		for _, c := range mat[i] {
			if !isStrip(c) {
				return false
			}
		}
		return true
	}
	colAll := func(j int) bool {
		for _, row := range mat {
			if j < len(row) && !isStrip(row[j]) {
				return false
			}
		}
		return true
	}

	top, bottom := 0, len(mat)
	for top < bottom && rowAll(top) {
		top++
	}
	for bottom > top && rowAll(bottom-1) {
		bottom--
	}
	if top == bottom {
		return nil
	}

	width := len(mat[0])
	left, right := 0, width
	for left < right && colAll(left) {
		left++
	}
	for right > left && colAll(right-1) {
		right--
	}

	out := make([][]string, 0, bottom-top)
	for _, row := range mat[top:bottom] {
		if right > len(row) {
			row = padRow(row, right)
		}
		out = append(out, append([]string(nil), row[left:right]...))
	}
	return out
}

// MetadataFromComments extracts the known metadata keys from comment rows.
func MetadataFromComments(comments [][]string) map[string]string {
	metadata := map[string]string{}
	for _, key := range metadataKeys {
	rows:
		for _, row := range comments {
			for j, cell := range row {
				if cell == key && j+2 < len(row) {
					metadata[key] = row[j+2]
					break rows
				}
			}
		}
	}
	return metadata
}

// PlotIDFromFilename extracts a plot identifier such as "UR-BC1" from a
// file name, or returns an empty string.
func PlotIDFromFilename(path string) string {
	return plotIDPat.FindString(filepath.Base(path))
}
