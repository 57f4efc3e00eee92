package refdata

import (
	"fmt"

	"forestqc/internal/files"
)

// ExceptionKey identifies one previously reviewed and accepted error.
// The four fields mirror the error-record fields used for reporting.
type ExceptionKey struct {
	PlotID string
	Key    string
	Target string
	Kind   string
}

// ExceptionList is the curated set of accepted errors to suppress from
// future reports.
type ExceptionList struct {
	set map[ExceptionKey]struct{}
}

// LoadExceptionList reads the exception list from a CSV or XLSX file.
// The header must contain plot_id, rec_id1, rec_id2 and err_type
// columns; any other columns (such as the free-text response column)
// are ignored.
func LoadExceptionList(path string) (*ExceptionList, error) {
	matrix, err := files.ReadMatrix(path, "")
	if err != nil {
		return nil, err
	}
	if len(matrix) < 1 {
		return nil, fmt.Errorf("exception list %s has no header row", path)
	}

	idx := map[string]int{}
	for j, name := range matrix[0] {
		idx[name] = j
	}
	for _, required := range []string{"plot_id", "rec_id1", "rec_id2", "err_type"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("exception list %s lacks column %q", path, required)
		}
	}

	cell := func(row []string, name string) string {
		j := idx[name]
		if j >= len(row) {
			return ""
		}
		return row[j]
	}

	l := &ExceptionList{set: make(map[ExceptionKey]struct{}, len(matrix)-1)}
	for _, row := range matrix[1:] {
		l.set[ExceptionKey{
			PlotID: cell(row, "plot_id"),
			Key:    cell(row, "rec_id1"),
			Target: cell(row, "rec_id2"),
			Kind:   cell(row, "err_type"),
		}] = struct{}{}
	}
	return l, nil
}

// Contains reports whether an error is in the accepted set.
func (l *ExceptionList) Contains(k ExceptionKey) bool {
	if l == nil {
		return false
	}
	_, ok := l.set[k]
	return ok
}

// Len returns the number of accepted errors.
func (l *ExceptionList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.set)
}
