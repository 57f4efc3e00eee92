// Package growth derives per-individual longitudinal state from repeated
// girth measurements.
//
// For every tree record, the ordered gbh census columns are folded into
// three parallel code series: an error code (nd / condition annotations),
// a dead code that latches once an individual dies, and a recruit code
// marking the census at which an individual first crossed the measurement
// threshold. The annotated girth values are replaced by a cleaned numeric
// series and the code series are appended as new column groups.
package growth

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"forestqc/internal/classify"
	"forestqc/internal/dataset"
)

// Field-protocol calibration constants. These reproduce the survey
// protocol of the monitoring sites and are not user-configurable.
const (
	// RecruitCutoff is the girth at which an individual enters the census.
	RecruitCutoff = 15.7
	// Tolerance is the measurement tolerance on a girth reading.
	Tolerance = 3.8
	// AnnualGrowth is the expected girth increment per year.
	AnnualGrowth = 2.5
	// MaxShrinkage is the largest plausible negative girth increment.
	MaxShrinkage = -3.1
	// AliveThreshold is the girth above which an individual counts as
	// alive for the survival checks.
	AliveThreshold = 15
)

// GbhColPattern matches a census measurement column such as "gbh05".
var GbhColPattern = regexp.MustCompile(`^gbh([0-9]{2})$`)

// CensusYear converts a two-digit census column year to a full year,
// pivoting at 70 (so gbh98 is 1998 and gbh05 is 2005).
func CensusYear(col string) (int, error) {
	m := GbhColPattern.FindStringSubmatch(col)
	if m == nil {
		return 0, fmt.Errorf("not a census column: %s", col)
	}
	yy, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, err
	}
	if yy >= 70 {
		return 1900 + yy, nil
	}
	return 2000 + yy, nil
}

// States holds the derived code series of a block of tree records,
// aligned with the census columns.
type States struct {
	// Error is 1 for nd-annotated cells, 2 for cd/vi/vn-annotated cells.
	Error [][]int
	// Dead is 1 at the census where death was recorded, 2 afterwards and
	// at dd cells. Monotonically non-decreasing along a row once set.
	Dead [][]int
	// Recruit is 1 at the census where the individual entered, -1 before
	// it, 0 otherwise. At most one 1 per row.
	Recruit [][]int
	// Values is the cleaned numeric girth series, NaN where missing.
	Values [][]float64
}

// AddStateColumns returns a copy of a tree data with the girth columns
// cleaned to bare numbers and with error, dl (dead) and rec (recruit)
// column groups appended, one column per census year.
func AddStateColumns(d *dataset.MonitoringData) (*dataset.MonitoringData, error) {
	d = d.Clone()

	withHeader := d.SelectRegex(GbhColPattern, true)
	if len(withHeader) == 0 || len(withHeader[0]) == 0 {
		return nil, fmt.Errorf("data has no gbh census columns")
	}
	colnames := withHeader[0]
	values := withHeader[1:]

	years := make([]int, len(colnames))
	for j, c := range colnames {
		y, err := CensusYear(c)
		if err != nil {
			return nil, err
		}
		years[j] = y
	}

	st := Classify(values, years)

	// Replace the annotated girth strings with the cleaned numbers.
	for j, c := range colnames {
		col := make([]string, len(values))
		for i := range values {
			col[i] = formatValue(st.Values[i][j])
		}
		if err := d.SetColumn(c, col); err != nil {
			return nil, err
		}
	}

	for _, group := range []struct {
		prefix string
		codes  [][]int
	}{
		{"error", st.Error},
		{"dl", st.Dead},
		{"rec", st.Recruit},
	} {
		header := make([]string, len(colnames))
		cols := make([][]string, len(colnames))
		for j, c := range colnames {
			header[j] = strings.Replace(c, "gbh", group.prefix, 1)
			col := make([]string, len(values))
			for i := range values {
				col[i] = strconv.Itoa(group.codes[i][j])
			}
			cols[j] = col
		}
		if err := d.AppendColumns(header, cols); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Classify runs the growth-series state machine over a block of rows of
// girth cells ordered by census year.
func Classify(values [][]string, years []int) *States {
	nrow := len(values)
	ncol := len(years)

	yearsDiff := make([]int, 0, ncol-1)
	for j := 1; j < ncol; j++ {
		yearsDiff = append(yearsDiff, years[j]-years[j-1])
	}

	st := &States{
		Error:   newIntMatrix(nrow, ncol),
		Dead:    newIntMatrix(nrow, ncol),
		Recruit: newIntMatrix(nrow, ncol),
		Values:  make([][]float64, nrow),
	}

	cells := make([][]string, nrow)
	for i, row := range values {
		cells[i] = append([]string(nil), row...)
		st.Values[i] = make([]float64, ncol)
		for j, cell := range row {
			st.Values[i][j] = classify.Num(cell, classify.GrowthExcept)
		}
	}

	for i := 0; i < nrow; i++ {
		classifyErrors(cells[i], st.Error[i])
		normalizeDeadResiduals(cells[i])
		classifyDead(cells[i], st.Dead[i])
	}
	classifyRecruits(st, yearsDiff)

	return st
}

func classifyErrors(cells []string, codes []int) {
	for j, cell := range cells {
		switch {
		case classify.Matches(cell, classify.ErrorCode):
			codes[j] = 1
		case classify.Matches(cell, classify.ConditionCode):
			codes[j] = 2
		}
	}
}

// normalizeDeadResiduals rewrites "d <girth>" cells in place: the first
// cell of a dead-residual run becomes a bare "d", the continuation cells
// become "na" so the death is not counted twice.
func normalizeDeadResiduals(cells []string) {
	match := make([]bool, len(cells))
	for j, cell := range cells {
		match[j] = classify.Matches(cell, classify.DeadResidual)
	}
	for j := range cells {
		if !match[j] {
			continue
		}
		if j > 0 && match[j-1] {
			cells[j] = "na"
		} else {
			cells[j] = "d"
		}
	}
}

func classifyDead(cells []string, codes []int) {
	for j, cell := range cells {
		switch {
		case classify.Matches(cell, classify.ConfirmedDead):
			codes[j] = 2
		case classify.Matches(cell, classify.BareDead):
			codes[j] = 1
		}
	}
	// A dead individual stays dead: latch every census after the first
	// death record.
	fillAfter(codes, 2)
}

// fillAfter overwrites every element after the first non-zero element
// with fill.
func fillAfter(codes []int, fill int) {
	for j, v := range codes {
		if v != 0 {
			for k := j + 1; k < len(codes); k++ {
				codes[k] = fill
			}
			return
		}
	}
}

func classifyRecruits(st *States, yearsDiff []int) {
	for i := range st.Values {
		vals := st.Values[i]
		errs := st.Error[i]
		dead := st.Dead[i]
		recr := st.Recruit[i]
		ncol := len(vals)

		below := func(j int) bool {
			return !math.IsNaN(vals[j]) && vals[j] < RecruitCutoff
		}
		absent := func(j int) bool {
			return math.IsNaN(vals[j]) || below(j)
		}

		// Initial census: starting below the cutoff, missing, or already
		// dead means not yet recruited, unless the cell is an error.
		if (below(0) || math.IsNaN(vals[0]) || dead[0] == 1) && errs[0] == 0 {
			recr[0] = -1
		}

		for j := 0; j < ncol-1; j++ {
			if absent(j) == absent(j+1) {
				continue
			}
			if math.IsNaN(vals[j+1]) {
				continue
			}
			if !math.IsNaN(vals[j]) && vals[j] > vals[j+1] {
				continue
			}
			if containsCode(recr[:j+1], 1) {
				continue
			}

			switch {
			case errs[j] == 0 && errs[j+1] == 0:
				plausible := vals[j+1] < RecruitCutoff+Tolerance+float64(yearsDiff[j])*AnnualGrowth
				switch {
				case plausible, !math.IsNaN(vals[j]):
					recr[j+1] = 1
					fillCode(recr[:j+1], -1)
				case containsCode(recr[:j+1], -1):
					fillCode(recr[:j], -1)
				}
			case errs[j] == 1:
				if containsCode(recr[:j+1], -1) {
					fillCode(recr[:firstCode(errs[:j+1], 1)], -1)
				}
			}
		}
	}
}

func containsCode(codes []int, v int) bool {
	for _, c := range codes {
		if c == v {
			return true
		}
	}
	return false
}

func fillCode(codes []int, v int) {
	for j := range codes {
		codes[j] = v
	}
}

func firstCode(codes []int, v int) int {
	for j, c := range codes {
		if c == v {
			return j
		}
	}
	return len(codes)
}

func newIntMatrix(nrow, ncol int) [][]int {
	m := make([][]int, nrow)
	for i := range m {
		m[i] = make([]int, ncol)
	}
	return m
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return dataset.Missing
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
