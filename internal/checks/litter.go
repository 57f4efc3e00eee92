package checks

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"forestqc/internal/classify"
	"forestqc/internal/outlier"
)

// overwinterPlots are permitted installation periods longer than 45 days
// when the period spans a year boundary (traps left out over winter).
var overwinterPlots = map[string]bool{
	"UR-BC1": true, "AS-DB1": true, "AS-DB2": true, "TM-DB1": true,
	"OY-DB1": true, "KY-DB1": true, "OT-EC1": true, "OG-DB1": true,
}

// litterChecker runs the litterfall rule set.
type litterChecker struct {
	*common

	sDate1  []string
	sDate2  []string
	trapID  []string
	periods []string // s_date1-s_date2 per row
}

func newLitterChecker(c *common) (*litterChecker, error) {
	lc := &litterChecker{common: c}
	var err error
	if lc.sDate1, err = c.d.Column("s_date1"); err != nil {
		return nil, err
	}
	if lc.sDate2, err = c.d.Column("s_date2"); err != nil {
		return nil, err
	}
	if lc.trapID, err = c.d.Column("trap_id"); err != nil {
		return nil, err
	}
	lc.periods = make([]string, len(lc.sDate1))
	for i := range lc.sDate1 {
		lc.periods[i] = lc.sDate1[i] + "-" + lc.sDate2[i]
	}
	return lc, nil
}

func (c *litterChecker) checkAll() []Record {
	// Every period check parses the date columns, so invalid dates end
	// the run here and are reported on their own.
	if errs := c.checkInvalidDate(); len(errs) > 0 {
		return errs
	}

	var errs []Record
	errs = append(errs, c.checkTrapCombinations()...)
	errs = append(errs, c.checkPeriodLength()...)
	errs = append(errs, c.checkPeriodConsistency()...)
	errs = append(errs, c.checkCollectionGaps()...)
	errs = append(errs, c.checkBlank()...)
	errs = append(errs, c.checkInvalidValues()...)
	c.maskInvalidValues()
	errs = append(errs, c.checkPositive()...)
	errs = append(errs, c.checkWeightOutliers()...)
	return errs
}

// uniquePeriods returns the distinct installation periods, sorted.
func (c *litterChecker) uniquePeriods() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range c.periods {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// rowsOfPeriod returns the row indices sharing an installation period.
func (c *litterChecker) rowsOfPeriod(period string) []int {
	var rows []int
	for i, p := range c.periods {
		if p == period {
			rows = append(rows, i)
		}
	}
	return rows
}

func periodStart(period string) string {
	return strings.SplitN(period, "-", 2)[0]
}

func periodEnd(period string) string {
	parts := strings.SplitN(period, "-", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse("20060102", s)
	return t, err == nil
}

// checkTrapCombinations flags duplicated and missing traps within each
// installation period.
func (c *litterChecker) checkTrapCombinations() []Record {
	trapList := c.tables.Traps.Traps(c.d.PlotID)

	var errs []Record
	for _, period := range c.uniquePeriods() {
		rows := c.rowsOfPeriod(period)
		d1 := periodStart(period)

		counts := map[string]int{}
		for _, i := range rows {
			counts[c.trapID[i]]++
		}
		var dups []string
		for trap, n := range counts {
			if n > 1 {
				dups = append(dups, trap)
			}
		}
		sort.Strings(dups)
		if len(dups) > 0 {
			kind := fmt.Sprintf("duplicate traps within the same installation period (%s)",
				strings.Join(dups, "; "))
			errs = append(errs, c.record(d1, "", kind))
		}

		if len(trapList) > 0 && len(rows) < len(trapList) {
			var missing []string
			for _, trap := range trapList {
				if counts[trap] == 0 {
					missing = append(missing, trap)
				}
			}
			kind := fmt.Sprintf("missing traps within the same installation period (%s)",
				strings.Join(missing, ";"))
			errs = append(errs, c.record(d1, "", kind))
		}
	}
	return errs
}

// checkPeriodLength flags installation periods longer than 45 days or
// shorter than 11 days. Over-winter plots may exceed 45 days when the
// period crosses a year boundary.
func (c *litterChecker) checkPeriodLength() []Record {
	var errs []Record
	for _, period := range c.uniquePeriods() {
		d1, ok1 := parseDate(periodStart(period))
		d2, ok2 := parseDate(periodEnd(period))
		if !ok1 || !ok2 {
			continue
		}
		days := int(d2.Sub(d1).Hours() / 24)

		if days > 45 {
			withinYear := d1.Year() == d2.Year()
			if !overwinterPlots[c.d.PlotID] || withinYear {
				errs = append(errs, c.record(periodStart(period), "",
					"installation period longer than 45 days"))
			}
		}
		if days < 11 {
			errs = append(errs, c.record(periodStart(period), "",
				"installation period of 10 days or less"))
		}
	}
	return errs
}

// checkPeriodConsistency flags installation dates whose collection date
// differs between traps.
func (c *litterChecker) checkPeriodConsistency() []Record {
	byStart := map[string]int{}
	var order []string
	for _, period := range c.uniquePeriods() {
		d1 := periodStart(period)
		if byStart[d1] == 0 {
			order = append(order, d1)
		}
		byStart[d1]++
	}
	sort.Strings(order)

	var errs []Record
	for _, d1 := range order {
		if byStart[d1] > 1 {
			errs = append(errs, c.record(d1, "", "installation period varies across traps"))
		}
	}
	return errs
}

// checkCollectionGaps flags interruptions between one collection and the
// next installation of the same trap within a year.
func (c *litterChecker) checkCollectionGaps() []Record {
	rowsOf := map[string][]int{}
	var order []string
	for i, trap := range c.trapID {
		if _, seen := rowsOf[trap]; !seen {
			order = append(order, trap)
		}
		rowsOf[trap] = append(rowsOf[trap], i)
	}

	var errs []Record
	for _, trap := range order {
		rows := rowsOf[trap]
		for k := 0; k < len(rows)-1; k++ {
			prevEnd, ok1 := parseDate(c.sDate2[rows[k]])
			nextStart, ok2 := parseDate(c.sDate1[rows[k+1]])
			if !ok1 || !ok2 {
				continue
			}
			days := int(nextStart.Sub(prevEnd).Hours() / 24)
			if days != 0 && days < 45 && prevEnd.Year() == nextStart.Year() {
				kind := fmt.Sprintf("%d-day gap since the previous collection", days)
				errs = append(errs, c.record(c.sDate1[rows[k+1]], trap, kind))
			}
		}
	}
	return errs
}

// checkWeightOutliers runs the Smirnov-Grubbs test on log-transformed
// dry weights per organ column and installation period. Zeros and
// negative values are excluded so zero-heavy periods do not turn every
// real weight into an outlier.
func (c *litterChecker) checkWeightOutliers() []Record {
	var wdryIdx []int
	for j, col := range c.measCols {
		if strings.HasPrefix(col, "wdry_") {
			wdryIdx = append(wdryIdx, j)
		}
	}
	if len(wdryIdx) == 0 {
		return nil
	}

	cleaned := make([][]float64, len(c.meas))
	for i, row := range c.meas {
		cleaned[i] = make([]float64, len(wdryIdx))
		for k, j := range wdryIdx {
			v := classify.Num(row[j], classify.WeightExcept)
			if row[j] == "0" || v <= 0 {
				v = math.NaN()
			}
			cleaned[i][k] = v
		}
	}

	var errs []Record
	for _, period := range c.uniquePeriods() {
		rows := c.rowsOfPeriod(period)
		d1 := periodStart(period)

		for k, j := range wdryIdx {
			sample := make([]float64, len(rows))
			usable := 0
			for n, i := range rows {
				v := cleaned[i][k]
				if !math.IsNaN(v) {
					usable++
					sample[n] = math.Log(v)
				} else {
					sample[n] = math.NaN()
				}
			}
			if usable < 5 {
				continue
			}

			kind := fmt.Sprintf("%s may be an outlier", c.measCols[j])
			for n, flagged := range outlier.Grubbs(sample, c.opts.Alpha) {
				if flagged {
					errs = append(errs, c.record(d1, c.trapID[rows[n]], kind))
				}
			}
		}
	}
	return errs
}
