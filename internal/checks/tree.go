package checks

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"forestqc/internal/classify"
	"forestqc/internal/growth"
)

// treeChecker runs the girth-census rule set.
type treeChecker struct {
	*common
}

func newTreeChecker(c *common) *treeChecker {
	return &treeChecker{common: c}
}

func (c *treeChecker) checkAll() []Record {
	var errs []Record
	errs = append(errs, c.checkInvalidDate()...)
	errs = append(errs, c.checkSpeciesNotInList()...)
	errs = append(errs, c.checkSynonym()...)
	errs = append(errs, c.checkTagDup()...)
	errs = append(errs, c.checkSpeciesMismatch()...)
	errs = append(errs, c.checkMeshXY()...)
	errs = append(errs, c.checkStemXY()...)
	errs = append(errs, c.checkBlank()...)
	errs = append(errs, c.checkInvalidValues()...)
	c.maskInvalidValues()
	c.normalizeDeadResiduals()
	errs = append(errs, c.checkMissing()...)
	errs = append(errs, c.checkValuesAfterDead()...)
	errs = append(errs, c.checkGrowthAnomaly()...)
	errs = append(errs, c.checkOversizedRecruits()...)
	errs = append(errs, c.checkMismarkedND()...)
	if c.opts.Thorough {
		errs = append(errs, c.checkLocalName()...)
	}
	return errs
}

// checkTagDup flags duplicated tag numbers.
func (c *treeChecker) checkTagDup() []Record {
	counts := map[string]int{}
	var order []string
	for _, tag := range c.recID {
		if counts[tag] == 0 {
			order = append(order, tag)
		}
		counts[tag]++
	}

	var errs []Record
	for _, tag := range order {
		if counts[tag] > 1 {
			errs = append(errs, c.record(tag, "", "duplicate tag number"))
		}
	}
	return errs
}

// checkSpeciesMismatch flags individuals recorded under more than one
// species name, and individuals with a blank or na individual number.
func (c *treeChecker) checkSpeciesMismatch() []Record {
	indv, err := c.d.Column("indv_no")
	if err != nil {
		return nil
	}
	spc, err := c.d.Column("spc_japan")
	if err != nil {
		return nil
	}

	norm := make([]string, len(indv))
	for i, v := range indv {
		if v == "" || v == "na" || v == "NA" {
			norm[i] = "na"
		} else {
			norm[i] = v
		}
	}

	rowsOf := map[string][]int{}
	var order []string
	for i, v := range norm {
		if _, seen := rowsOf[v]; !seen {
			order = append(order, v)
		}
		rowsOf[v] = append(rowsOf[v], i)
	}

	var errs []Record
	for _, id := range order {
		rows := rowsOf[id]
		if id == "na" {
			var tags []string
			for _, i := range rows {
				tags = append(tags, c.recID[i])
			}
			errs = append(errs, c.record(strings.Join(tags, "; "), "indv_no", "indv_no is blank or na"))
			continue
		}
		if len(rows) < 2 {
			continue
		}
		var species []string
		seen := map[string]bool{}
		for _, i := range rows {
			if !seen[spc[i]] {
				seen[spc[i]] = true
				species = append(species, spc[i])
			}
		}
		if len(species) > 1 {
			var tags []string
			for _, i := range rows {
				tags = append(tags, c.recID[i])
			}
			errs = append(errs, c.record(strings.Join(tags, "; "),
				strings.Join(species, "/"), "same individual recorded under different species"))
		}
	}
	return errs
}

var (
	meshColPat = regexp.MustCompile(`^mesh_[xy]cord$`)
	stemColPat = regexp.MustCompile(`^stem_[xy]cord$`)
)

// checkMeshXY flags mesh coordinates outside the plot's valid grid, and
// distinguishes blank from non-numeric cells.
func (c *treeChecker) checkMeshXY() []Record {
	if !c.tables.Mesh.HasPlot(c.d.PlotID) {
		return nil
	}
	block := c.d.SelectRegex(meshColPat, false)
	if len(block) == 0 || len(block[0]) != 2 {
		return nil
	}

	var errs []Record
	for i, xy := range block {
		target := fmt.Sprintf("mesh_xycord = [%s %s]", xy[0], xy[1])
		x, errX := strconv.Atoi(xy[0])
		y, errY := strconv.Atoi(xy[1])
		switch {
		case errX == nil && errY == nil:
			if !c.tables.Mesh.Contains(c.d.PlotID, x, y) {
				errs = append(errs, c.record(c.recID[i], target, "no such mesh coordinate combination in the plot"))
			}
		case isCoordMissing(xy):
			// Annotated as not determined; nothing to check.
		case xy[0] == "" || xy[1] == "":
			errs = append(errs, c.record(c.recID[i], target, "blank cell in mesh_xycord"))
		default:
			errs = append(errs, c.record(c.recID[i], target, "non-numeric mesh_xycord"))
		}
	}
	return errs
}

// checkStemXY flags blank or non-numeric stem coordinates. Unlike the
// mesh grid, stem positions are continuous, so only parseability is
// checked.
func (c *treeChecker) checkStemXY() []Record {
	block := c.d.SelectRegex(stemColPat, false)
	if len(block) == 0 || len(block[0]) != 2 {
		return nil
	}

	var errs []Record
	for i, xy := range block {
		_, errX := strconv.ParseFloat(xy[0], 64)
		_, errY := strconv.ParseFloat(xy[1], 64)
		if errX == nil && errY == nil {
			continue
		}
		target := fmt.Sprintf("stem_xycord = [%s %s]", xy[0], xy[1])
		switch {
		case isCoordMissing(xy):
		case xy[0] == "" || xy[1] == "":
			errs = append(errs, c.record(c.recID[i], target, "blank cell in stem_xycord"))
		default:
			errs = append(errs, c.record(c.recID[i], target, "non-numeric stem_xycord"))
		}
	}
	return errs
}

func isCoordMissing(xy []string) bool {
	for _, v := range xy {
		if v == "nd" || v == "na" || v == "NA" {
			return true
		}
	}
	return false
}

// normalizeDeadResiduals rewrites "d <girth>" runs in the working copy:
// the first cell becomes a bare "d", continuation cells become "na".
func (c *treeChecker) normalizeDeadResiduals() {
	for _, row := range c.meas {
		match := make([]bool, len(row))
		for j, cell := range row {
			match[j] = classify.Matches(cell, classify.DeadResidual)
		}
		for j := range row {
			if !match[j] {
				continue
			}
			if j > 0 && match[j-1] {
				row[j] = "na"
			} else {
				row[j] = "d"
			}
		}
	}
}

// checkMissing flags individuals recorded na right after a census where
// they were alive and above the girth threshold.
func (c *treeChecker) checkMissing() []Record {
	var errs []Record
	for i, row := range c.meas {
		for j := 1; j < len(row); j++ {
			if !classify.Matches(row[j], classify.NotApplicable) {
				continue
			}
			if classify.IsAlive(row[j-1], growth.AliveThreshold, c.except) {
				errs = append(errs, c.record(c.recID[i], c.measCols[j],
					"alive at the previous census; now missing. dead?"))
			}
		}
	}
	return errs
}

// checkValuesAfterDead flags a dead marker not followed by na or dd at
// the next census.
func (c *treeChecker) checkValuesAfterDead() []Record {
	var errs []Record
	for i, row := range c.meas {
		for j := 0; j < len(row)-1; j++ {
			if !classify.Matches(row[j], classify.DeadOnly) {
				continue
			}
			if !classify.Matches(row[j+1], classify.AfterDead) {
				errs = append(errs, c.record(c.recID[i], c.measCols[j],
					"value after a dead code is not na or dd"))
			}
		}
	}
	return errs
}

// censusYears resolves the census year of every measurement column.
func (c *treeChecker) censusYears() ([]int, error) {
	years := make([]int, len(c.measCols))
	for j, col := range c.measCols {
		y, err := growth.CensusYear(col)
		if err != nil {
			return nil, err
		}
		years[j] = y
	}
	return years, nil
}

// checkGrowthAnomaly flags girth increments outside the plausible band.
// An anomaly is skipped when the previous census cell carries a
// condition annotation (cd, vi, vn), since those already mark a known
// measurement caveat.
func (c *treeChecker) checkGrowthAnomaly() []Record {
	years, err := c.censusYears()
	if err != nil {
		return nil
	}

	var errs []Record
	for i, row := range c.meas {
		// Annotated cells (cd, vi, nd and the like) parse to NaN and never
		// enter the increment sequence themselves.
		vals := make([]float64, len(row))
		for j, cell := range row {
			vals[j] = classify.Num(cell, nil)
		}

		prev := -1
		for j := range vals {
			if math.IsNaN(vals[j]) {
				continue
			}
			if prev >= 0 {
				diff := vals[j] - vals[prev]
				yrs := float64(years[j] - years[prev])
				condBefore := classify.Matches(c.meas[i][j-1], classify.ConditionCode)
				if diff > yrs*growth.AnnualGrowth+growth.Tolerance && !condBefore {
					errs = append(errs, c.record(c.recID[i], c.measCols[j],
						"growth larger than the plausible bound; measurement error?"))
				}
				if diff < growth.MaxShrinkage && !condBefore {
					errs = append(errs, c.record(c.recID[i], c.measCols[j],
						"growth smaller than the plausible bound; measurement error?"))
				}
			}
			prev = j
		}
	}
	return errs
}

// checkOversizedRecruits flags new recruits whose first girth already
// exceeds the plausible growth-from-nothing bound, suggesting a missed
// measurement at the previous census.
func (c *treeChecker) checkOversizedRecruits() []Record {
	years, err := c.censusYears()
	if err != nil {
		return nil
	}

	var errs []Record
	for i, row := range c.meas {
		for j := 0; j < len(row)-1; j++ {
			if !classify.Matches(row[j], classify.NotApplicable) {
				continue
			}
			v := classify.Num(row[j+1], nil)
			if math.IsNaN(v) {
				continue
			}
			yrs := float64(years[j+1] - years[j])
			if v >= growth.AliveThreshold+yrs*growth.AnnualGrowth+growth.Tolerance {
				target := fmt.Sprintf("%s=%s; %s=%s",
					c.measCols[j], c.measOrig[i][j],
					c.measCols[j+1], c.measOrig[i][j+1])
				errs = append(errs, c.record(c.recID[i], target,
					"new recruit larger than the expected size; previous census possibly missed"))
			}
		}
	}
	return errs
}

// checkMismarkedND flags nd-annotated measurements whose increments to
// both neighbors fall inside the plausible band, suggesting the value
// was in fact a valid measurement.
func (c *treeChecker) checkMismarkedND() []Record {
	years, err := c.censusYears()
	if err != nil {
		return nil
	}

	var errs []Record
	for i, row := range c.meas {
		hasND := false
		ndAt := make([]bool, len(row))
		for j, cell := range row {
			if classify.Matches(cell, classify.ErrorResidual) {
				ndAt[j], hasND = true, true
			}
		}
		if !hasND {
			continue
		}

		// Numeric series with only the nd prefix stripped, so nd-residual
		// values stay in the sequence while other annotations drop out.
		var notnull []int
		vals := make([]float64, len(row))
		for j, cell := range row {
			vals[j] = classify.Num(cell, classify.ErrorCode)
			if !math.IsNaN(vals[j]) {
				notnull = append(notnull, j)
			}
		}
		if len(notnull) < 2 {
			continue
		}

		inRange := make([]bool, len(notnull)-1)
		for k := 0; k < len(notnull)-1; k++ {
			diff := vals[notnull[k+1]] - vals[notnull[k]]
			yrs := float64(years[notnull[k+1]] - years[notnull[k]])
			inRange[k] = diff <= yrs*growth.AnnualGrowth+growth.Tolerance && diff >= growth.MaxShrinkage
		}

		for k := 1; k < len(notnull); k++ {
			j := notnull[k]
			if !ndAt[j] {
				continue
			}
			// nd at the last census or the last interval is unverifiable.
			if j >= len(c.measCols)-1 || k-1 >= len(inRange)-1 {
				continue
			}
			if inRange[k-1] && inRange[k] {
				errs = append(errs, c.record(c.recID[i], c.measCols[j],
					"possibly mis-marked nd; neighboring measurements are within growth bounds"))
			}
		}
	}
	return errs
}
