package checks

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"forestqc/internal/classify"
	"forestqc/internal/dataset"
	"forestqc/internal/refdata"
)

// Column selection patterns shared by the checkers.
var (
	treeMeasPat   = regexp.MustCompile(`^gbh[0-9]{2}$`)
	litterMeasPat = regexp.MustCompile(`^w_|^wdry_`)
	seedMeasPat   = regexp.MustCompile(`^number|^wdry`)
	datePat       = regexp.MustCompile(`^s_date`)
	speciesPat    = regexp.MustCompile(`^spc$|^spc_japan$`)
	dateMaskPat   = regexp.MustCompile(`^NA$|^na$|^nd`)
)

// Options tunes a check run.
type Options struct {
	// Thorough additionally reports non-standard local species names on
	// tree data. Seed data always reports them.
	Thorough bool
	// Alpha is the significance level of the weight outlier test.
	// Zero selects the default.
	Alpha float64
}

// common holds the working state shared by the tree, litter and seed
// checkers: the measurement block as a mutable copy, the per-row record
// keys and the annotation vocabulary of the data type.
type common struct {
	d      *dataset.MonitoringData
	tables *refdata.Tables
	opts   Options

	measCols []string
	meas     [][]string // mutable working copy, row major
	measOrig [][]string
	recID    []string
	except   *regexp.Regexp
	isTree   bool
}

func newCommon(d *dataset.MonitoringData, tables *refdata.Tables, opts Options) (*common, error) {
	c := &common{d: d, tables: tables, opts: opts}

	var measPat *regexp.Regexp
	var recIDCol string
	switch d.DataType {
	case dataset.TypeTree:
		measPat, recIDCol = treeMeasPat, "tag_no"
		c.except, c.isTree = classify.TreeExcept, true
	case dataset.TypeLitter:
		measPat, recIDCol = litterMeasPat, "s_date1"
		c.except = classify.WeightExcept
	case dataset.TypeSeed:
		measPat, recIDCol = seedMeasPat, "s_date1"
		c.except = classify.WeightExcept
	default:
		return nil, fmt.Errorf("data type %q has no check rules", d.DataType)
	}

	block := d.SelectRegex(measPat, true)
	if len(block) == 0 {
		return nil, fmt.Errorf("data has no measurement columns")
	}
	c.measCols = block[0]
	c.measOrig = block[1:]
	c.meas = make([][]string, len(c.measOrig))
	for i, row := range c.measOrig {
		c.meas[i] = append([]string(nil), row...)
	}

	recID, err := d.Column(recIDCol)
	if err != nil {
		return nil, err
	}
	c.recID = recID
	return c, nil
}

func (c *common) record(key, target, kind string) Record {
	return Record{PlotID: c.d.PlotID, Key: key, Target: target, Kind: kind}
}

// target of a measurement-cell error: the column name for tree data, the
// trap id for litter and seed data.
func (c *common) cellTarget(i, j int) string {
	if c.isTree {
		return c.measCols[j]
	}
	trap, err := c.d.Column("trap_id")
	if err != nil || i >= len(trap) {
		return ""
	}
	return trap[i]
}

// checkInvalidDate flags survey-date cells that are neither a YYYYMMDD
// date nor a recognized missing-value code.
func (c *common) checkInvalidDate() []Record {
	block := c.d.SelectRegex(datePat, true)
	if len(block) == 0 {
		return nil
	}
	cols, rows := block[0], block[1:]

	var errs []Record
	for i, row := range rows {
		for j, cell := range row {
			if dateMaskPat.MatchString(cell) {
				continue
			}
			if !isDate(cell) {
				kind := fmt.Sprintf("invalid date in %s (%s)", cols[j], cell)
				errs = append(errs, c.record(c.recID[i], "", kind))
			}
		}
	}
	return errs
}

func isDate(s string) bool {
	_, err := time.Parse("20060102", s)
	return err == nil
}

// observedSpecies returns the distinct non-empty values of the species
// columns, sorted.
func (c *common) observedSpecies() []string {
	block := c.d.SelectRegex(speciesPat, false)
	seen := map[string]bool{}
	var names []string
	for _, row := range block {
		for _, cell := range row {
			if cell == "" || seen[cell] {
				continue
			}
			seen[cell] = true
			names = append(names, cell)
		}
	}
	sort.Strings(names)
	return names
}

// tagsOfSpecies joins the tag numbers of every tree row recorded under a
// species name.
func (c *common) tagsOfSpecies(name string) string {
	spc, err := c.d.Column("spc_japan")
	if err != nil {
		return ""
	}
	tags, err := c.d.Column("tag_no")
	if err != nil {
		return ""
	}
	var out []string
	for i, s := range spc {
		if s == name {
			out = append(out, tags[i])
		}
	}
	return strings.Join(out, "; ")
}

// checkSpeciesNotInList flags species names absent from the reference
// list.
func (c *common) checkSpeciesNotInList() []Record {
	list := c.tables.SpeciesFor(c.isTree)
	if list.Empty() {
		return nil
	}

	var errs []Record
	for _, name := range c.observedSpecies() {
		if list.Contains(name) {
			continue
		}
		key := ""
		if c.isTree {
			key = c.tagsOfSpecies(name)
		}
		kind := fmt.Sprintf("unusual species name or standard name not in the reference list (%s)", name)
		errs = append(errs, c.record(key, "", kind))
	}
	return errs
}

// checkSynonym flags one species recorded under two or more accepted
// names.
func (c *common) checkSynonym() []Record {
	list := c.tables.SpeciesFor(c.isTree)
	if list.Empty() {
		return nil
	}

	bySpecies := map[string][]string{}
	var order []string
	for _, name := range c.observedSpecies() {
		e, ok := list.Lookup(name)
		if !ok {
			continue
		}
		if _, seen := bySpecies[e.Species]; !seen {
			order = append(order, e.Species)
		}
		bySpecies[e.Species] = append(bySpecies[e.Species], name)
	}

	var errs []Record
	for _, sp := range order {
		names := bySpecies[sp]
		if len(names) < 2 {
			continue
		}
		kind := fmt.Sprintf("one species entered under multiple names (%s)", strings.Join(names, "/"))
		errs = append(errs, c.record("", "", kind))
	}
	return errs
}

// checkLocalName flags non-standard local species names.
func (c *common) checkLocalName() []Record {
	list := c.tables.SpeciesFor(c.isTree)
	if list.Empty() {
		return nil
	}

	var errs []Record
	for _, name := range c.observedSpecies() {
		e, ok := list.Lookup(name)
		if !ok || e.NameJPStd == "" {
			continue
		}
		key := ""
		if c.isTree {
			key = c.tagsOfSpecies(name)
		}
		kind := fmt.Sprintf("%s is a local name (alias of %s)", name, e.NameJPStd)
		errs = append(errs, c.record(key, "", kind))
	}
	return errs
}

// checkBlank flags empty cells in the measurement columns.
func (c *common) checkBlank() []Record {
	var errs []Record
	for i, row := range c.meas {
		for j, cell := range row {
			if cell == "" {
				errs = append(errs, c.record(c.recID[i], c.cellTarget(i, j), "blank cell in a measurement column"))
			}
		}
	}
	return errs
}

// checkInvalidValues flags measurement cells that are neither numeric
// nor a recognized annotation.
func (c *common) checkInvalidValues() []Record {
	var errs []Record
	for i, row := range c.meas {
		for j, cell := range row {
			if !classify.IsValid(cell, c.except) {
				kind := fmt.Sprintf("invalid value in %s (%s)", c.measCols[j], c.measOrig[i][j])
				errs = append(errs, c.record(c.recID[i], c.cellTarget(i, j), kind))
			}
		}
	}
	return errs
}

// maskInvalidValues replaces invalid measurement cells with the missing
// sentinel so the numeric checks that follow ignore them.
func (c *common) maskInvalidValues() {
	for i, row := range c.meas {
		for j, cell := range row {
			if !classify.IsValid(cell, c.except) {
				c.meas[i][j] = dataset.Missing
			}
		}
	}
}

// checkPositive flags negative measurement values.
func (c *common) checkPositive() []Record {
	var errs []Record
	for i, row := range c.meas {
		for j, cell := range row {
			v := classify.Num(cell, c.except)
			if v < 0 {
				kind := fmt.Sprintf("negative value in %s (%g)", c.measCols[j], v)
				errs = append(errs, c.record(c.recID[i], c.cellTarget(i, j), kind))
			}
		}
	}
	return errs
}
