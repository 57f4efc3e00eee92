package checks

import (
	"fmt"
)

// seedChecker runs the seed-trap rule set.
type seedChecker struct {
	*common

	sDate1 []string
	trapID []string
}

func newSeedChecker(c *common) (*seedChecker, error) {
	sc := &seedChecker{common: c}
	var err error
	if sc.sDate1, err = c.d.Column("s_date1"); err != nil {
		return nil, err
	}
	if sc.trapID, err = c.d.Column("trap_id"); err != nil {
		return nil, err
	}
	return sc, nil
}

func (c *seedChecker) checkAll() []Record {
	var errs []Record
	errs = append(errs, c.checkInvalidDate()...)
	errs = append(errs, c.checkSpeciesNotInList()...)
	errs = append(errs, c.checkSynonym()...)
	// Seed records are keyed by species, so local-name aliases always
	// matter here, not only in thorough mode.
	errs = append(errs, c.checkLocalName()...)
	errs = append(errs, c.checkBlank()...)
	errs = append(errs, c.checkTrapList()...)
	errs = append(errs, c.checkInvalidValues()...)
	errs = append(errs, c.checkPositive()...)
	return errs
}

// checkSpeciesNotInList flags unknown species per occurrence row, keyed
// by the row's collection date and trap.
func (c *seedChecker) checkSpeciesNotInList() []Record {
	list := c.tables.SpeciesFor(false)
	if list.Empty() {
		return nil
	}
	spc, err := c.d.Column("spc")
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var unknown []string
	for _, name := range spc {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if !list.Contains(name) {
			unknown = append(unknown, name)
		}
	}

	var errs []Record
	for _, name := range unknown {
		kind := fmt.Sprintf("%s is not in the species reference list", name)
		for i, s := range spc {
			if s == name {
				errs = append(errs, c.record(c.sDate1[i], c.trapID[i], kind))
			}
		}
	}
	return errs
}

// checkTrapList flags trap ids absent from the plot's trap inventory.
func (c *seedChecker) checkTrapList() []Record {
	if c.tables.Traps.Traps(c.d.PlotID) == nil {
		return nil
	}

	seen := map[string]bool{}
	var unknown []string
	for _, trap := range c.trapID {
		if seen[trap] {
			continue
		}
		seen[trap] = true
		if !c.tables.Traps.Contains(c.d.PlotID, trap) {
			unknown = append(unknown, trap)
		}
	}

	var errs []Record
	for _, trap := range unknown {
		kind := fmt.Sprintf("trap id not in the plot trap list (%s)", trap)
		for i, t := range c.trapID {
			if t == trap {
				errs = append(errs, c.record(c.sDate1[i], trap, kind))
			}
		}
	}
	return errs
}
