package checks

import (
	"forestqc/internal/dataset"
	derrors "forestqc/internal/errors"
	"forestqc/internal/refdata"
)

// Run validates a data file against the rule set of its data type and
// returns the errors found, with previously accepted errors removed.
// Files of an unrecognized data type yield a structural error.
func Run(d *dataset.MonitoringData, tables *refdata.Tables, opts Options) ([]Record, error) {
	if tables == nil {
		tables = &refdata.Tables{}
	}

	c, err := newCommon(d, tables, opts)
	if err != nil {
		return nil, derrors.NewStructural(d.PlotID, err.Error())
	}

	var records []Record
	switch d.DataType {
	case dataset.TypeTree:
		records = newTreeChecker(c).checkAll()
	case dataset.TypeLitter:
		lc, err := newLitterChecker(c)
		if err != nil {
			return nil, derrors.NewStructural(d.PlotID, err.Error())
		}
		records = lc.checkAll()
	case dataset.TypeSeed:
		sc, err := newSeedChecker(c)
		if err != nil {
			return nil, derrors.NewStructural(d.PlotID, err.Error())
		}
		records = sc.checkAll()
	}

	return Filter(records, tables.Exceptions), nil
}
