// Package checks validates census data against the domain rules. A
// checker is picked by data type (tree, litter, seed), runs its rule
// set over the file and returns the errors found as flat records, after
// removing any error already accepted on the curated exception list.
package checks

import (
	"forestqc/internal/refdata"
)

// Record is one detected data error. Equality is value based; the four
// fields together identify an error for exception-list suppression.
type Record struct {
	// PlotID of the data file.
	PlotID string
	// Key is the primary record key: the tag number for tree data, the
	// first census date for litter and seed data.
	Key string
	// Target narrows the error to a column, trap or value, when known.
	Target string
	// Kind is the human-readable error description.
	Kind string
}

// ExceptionKey converts the record to its exception-list lookup key.
func (r Record) ExceptionKey() refdata.ExceptionKey {
	return refdata.ExceptionKey{
		PlotID: r.PlotID,
		Key:    r.Key,
		Target: r.Target,
		Kind:   r.Kind,
	}
}

// Filter removes every record already accepted on the exception list.
// The input order of the surviving records is preserved.
func Filter(records []Record, accepted *refdata.ExceptionList) []Record {
	if accepted == nil || accepted.Len() == 0 {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if !accepted.Contains(r.ExceptionKey()) {
			out = append(out, r)
		}
	}
	return out
}
