// Package classify interprets raw census cells as numeric values,
// annotated exception codes or invalid tokens.
//
// Field sheets mix measurements with annotation codes: a tree girth column
// may hold "15.2", "nd" (uncorrectable error), "cd"/"vi"/"vn"
// (flagged-but-accepted condition), "d 8.5" (dead with residual girth),
// "dd" (confirmed dead) or "na" (not applicable). Litter and seed weight
// columns use "na", "nd" and "-" (below measurement resolution). A cell is
// valid when, after stripping the legal annotations, the remainder parses
// as a number or is empty.
package classify

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Annotation vocabularies per data type. The bare-d branch of the tree
// pattern comes last so that "dd" and "nd" are consumed by their own
// branches first.
var (
	// TreeExcept strips the legal non-numeric annotations of gbh cells.
	TreeExcept = regexp.MustCompile(`^dd$|^NA$|^na$|^na<5|^vi|^vn|^cd|^nd|^d\s?`)
	// WeightExcept strips the legal annotations of litter and seed
	// weight/count cells.
	WeightExcept = regexp.MustCompile(`^NA$|^na$|^nd|^-$`)
	// GrowthExcept strips only the error and condition annotations,
	// leaving dead and not-applicable cells unparseable. Used by the
	// growth-state classifier, which handles d/dd/na itself.
	GrowthExcept = regexp.MustCompile(`^nd|^cd|^vi|^vn`)
)

// Patterns shared by the state classifier and the tree rules.
var (
	// DeadResidual matches a dead mark carrying a residual girth
	// measurement, like "d 8.5" or "d8.5".
	DeadResidual = regexp.MustCompile(`^d\s?[0-9]+\.?[0-9]*`)
	// BareDead matches a single leading d that is not part of nd or dd.
	BareDead = regexp.MustCompile(`^d(?:$|[^d])`)
	// DeadOnly matches exactly "d".
	DeadOnly = regexp.MustCompile(`^d$`)
	// ConfirmedDead matches a dd prefix.
	ConfirmedDead = regexp.MustCompile(`^dd`)
	// AfterDead matches the states allowed after a death record.
	AfterDead = regexp.MustCompile(`^dd$|^na$|^NA$`)
	// NotApplicable matches a bare na cell.
	NotApplicable = regexp.MustCompile(`^na$|^NA$`)
	// ErrorCode matches an nd-prefixed cell.
	ErrorCode = regexp.MustCompile(`^nd`)
	// ConditionCode matches the flagged-but-accepted condition prefixes.
	ConditionCode = regexp.MustCompile(`^vi|^vn|^cd`)
	// ErrorResidual matches an nd annotation carrying a measured value.
	ErrorResidual = regexp.MustCompile(`^nd\s?[0-9]+\.?[0-9]*`)
)

// Kind is the classification of a cell.
type Kind int

const (
	// Numeric means the cell carries a usable measurement value.
	Numeric Kind = iota
	// Missing means the cell is empty, or an annotation with no residual
	// value.
	Missing
	// Invalid means the cell is neither a number nor a legal annotation.
	Invalid
)

// Value is the result of classifying a cell.
type Value struct {
	Kind Kind
	// Num holds the parsed measurement for Numeric cells and NaN
	// otherwise.
	Num float64
}

// Classify strips the annotation substrings matching except from the cell
// and classifies the remainder. A nil except classifies the raw cell.
func Classify(cell string, except *regexp.Regexp) Value {
	s := cell
	if except != nil {
		s = except.ReplaceAllString(s, "")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{Kind: Missing, Num: math.NaN()}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{Kind: Invalid, Num: math.NaN()}
	}
	if math.IsNaN(f) {
		// A masked cell holds the missing sentinel, which parses as NaN.
		return Value{Kind: Missing, Num: math.NaN()}
	}
	return Value{Kind: Numeric, Num: f}
}

// IsValid reports whether the cell is a number, empty, or a legal
// annotation under the given exception pattern.
func IsValid(cell string, except *regexp.Regexp) bool {
	return Classify(cell, except).Kind != Invalid
}

// Num returns the numeric value of a cell, or NaN when the cell is missing
// or invalid under the given exception pattern.
func Num(cell string, except *regexp.Regexp) float64 {
	return Classify(cell, except).Num
}

// Matches reports whether the cell matches the annotation pattern.
func Matches(cell string, pat *regexp.Regexp) bool {
	return pat.MatchString(cell)
}

// IsAlive reports whether the cell holds a girth measurement at or above
// the threshold.
func IsAlive(cell string, threshold float64, except *regexp.Regexp) bool {
	v := Num(cell, except)
	return !math.IsNaN(v) && v >= threshold
}
