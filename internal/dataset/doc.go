// Package dataset provides the tabular data model for forest monitoring
// census files.
//
// A MonitoringData wraps a rectangular matrix of string cells together with
// header semantics, an optional plot identifier, a guessed data type
// (tree, litter, seed or other), metadata extracted from comment rows, and
// the comment rows themselves so that a file can be re-exported faithfully.
//
// The package also contains the cell-level cleaning used on export:
// whitespace trimming, Unicode NFKC normalization, rounding of
// over-precise floating-point strings, normalization of datetime strings
// to YYYYMMDD, and removal of embedded line breaks and control characters.
// Cleaning is idempotent.
package dataset
