// Package refdata loads the immutable reference tables consulted by the
// validation rules: species lists, the taxonomic dictionary, per-plot
// mesh-coordinate combinations, per-plot trap lists and the curated
// exception list. Every table is loaded once at startup and only read
// afterwards, so they are safe to share across concurrent file checks.
package refdata

import (
	"encoding/json"
	"fmt"
	"os"

	"forestqc/internal/files"
)

// SpeciesEntry is one row of a species reference list.
type SpeciesEntry struct {
	// NameJP is the Japanese vernacular name as it appears in data files.
	NameJP string
	// Species is the scientific name.
	Species string
	// NameJPStd is the standard vernacular name when NameJP is a local
	// alias, empty otherwise.
	NameJPStd string
}

// SpeciesList is a reference list of accepted species names.
type SpeciesList struct {
	entries []SpeciesEntry
	byName  map[string]SpeciesEntry
}

// LoadSpeciesList reads a species list from a CSV or XLSX file. The
// header must contain name_jp and species columns; name_jp_std is
// optional.
func LoadSpeciesList(path string) (*SpeciesList, error) {
	matrix, err := files.ReadMatrix(path, "")
	if err != nil {
		return nil, err
	}
	if len(matrix) < 2 {
		return nil, fmt.Errorf("species list %s has no data rows", path)
	}

	idx := map[string]int{}
	for j, name := range matrix[0] {
		idx[name] = j
	}
	for _, required := range []string{"name_jp", "species"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("species list %s lacks column %q", path, required)
		}
	}

	cell := func(row []string, name string) string {
		j, ok := idx[name]
		if !ok || j >= len(row) {
			return ""
		}
		return row[j]
	}

	l := &SpeciesList{byName: map[string]SpeciesEntry{}}
	for _, row := range matrix[1:] {
		e := SpeciesEntry{
			NameJP:    cell(row, "name_jp"),
			Species:   cell(row, "species"),
			NameJPStd: cell(row, "name_jp_std"),
		}
		if e.NameJP == "" {
			continue
		}
		l.entries = append(l.entries, e)
		l.byName[e.NameJP] = e
	}
	return l, nil
}

// Contains reports whether a vernacular name is in the list.
func (l *SpeciesList) Contains(nameJP string) bool {
	if l == nil {
		return false
	}
	_, ok := l.byName[nameJP]
	return ok
}

// Lookup returns the list entry for a vernacular name.
func (l *SpeciesList) Lookup(nameJP string) (SpeciesEntry, bool) {
	if l == nil {
		return SpeciesEntry{}, false
	}
	e, ok := l.byName[nameJP]
	return e, ok
}

// Empty reports whether the list holds no entries. A nil list is empty.
func (l *SpeciesList) Empty() bool {
	return l == nil || len(l.entries) == 0
}

// Taxon is the taxonomic record of one species in the dictionary.
type Taxon struct {
	Species  string `json:"species"`
	Genus    string `json:"genus"`
	Family   string `json:"family"`
	Order    string `json:"order"`
	FamilyJP string `json:"family_jp"`
	OrderJP  string `json:"order_jp"`
}

// TaxonDict maps Japanese vernacular names to taxonomic records.
type TaxonDict map[string]Taxon

// LoadTaxonDict reads the species dictionary from a JSON file.
func LoadTaxonDict(path string) (TaxonDict, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var dict TaxonDict
	if err := json.Unmarshal(raw, &dict); err != nil {
		return nil, fmt.Errorf("species dictionary %s: %w", path, err)
	}
	return dict, nil
}
