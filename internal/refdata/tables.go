package refdata

import (
	derrors "forestqc/internal/errors"
)

// Paths names the reference-data files to load. Empty paths leave the
// corresponding table unset; the checks that need it are skipped.
type Paths struct {
	TreeSpeciesList string
	SeedSpeciesList string
	TaxonDict       string
	MeshXY          string
	TrapList        string
	ExceptionList   string
}

// Tables bundles all loaded reference tables. The zero value has every
// table unset, which every lookup method treats as an always-miss table.
type Tables struct {
	TreeSpecies *SpeciesList
	SeedSpecies *SpeciesList
	Taxa        TaxonDict
	Mesh        *MeshTable
	Traps       *TrapTable
	Exceptions  *ExceptionList
}

// Load reads every configured reference file. A missing or unreadable
// file fails the whole load; reference data is either complete or absent
// by configuration, never silently partial.
func Load(paths Paths) (*Tables, error) {
	t := &Tables{}
	var err error

	if paths.TreeSpeciesList != "" {
		if t.TreeSpecies, err = LoadSpeciesList(paths.TreeSpeciesList); err != nil {
			return nil, derrors.NewConfiguration("tree species list", err)
		}
	}
	if paths.SeedSpeciesList != "" {
		if t.SeedSpecies, err = LoadSpeciesList(paths.SeedSpeciesList); err != nil {
			return nil, derrors.NewConfiguration("seed species list", err)
		}
	}
	if paths.TaxonDict != "" {
		if t.Taxa, err = LoadTaxonDict(paths.TaxonDict); err != nil {
			return nil, derrors.NewConfiguration("taxon dictionary", err)
		}
	}
	if paths.MeshXY != "" {
		if t.Mesh, err = LoadMeshTable(paths.MeshXY); err != nil {
			return nil, derrors.NewConfiguration("mesh table", err)
		}
	}
	if paths.TrapList != "" {
		if t.Traps, err = LoadTrapTable(paths.TrapList); err != nil {
			return nil, derrors.NewConfiguration("trap table", err)
		}
	}
	if paths.ExceptionList != "" {
		if t.Exceptions, err = LoadExceptionList(paths.ExceptionList); err != nil {
			return nil, derrors.NewConfiguration("exception list", err)
		}
	}
	return t, nil
}

// SpeciesFor returns the species list matching a data type: the tree
// list for tree data, the seed list otherwise.
func (t *Tables) SpeciesFor(isTree bool) *SpeciesList {
	if t == nil {
		return nil
	}
	if isTree {
		return t.TreeSpecies
	}
	return t.SeedSpecies
}
