package exporter

import (
	"fmt"
	"log/slog"
	"regexp"

	"forestqc/internal/dataset"
	"forestqc/internal/refdata"
)

// speciesColPat matches the species name column of tree and seed data.
var speciesColPat = regexp.MustCompile(`^spc_japan$|^spc$`)

// AddClassification appends taxonomic columns looked up from the species
// dictionary: the scientific name, the higher classification, or both.
// Names missing from the dictionary yield empty cells and a warning. The
// input data is left untouched.
func AddClassification(d *dataset.MonitoringData, taxa refdata.TaxonDict, addSciname, addClass bool) (*dataset.MonitoringData, error) {
	var cols []string
	if addSciname {
		cols = append(cols, "species")
	}
	if addClass {
		cols = append(cols, "genus", "family", "order", "family_jp", "order_jp")
	}
	if len(cols) == 0 {
		return d, nil
	}

	block := d.SelectRegex(speciesColPat, false)
	if len(block) == 0 || len(block[0]) == 0 {
		return nil, fmt.Errorf("data has no species column")
	}

	values := make([][]string, len(cols))
	for k := range values {
		values[k] = make([]string, len(block))
	}
	var notFound []string
	seen := map[string]bool{}
	for i, row := range block {
		name := row[0]
		t, ok := taxa[name]
		if !ok {
			if !seen[name] {
				seen[name] = true
				notFound = append(notFound, name)
			}
			continue
		}
		for k, col := range cols {
			values[k][i] = taxonField(t, col)
		}
	}
	for _, name := range notFound {
		slog.Warn("species not found in the dictionary",
			slog.String("plot_id", d.PlotID),
			slog.String("name", name))
	}

	out := d.Clone()
	if err := out.AppendColumns(cols, values); err != nil {
		return nil, err
	}
	return out, nil
}

func taxonField(t refdata.Taxon, col string) string {
	switch col {
	case "species":
		return t.Species
	case "genus":
		return t.Genus
	case "family":
		return t.Family
	case "order":
		return t.Order
	case "family_jp":
		return t.FamilyJP
	case "order_jp":
		return t.OrderJP
	}
	return ""
}
