package checks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestqc/internal/dataset"
	derrors "forestqc/internal/errors"
	"forestqc/internal/refdata"
)

const testPlot = "XX-BC5"

func newTree(t *testing.T, header []string, rows ...[]string) *dataset.MonitoringData {
	t.Helper()
	data := append([][]string{header}, rows...)
	d, err := dataset.New(data, dataset.Options{PlotID: testPlot, DataType: dataset.TypeTree})
	require.NoError(t, err)
	return d
}

func writeRefFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func speciesTables(t *testing.T) *refdata.Tables {
	t.Helper()
	path := writeRefFile(t, "species.csv",
		"name_jp,species,name_jp_std\n"+
			"ブナ,Fagus crenata,\n"+
			"ソバグリ,Fagus crenata,ブナ\n"+
			"ミズナラ,Quercus crispula,\n")
	tables, err := refdata.Load(refdata.Paths{TreeSpeciesList: path})
	require.NoError(t, err)
	return tables
}

func meshTables(t *testing.T) *refdata.Tables {
	t.Helper()
	path := writeRefFile(t, "mesh.json", `{"XX-BC5": {"x": [1, 2], "y": [1, 2]}}`)
	tables, err := refdata.Load(refdata.Paths{MeshXY: path})
	require.NoError(t, err)
	return tables
}

func TestRun_TreeTagDuplicate(t *testing.T) {
	d := newTree(t, []string{"tag_no", "gbh10"},
		[]string{"1", "10.0"},
		[]string{"2", "11.0"},
		[]string{"1", "12.0"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{PlotID: testPlot, Key: "1", Kind: "duplicate tag number"})
	assert.Len(t, records, 1)
}

func TestRun_TreeSpeciesMismatch(t *testing.T) {
	d := newTree(t, []string{"tag_no", "indv_no", "spc_japan", "gbh10"},
		[]string{"1", "5", "ブナ", "10.0"},
		[]string{"2", "5", "ミズナラ", "11.0"},
		[]string{"3", "na", "ブナ", "12.0"},
		[]string{"4", "", "ブナ", "13.0"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "1; 2", Target: "ブナ/ミズナラ",
		Kind: "same individual recorded under different species",
	})
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "3; 4", Target: "indv_no",
		Kind: "indv_no is blank or na",
	})
}

func TestRun_TreeMeshCoordinates(t *testing.T) {
	d := newTree(t, []string{"tag_no", "mesh_xcord", "mesh_ycord", "gbh10"},
		[]string{"1", "1", "2", "10.0"},
		[]string{"2", "3", "1", "10.0"},
		[]string{"3", "nd", "1", "10.0"},
		[]string{"4", "", "1", "10.0"},
		[]string{"5", "a", "b", "10.0"},
	)

	records, err := Run(d, meshTables(t), Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "2", Target: "mesh_xycord = [3 1]",
		Kind: "no such mesh coordinate combination in the plot",
	})
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "4", Target: "mesh_xycord = [ 1]",
		Kind: "blank cell in mesh_xycord",
	})
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "5", Target: "mesh_xycord = [a b]",
		Kind: "non-numeric mesh_xycord",
	})
	for _, r := range records {
		assert.NotEqual(t, "1", r.Key, "valid coordinates must pass")
		assert.NotEqual(t, "3", r.Key, "nd-annotated coordinates are skipped")
	}
}

func TestRun_TreeMeshSkippedWithoutPlotGrid(t *testing.T) {
	d := newTree(t, []string{"tag_no", "mesh_xcord", "mesh_ycord", "gbh10"},
		[]string{"1", "9", "9", "10.0"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRun_TreeStemCoordinates(t *testing.T) {
	d := newTree(t, []string{"tag_no", "stem_xcord", "stem_ycord", "gbh10"},
		[]string{"1", "0.5", "1.2", "10.0"},
		[]string{"2", "na", "1", "10.0"},
		[]string{"3", "", "2", "10.0"},
		[]string{"4", "x", "y", "10.0"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "3", Target: "stem_xycord = [ 2]",
		Kind: "blank cell in stem_xycord",
	})
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "4", Target: "stem_xycord = [x y]",
		Kind: "non-numeric stem_xycord",
	})
	assert.Len(t, records, 2)
}

func TestRun_TreeMissingYetAlive(t *testing.T) {
	d := newTree(t, []string{"tag_no", "gbh10", "gbh11"},
		[]string{"1", "18.0", "na"},
		[]string{"2", "12.0", "na"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "1", Target: "gbh11",
		Kind: "alive at the previous census; now missing. dead?",
	})
	assert.Len(t, records, 1, "below-threshold individuals are not flagged")
}

func TestRun_TreeValueAfterDead(t *testing.T) {
	d := newTree(t, []string{"tag_no", "gbh10", "gbh11", "gbh12"},
		[]string{"1", "d", "20.0", "na"},
		[]string{"2", "d", "na", "na"},
		[]string{"3", "d", "dd", "na"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "1", Target: "gbh10",
		Kind: "value after a dead code is not na or dd",
	})
	for _, r := range records {
		assert.NotContains(t, []string{"2", "3"}, r.Key)
	}
}

func TestRun_TreeGrowthAnomaly(t *testing.T) {
	d := newTree(t, []string{"tag_no", "gbh10", "gbh11"},
		[]string{"1", "10.0", "30.0"},
		[]string{"2", "20.0", "10.0"},
		[]string{"3", "cd 10.0", "30.0"},
		[]string{"4", "10.0", "12.0"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "1", Target: "gbh11",
		Kind: "growth larger than the plausible bound; measurement error?",
	})
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "2", Target: "gbh11",
		Kind: "growth smaller than the plausible bound; measurement error?",
	})
	for _, r := range records {
		assert.NotEqual(t, "3", r.Key, "condition-annotated previous value suppresses the anomaly")
		assert.NotEqual(t, "4", r.Key, "in-band growth passes")
	}
}

func TestRun_TreeGrowthAnomalyIgnoresAnnotatedValues(t *testing.T) {
	// A residual girth behind a condition code is a caveat note, not a
	// measurement; it must not be read as 25.0 and flagged against the
	// previous census.
	d := newTree(t, []string{"tag_no", "gbh10", "gbh11"},
		[]string{"1", "10.0", "cd 25.0"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRun_TreeOversizedRecruit(t *testing.T) {
	// One year of growth from nothing: the plausible bound is
	// 15 + 1*2.5 + 3.8 = 21.3.
	d := newTree(t, []string{"tag_no", "gbh10", "gbh11"},
		[]string{"1", "na", "25.0"},
		[]string{"2", "na", "20.0"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "1", Target: "gbh10=na; gbh11=25.0",
		Kind: "new recruit larger than the expected size; previous census possibly missed",
	})
	assert.Len(t, records, 1)
}

func TestRun_TreeRecruitWithAnnotationNotOversized(t *testing.T) {
	// An annotated first appearance carries no usable girth, so the
	// recruit-size bound cannot apply to its residual value.
	d := newTree(t, []string{"tag_no", "gbh10", "gbh11"},
		[]string{"1", "na", "cd 30.0"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRun_TreeMismarkedND(t *testing.T) {
	d := newTree(t, []string{"tag_no", "gbh10", "gbh11", "gbh12", "gbh13"},
		[]string{"1", "10.0", "nd 12.0", "14.0", "16.0"},
		[]string{"2", "10.0", "12.0", "14.0", "nd 16.0"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "1", Target: "gbh11",
		Kind: "possibly mis-marked nd; neighboring measurements are within growth bounds",
	})
	for _, r := range records {
		assert.NotEqual(t, "2", r.Key, "nd at the final census is unverifiable")
	}
}

func TestRun_TreeInvalidDate(t *testing.T) {
	d := newTree(t, []string{"tag_no", "s_date10", "gbh10"},
		[]string{"1", "20101001", "10.0"},
		[]string{"2", "2010-10-01", "10.0"},
		[]string{"3", "na", "10.0"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "2",
		Kind: "invalid date in s_date10 (2010-10-01)",
	})
	assert.Len(t, records, 1)
}

func TestRun_TreeBlankAndInvalidMeasurements(t *testing.T) {
	d := newTree(t, []string{"tag_no", "gbh10", "gbh11"},
		[]string{"1", "", "10.0"},
		[]string{"2", "x12", "10.0"},
	)

	records, err := Run(d, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "1", Target: "gbh10",
		Kind: "blank cell in a measurement column",
	})
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "2", Target: "gbh10",
		Kind: "invalid value in gbh10 (x12)",
	})
}

func TestRun_TreeSpeciesChecks(t *testing.T) {
	d := newTree(t, []string{"tag_no", "spc_japan", "gbh10"},
		[]string{"1", "ブナ", "10.0"},
		[]string{"2", "スギ", "11.0"},
		[]string{"3", "ソバグリ", "12.0"},
	)

	records, err := Run(d, speciesTables(t), Options{})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "2",
		Kind: "unusual species name or standard name not in the reference list (スギ)",
	})
	assert.Contains(t, records, Record{
		PlotID: testPlot,
		Kind: "one species entered under multiple names (ソバグリ/ブナ)",
	})

	// Local-name reporting only runs in thorough mode.
	for _, r := range records {
		assert.NotContains(t, r.Kind, "local name")
	}
	records, err = Run(d, speciesTables(t), Options{Thorough: true})
	require.NoError(t, err)
	assert.Contains(t, records, Record{
		PlotID: testPlot, Key: "3",
		Kind: "ソバグリ is a local name (alias of ブナ)",
	})
}

func TestRun_TreeExceptionSuppression(t *testing.T) {
	exceptPath := writeRefFile(t, "except.csv",
		"plot_id,rec_id1,rec_id2,err_type,response\n"+
			"XX-BC5,1,,duplicate tag number,intentional retag\n")
	tables, err := refdata.Load(refdata.Paths{ExceptionList: exceptPath})
	require.NoError(t, err)

	d := newTree(t, []string{"tag_no", "gbh10"},
		[]string{"1", "10.0"},
		[]string{"1", "11.0"},
	)

	records, err := Run(d, tables, Options{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRun_UnrecognizedDataType(t *testing.T) {
	d, err := dataset.New([][]string{{"a", "b"}, {"1", "2"}}, dataset.Options{})
	require.NoError(t, err)

	_, err = Run(d, nil, Options{})
	assert.True(t, derrors.IsStructural(err))
}
