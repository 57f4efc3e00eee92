package dataset

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func treeFixture(t *testing.T) *MonitoringData {
	t.Helper()
	d, err := New([][]string{
		{"tag_no", "indv_no", "spc_japan", "s_date05", "s_date10", "gbh05", "gbh10"},
		{"101", "101", "ブナ", "20050801", "20100801", "15.2", "18.0"},
		{"102", "102", "ミズナラ", "20050801", "20100801", "na", "16.0"},
	}, Options{PlotID: "UR-BC1"})
	require.NoError(t, err)
	return d
}

func TestNew_RaggedMatrix(t *testing.T) {
	_, err := New([][]string{{"a", "b"}, {"1"}}, Options{})
	assert.Error(t, err)
}

func TestGuessDataType(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    DataType
	}{
		{
			name:    "tree",
			columns: []string{"tag_no", "indv_no", "spc_japan", "s_date05", "gbh05"},
			want:    TypeTree,
		},
		{
			name:    "litter",
			columns: []string{"trap_id", "s_date1", "s_date2", "w_leaf", "wdry_leaf"},
			want:    TypeLitter,
		},
		{
			name:    "seed",
			columns: []string{"trap_id", "s_date1", "s_date2", "wdry", "spc", "status", "form", "number"},
			want:    TypeSeed,
		},
		{
			name:    "other",
			columns: []string{"id", "value"},
			want:    TypeOther,
		},
		{
			// Key-column names match from the start of the header name, so
			// a suffixed variant must not satisfy the tree pattern.
			name:    "prefixed tree columns",
			columns: []string{"x_tag_no", "x_indv_no", "x_spc_japan", "s_date05", "gbh05"},
			want:    TypeOther,
		},
		{
			// Litter columns are a subset of what a seed header can carry;
			// priority order must still classify this as litter.
			name:    "litter before seed",
			columns: []string{"trap_id", "s_date1", "s_date2", "w_leaf", "wdry_leaf", "spc", "status", "form"},
			want:    TypeLitter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GuessDataType(tt.columns))
		})
	}
}

func TestMonitoringData_ValuesAndColumns(t *testing.T) {
	d := treeFixture(t)
	assert.Equal(t, 2, d.NRows())
	assert.Equal(t, "tag_no", d.Columns()[0])
	assert.Equal(t, "101", d.Values()[0][0])
	assert.Equal(t, TypeTree, d.DataType)
}

func TestMonitoringData_SelectCols(t *testing.T) {
	d := treeFixture(t)

	sel, err := d.SelectCols([]string{"tag_no", "gbh10"}, false)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"101", "18.0"}, {"102", "16.0"}}, sel)

	withHeader, err := d.SelectCols([]string{"tag_no"}, true)
	require.NoError(t, err)
	assert.Equal(t, "tag_no", withHeader[0][0])

	_, err = d.SelectCols([]string{"no_such", "gbh05"}, false)
	var ucErr *UndefinedColumnError
	require.ErrorAs(t, err, &ucErr)
	assert.Equal(t, []string{"no_such"}, ucErr.Columns)
}

func TestMonitoringData_SelectRegex(t *testing.T) {
	d := treeFixture(t)
	sel := d.SelectRegex(regexp.MustCompile(`^gbh[0-9]{2}$`), true)
	require.Len(t, sel, 3)
	assert.Equal(t, []string{"gbh05", "gbh10"}, sel[0])
	assert.Equal(t, []string{"15.2", "18.0"}, sel[1])
}

func TestMonitoringData_SetColumn(t *testing.T) {
	d := treeFixture(t)
	require.NoError(t, d.SetColumn("gbh05", []string{"15.2", Missing}))
	col, err := d.Column("gbh05")
	require.NoError(t, err)
	assert.Equal(t, []string{"15.2", Missing}, col)

	assert.Error(t, d.SetColumn("gbh05", []string{"1"}))
	assert.Error(t, d.SetColumn("nope", []string{"1", "2"}))
}

func TestMonitoringData_AppendColumns(t *testing.T) {
	d := treeFixture(t)
	err := d.AppendColumns([]string{"error05", "error10"}, [][]string{{"0", "0"}, {"0", "1"}})
	require.NoError(t, err)
	assert.Equal(t, "error05", d.Columns()[7])
	assert.Equal(t, "0", d.Values()[0][7])
	assert.Equal(t, "1", d.Values()[1][8])
}

func TestMonitoringData_CloneIsDeep(t *testing.T) {
	d := treeFixture(t)
	c := d.Clone()
	c.Values()[0][0] = "999"
	c.Metadata["PLOT ID"] = "XX-YY9"
	assert.Equal(t, "101", d.Values()[0][0])
	assert.NotContains(t, d.Metadata, "PLOT ID")
}
