package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitComments(t *testing.T) {
	data := [][]string{
		{"# DATA TITLE", "", "Tree census", ""},
		{"# PLOT ID", "", "UR-BC1", ""},
		{"tag_no", "spc_japan", "gbh05", "gbh10"},
		{"101", "ブナ", "15.2", "18.0"},
	}

	rows, comments := SplitComments(data, "#")
	assert.Len(t, rows, 2)
	assert.Len(t, comments, 2)
	assert.Equal(t, "tag_no", rows[0][0])

	rows, comments = SplitComments(data, "")
	assert.Len(t, rows, 4)
	assert.Nil(t, comments)
}

func TestJoinComments_PadsToWidth(t *testing.T) {
	data := [][]string{{"a", "b", "c"}, {"1", "2", "3"}}
	comments := [][]string{{"# note"}}

	joined := JoinComments(data, comments)
	assert.Len(t, joined, 3)
	assert.Equal(t, []string{"# note", "", ""}, joined[0])
	assert.Equal(t, []string{"a", "b", "c"}, joined[1])

	// Wider comments pad the data instead.
	wide := [][]string{{"# a", "x", "y", "z"}}
	joined = JoinComments(data, wide)
	assert.Len(t, joined[1], 4)
	assert.Equal(t, "", joined[1][3])

	assert.Equal(t, data, JoinComments(data, nil))
}

func TestMatStrip(t *testing.T) {
	mat := [][]string{
		{"", "", "", ""},
		{"", "a", "b", ""},
		{"", "c", "", ""},
		{"", "", "", ""},
	}
	got := MatStrip(mat, "")
	assert.Equal(t, [][]string{{"a", "b"}, {"c", ""}}, got)

	assert.Nil(t, MatStrip([][]string{{"", ""}, {"", ""}}, ""))
	assert.Empty(t, MatStrip(nil, ""))
}

func TestMetadataFromComments(t *testing.T) {
	comments := [][]string{
		{"# DATA TITLE", "", "Tree census 2010", ""},
		{"# PLOT ID", "", "UR-BC1", ""},
		{"# irrelevant", "", "", ""},
	}
	// Keys are matched on the exact cell value; the leading comment marker
	// stays attached to the first cell, so only bare key cells match.
	md := MetadataFromComments([][]string{
		{"", "DATA TITLE", "", "Tree census 2010"},
		{"", "PLOT ID", "", "UR-BC1"},
	})
	assert.Equal(t, "Tree census 2010", md["DATA TITLE"])
	assert.Equal(t, "UR-BC1", md["PLOT ID"])

	assert.Empty(t, MetadataFromComments(comments))
}

func TestPlotIDFromFilename(t *testing.T) {
	assert.Equal(t, "UR-BC1", PlotIDFromFilename("/data/tree_UR-BC1_2020.xlsx"))
	assert.Equal(t, "AS-DB2", PlotIDFromFilename("litter_AS-DB2.csv"))
	assert.Equal(t, "", PlotIDFromFilename("notes.csv"))
}
