package app

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestqc/internal/config"
	derrors "forestqc/internal/errors"
)

const treeHeader = "tag_no,indv_no,spc_japan,s_date10,gbh10\n"

func writeDataFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newRunner(t *testing.T, outdir string) *Runner {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = outdir
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	return r
}

func TestRunner_CheckFiles(t *testing.T) {
	dir := t.TempDir()
	outdir := t.TempDir()
	dirty := writeDataFile(t, dir, "tree_XX-BC5_2010.csv",
		treeHeader+
			"1,1,ブナ,20101001,15.2\n"+
			"1,2,ブナ,20101001,18.0\n")
	clean := writeDataFile(t, dir, "tree_XX-BC6_2010.csv",
		treeHeader+
			"1,1,ブナ,20101001,15.2\n"+
			"2,2,ブナ,20101001,18.0\n")

	r := newRunner(t, outdir)
	summary, err := r.CheckFiles(context.Background(), []string{dirty, clean})
	require.NoError(t, err)

	require.Len(t, summary.Results, 2)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 0, summary.Failed())
	assert.Equal(t, 1, summary.TotalErrors())

	byPath := map[string]FileResult{}
	for _, res := range summary.Results {
		byPath[res.Path] = res
	}
	assert.Equal(t, "XX-BC5", byPath[dirty].PlotID)
	assert.Equal(t, 1, byPath[dirty].Errors)
	require.NotEmpty(t, byPath[dirty].Output)
	assert.Equal(t, filepath.Join(outdir, "checklist_tree_XX-BC5_2010.xlsx"), byPath[dirty].Output)
	_, statErr := os.Stat(byPath[dirty].Output)
	assert.NoError(t, statErr)

	assert.Empty(t, byPath[clean].Output, "clean files produce no report")
}

func TestRunner_CheckFiles_BadFileIsolated(t *testing.T) {
	dir := t.TempDir()
	good := writeDataFile(t, dir, "tree_XX-BC5_2010.csv",
		treeHeader+"1,1,ブナ,20101001,15.2\n")
	notData := writeDataFile(t, dir, "readme.csv", "a,b\n1,2\n")
	missing := filepath.Join(dir, "absent.csv")

	r := newRunner(t, t.TempDir())
	summary, err := r.CheckFiles(context.Background(), []string{good, notData, missing})
	require.NoError(t, err)

	require.Len(t, summary.Results, 3)
	assert.Equal(t, 2, summary.Failed())

	var failed []string
	for _, res := range summary.Results {
		if res.Err != nil {
			failed = append(failed, filepath.Base(res.Path))
		}
		if res.Path == notData {
			assert.True(t, derrors.IsStructural(res.Err),
				"unrecognized columns must classify as a structural failure")
		}
	}
	sort.Strings(failed)
	assert.Equal(t, []string{"absent.csv", "readme.csv"}, failed)
}

func TestRunner_CheckFiles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, t.TempDir())
	_, err := r.CheckFiles(ctx, []string{"whatever.csv"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_ExportFiles(t *testing.T) {
	dir := t.TempDir()
	outdir := t.TempDir()
	path := writeDataFile(t, dir, "tree_XX-BC5_2010.csv",
		"#,PLOT ID,,XX-BC5\n"+
			treeHeader+
			"1,1,ブナ,20101001,cd 15.2\n")

	cfg := config.Default()
	cfg.Paths.OutputDir = outdir
	cfg.Export.AddStatus = true
	cfg.Export.Suffix = "_en"
	r, err := NewRunner(cfg)
	require.NoError(t, err)

	summary, err := r.ExportFiles(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	res := summary.Results[0]
	require.NoError(t, res.Err)
	assert.Equal(t, filepath.Join(outdir, "tree_XX-BC5_2010_en.csv"), res.Output)

	raw, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3, "comment, header and one data row")
	assert.Equal(t, "#,PLOT ID,,XX-BC5,,,,", lines[0])
	assert.Equal(t, "tag_no,indv_no,spc_japan,s_date10,gbh10,error10,dl10,rec10", lines[1])
	assert.Equal(t, "1,1,ブナ,20101001,15.2,2,0,0", lines[2])
}

func TestRunner_ExportFiles_Collision(t *testing.T) {
	dir := t.TempDir()
	outdir := t.TempDir()
	path := writeDataFile(t, dir, "tree_XX-BC5_2010.csv",
		treeHeader+"1,1,ブナ,20101001,15.2\n")

	r := newRunner(t, outdir)
	first, err := r.ExportFiles(context.Background(), []string{path})
	require.NoError(t, err)
	second, err := r.ExportFiles(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outdir, "tree_XX-BC5_2010.csv"), first.Results[0].Output)
	assert.Equal(t, filepath.Join(outdir, "tree_XX-BC5_2010_(1).csv"), second.Results[0].Output)
}
