package dataset

import (
	"fmt"
	"regexp"
)

// Missing is the in-matrix sentinel for a masked or unparseable value.
// Exporters replace it with a configurable string.
const Missing = "nan"

// DataType identifies the census data format of a file.
type DataType string

const (
	TypeTree   DataType = "tree"
	TypeLitter DataType = "litter"
	TypeSeed   DataType = "seed"
	TypeOther  DataType = "other"
)

// Column patterns that must all be present for a data type to be
// recognized. Checked in a fixed priority order: tree, litter, seed.
var (
	treeCols = []*regexp.Regexp{
		regexp.MustCompile(`^tag_no`),
		regexp.MustCompile(`^indv_no`),
		regexp.MustCompile(`^spc_japan`),
		regexp.MustCompile(`^gbh[0-9]{2}$`),
		regexp.MustCompile(`^s_date[0-9]{2}$`),
	}
	litterCols = []*regexp.Regexp{
		regexp.MustCompile(`^trap_id$`),
		regexp.MustCompile(`^s_date1$`),
		regexp.MustCompile(`^s_date2$`),
		regexp.MustCompile(`^wdry_`),
		regexp.MustCompile(`^w_`),
	}
	seedCols = []*regexp.Regexp{
		regexp.MustCompile(`^trap_id$`),
		regexp.MustCompile(`^s_date1$`),
		regexp.MustCompile(`^s_date2$`),
		regexp.MustCompile(`^w`),
		regexp.MustCompile(`^spc$`),
		regexp.MustCompile(`^status$`),
		regexp.MustCompile(`^form$`),
	}
)

// UndefinedColumnError reports a column selection for a name that does not
// exist in the header.
type UndefinedColumnError struct {
	Columns []string
}

// Error implements the error interface.
func (e *UndefinedColumnError) Error() string {
	s := ""
	if len(e.Columns) > 1 {
		s = "s"
	}
	return fmt.Sprintf("undefined column%s: %v", s, e.Columns)
}

// MonitoringData is a typed wrapper over a rectangular 2-D string matrix
// of census data. All rows have the same column count. When Header is
// true, row 0 of the matrix holds the column names.
type MonitoringData struct {
	data     [][]string
	Header   bool
	PlotID   string
	DataType DataType
	Metadata map[string]string
	Comments [][]string
}

// Options configures construction of a MonitoringData.
type Options struct {
	PlotID   string
	DataType DataType
	Metadata map[string]string
	Comments [][]string
	NoHeader bool
}

// New creates a MonitoringData from a rectangular matrix. The data type is
// guessed from the header when not given. Returns an error when the matrix
// rows have unequal column counts.
func New(data [][]string, opts Options) (*MonitoringData, error) {
	for i, row := range data {
		if len(row) != len(data[0]) {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), len(data[0]))
		}
	}

	d := &MonitoringData{
		data:     data,
		Header:   !opts.NoHeader && len(data) > 1,
		PlotID:   opts.PlotID,
		DataType: opts.DataType,
		Metadata: opts.Metadata,
		Comments: opts.Comments,
	}
	if d.Metadata == nil {
		d.Metadata = map[string]string{}
	}
	if d.DataType == "" {
		d.DataType = GuessDataType(d.Columns())
	}
	return d, nil
}

// GuessDataType matches the header names against the required-column
// patterns of each data type, in priority order.
func GuessDataType(columns []string) DataType {
	switch {
	case hasAllColumns(columns, treeCols):
		return TypeTree
	case hasAllColumns(columns, litterCols):
		return TypeLitter
	case hasAllColumns(columns, seedCols):
		return TypeSeed
	default:
		return TypeOther
	}
}

func hasAllColumns(columns []string, pats []*regexp.Regexp) bool {
	for _, pat := range pats {
		found := false
		for _, c := range columns {
			if pat.MatchString(c) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Data returns the underlying matrix including the header row.
func (d *MonitoringData) Data() [][]string {
	return d.data
}

// Values returns the data rows, excluding the header row when present.
func (d *MonitoringData) Values() [][]string {
	if d.Header {
		return d.data[1:]
	}
	return d.data
}

// Columns returns the header row, or an empty slice when the data has no
// header.
func (d *MonitoringData) Columns() []string {
	if d.Header {
		return d.data[0]
	}
	return nil
}

// NRows returns the number of data rows.
func (d *MonitoringData) NRows() int {
	return len(d.Values())
}

// ColumnIndex returns the position of the named column, or -1.
func (d *MonitoringData) ColumnIndex(name string) int {
	for j, c := range d.Columns() {
		if c == name {
			return j
		}
	}
	return -1
}

// Column returns the values of a single named column. Fails with
// UndefinedColumnError when the column is absent.
func (d *MonitoringData) Column(name string) ([]string, error) {
	sel, err := d.SelectCols([]string{name}, false)
	if err != nil {
		return nil, err
	}
	col := make([]string, len(sel))
	for i, row := range sel {
		col[i] = row[0]
	}
	return col, nil
}

// SelectCols returns the sub-matrix of the named columns, in the order
// given. Fails with UndefinedColumnError when any name is absent.
func (d *MonitoringData) SelectCols(names []string, includeHeader bool) ([][]string, error) {
	var missing []string
	idx := make([]int, 0, len(names))
	for _, name := range names {
		j := d.ColumnIndex(name)
		if j < 0 {
			missing = append(missing, name)
			continue
		}
		idx = append(idx, j)
	}
	if len(missing) > 0 {
		return nil, &UndefinedColumnError{Columns: missing}
	}
	return d.take(idx, includeHeader), nil
}

// SelectRegex returns the sub-matrix of all columns whose names match the
// pattern, in header order.
func (d *MonitoringData) SelectRegex(pat *regexp.Regexp, includeHeader bool) [][]string {
	var idx []int
	for j, c := range d.Columns() {
		if pat.MatchString(c) {
			idx = append(idx, j)
		}
	}
	return d.take(idx, includeHeader)
}

func (d *MonitoringData) take(idx []int, includeHeader bool) [][]string {
	rows := d.Values()
	if includeHeader && d.Header {
		rows = d.data
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		sub := make([]string, len(idx))
		for k, j := range idx {
			sub[k] = row[j]
		}
		out[i] = sub
	}
	return out
}

// SetColumn replaces the values of a named column in place.
func (d *MonitoringData) SetColumn(name string, values []string) error {
	j := d.ColumnIndex(name)
	if j < 0 {
		return &UndefinedColumnError{Columns: []string{name}}
	}
	rows := d.Values()
	if len(values) != len(rows) {
		return fmt.Errorf("column %s: %d values for %d rows", name, len(values), len(rows))
	}
	for i := range rows {
		rows[i][j] = values[i]
	}
	return nil
}

// AppendColumns widens the matrix with new columns. The header slice names
// the new columns and cols holds one value slice per new column.
func (d *MonitoringData) AppendColumns(header []string, cols [][]string) error {
	if len(header) != len(cols) {
		return fmt.Errorf("%d column names for %d columns", len(header), len(cols))
	}
	for _, col := range cols {
		if len(col) != d.NRows() {
			return fmt.Errorf("appended column has %d values, want %d", len(col), d.NRows())
		}
	}
	for i := range d.data {
		for k := range cols {
			if d.Header && i == 0 {
				d.data[i] = append(d.data[i], header[k])
			} else {
				row := i
				if d.Header {
					row = i - 1
				}
				d.data[i] = append(d.data[i], cols[k][row])
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the data, so that derived transformations
// do not mutate the original.
func (d *MonitoringData) Clone() *MonitoringData {
	nd := &MonitoringData{
		Header:   d.Header,
		PlotID:   d.PlotID,
		DataType: d.DataType,
		Metadata: make(map[string]string, len(d.Metadata)),
		Comments: copyMatrix(d.Comments),
		data:     copyMatrix(d.data),
	}
	for k, v := range d.Metadata {
		nd.Metadata[k] = v
	}
	return nd
}

// DataWithComments re-joins the retained comment rows ahead of the data
// rows, padding the shorter of the two blocks with empty cells.
func (d *MonitoringData) DataWithComments() [][]string {
	return JoinComments(d.data, d.Comments)
}

func copyMatrix(m [][]string) [][]string {
	if m == nil {
		return nil
	}
	out := make([][]string, len(m))
	for i, row := range m {
		out[i] = append([]string(nil), row...)
	}
	return out
}
