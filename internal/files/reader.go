// Package files loads census data files into the tabular model and
// discovers data files on disk. Both .xlsx workbooks and .csv text files
// are supported; everything is read as strings.
package files

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"forestqc/internal/dataset"
	derrors "forestqc/internal/errors"
)

// dataSheet is the preferred worksheet name of a census workbook. When
// absent, the first sheet is read instead.
const dataSheet = "Data"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Supported text encodings for CSV files.
const (
	EncodingUTF8     = "utf-8"
	EncodingUTF8BOM  = "utf-8-sig"
	EncodingShiftJIS = "shift-jis"
)

// ReadMatrix reads a data file into a rectangular string matrix. Ragged
// rows are padded with empty cells and fully blank edge rows and columns
// are stripped. The encoding applies to CSV files only; a UTF-8 BOM is
// always detected and skipped regardless of the declared encoding.
func ReadMatrix(path, encoding string) ([][]string, error) {
	var (
		data [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		data, err = readWorkbook(path)
	case ".csv":
		data, err = readCSV(path, encoding)
	default:
		return nil, derrors.NewStructural(path,
			fmt.Sprintf("unsupported file format %q", filepath.Ext(path)))
	}
	if err != nil {
		return nil, err
	}

	data = padMatrix(data)
	data = dataset.MatStrip(data, "")
	if len(data) == 0 {
		return nil, derrors.NewStructural(path, "file contains no data")
	}
	return data, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, derrors.NewDecode(path, err)
	}
	defer f.Close()

	sheet := dataSheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetList()[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, derrors.NewDecode(path, err)
	}
	return rows, nil
}

func readCSV(path, encoding string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decodeReader(f, encoding)
	if err != nil {
		return nil, derrors.NewDecode(path, err)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, derrors.NewDecode(path, err)
	}
	return rows, nil
}

// decodeReader wraps a raw file reader with the requested text decoding.
// A leading UTF-8 BOM is consumed whenever present.
func decodeReader(f io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8, EncodingUTF8BOM:
		br := make([]byte, len(utf8BOM))
		n, err := io.ReadFull(f, br)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return bytes.NewReader(br[:n]), nil
		}
		if err != nil {
			return nil, err
		}
		if bytes.Equal(br, utf8BOM) {
			return f, nil
		}
		return io.MultiReader(bytes.NewReader(br), f), nil
	case EncodingShiftJIS, "shift_jis", "sjis":
		return transform.NewReader(f, japanese.ShiftJIS.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported text encoding %q", encoding)
	}
}

// padMatrix pads ragged rows with empty cells to the widest row.
func padMatrix(data [][]string) [][]string {
	width := 0
	for _, row := range data {
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([][]string, len(data))
	for i, row := range data {
		if len(row) == width {
			out[i] = row
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}

// ReadOptions configures parsing of a data file into a MonitoringData.
type ReadOptions struct {
	// CommentChar marks comment rows by their first cell prefix. Empty
	// disables comment splitting.
	CommentChar string
	// Encoding of CSV input. Defaults to UTF-8.
	Encoding string
	// PlotID overrides the plot id from metadata or the file name.
	PlotID string
	// DataType overrides data-type guessing.
	DataType dataset.DataType
}

// ReadData reads a data file and assembles the MonitoringData: comment
// rows are split off, file metadata is taken from the comment block, and
// the plot id falls back from metadata to the file name.
func ReadData(path string, opts ReadOptions) (*dataset.MonitoringData, error) {
	matrix, err := ReadMatrix(path, opts.Encoding)
	if err != nil {
		return nil, err
	}

	rows, comments := dataset.SplitComments(matrix, opts.CommentChar)
	if len(rows) == 0 {
		return nil, derrors.NewStructural(path, "file contains only comment rows")
	}

	metadata := dataset.MetadataFromComments(comments)

	plotID := opts.PlotID
	if plotID == "" {
		plotID = metadata["PLOT ID"]
	}
	if plotID == "" {
		plotID = dataset.PlotIDFromFilename(path)
	}

	return dataset.New(rows, dataset.Options{
		PlotID:   plotID,
		DataType: opts.DataType,
		Metadata: metadata,
		Comments: comments,
	})
}
