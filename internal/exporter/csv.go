package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"forestqc/internal/dataset"
	"forestqc/internal/files"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures a data export.
type CSVOptions struct {
	// KeepComments re-joins the retained comment rows ahead of the data.
	KeepComments bool
	// Cleaning normalizes every cell before writing.
	Cleaning bool
	// Encoding of the output text. Defaults to UTF-8.
	Encoding string
	// NaRep replaces the missing-value sentinel in the output.
	NaRep string
}

// WriteCSV writes the data to a CSV file at path, creating the parent
// directory when needed.
func WriteCSV(d *dataset.MonitoringData, path string, opts CSVOptions) error {
	data := d.Data()
	if opts.KeepComments {
		data = d.DataWithComments()
	}
	if opts.Cleaning {
		data = dataset.CleanMatrix(data)
	}

	slog.Info("writing data file",
		slog.String("path", path),
		slog.String("plot_id", d.PlotID),
		slog.Int("rows", len(data)))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	w, err := encodeWriter(f, opts.Encoding)
	if err != nil {
		f.Close()
		return err
	}

	cw := csv.NewWriter(w)
	for _, row := range data {
		if err := cw.Write(replaceMissing(row, opts.NaRep)); err != nil {
			f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	if tw, ok := w.(*transform.Writer); ok {
		// Flushes any bytes held back by the encoder; the file itself is
		// closed below.
		if err := tw.Close(); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// replaceMissing substitutes the missing sentinel, copying the row only
// when a substitution is needed.
func replaceMissing(row []string, naRep string) []string {
	if naRep == dataset.Missing {
		return row
	}
	out := row
	copied := false
	for j, cell := range row {
		if cell != dataset.Missing {
			continue
		}
		if !copied {
			out = append([]string(nil), row...)
			copied = true
		}
		out[j] = naRep
	}
	return out
}

// encodeWriter wraps a raw file writer with the requested text encoding.
func encodeWriter(w io.Writer, encoding string) (io.Writer, error) {
	switch strings.ToLower(encoding) {
	case "", files.EncodingUTF8:
		return w, nil
	case files.EncodingUTF8BOM:
		if _, err := w.Write(utf8BOM); err != nil {
			return nil, err
		}
		return w, nil
	case files.EncodingShiftJIS, "shift_jis", "sjis":
		return transform.NewWriter(w, japanese.ShiftJIS.NewEncoder()), nil
	default:
		return nil, fmt.Errorf("unsupported text encoding %q", encoding)
	}
}

var numberedStem = regexp.MustCompile(`^(.*)_\([0-9]+\)$`)

// UniquePath returns path unchanged when nothing exists there, otherwise
// the first free "name_(N)" variant in the same directory. An existing
// "_(N)" counter in the name is reused rather than stacked.
func UniquePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	if m := numberedStem.FindStringSubmatch(stem); m != nil {
		stem = m[1]
	}
	dir := filepath.Dir(path)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_(%d)%s", stem, i, ext))
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
