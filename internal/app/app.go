package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"forestqc/internal/checks"
	"forestqc/internal/config"
	"forestqc/internal/dataset"
	derrors "forestqc/internal/errors"
	"forestqc/internal/exporter"
	"forestqc/internal/files"
	"forestqc/internal/growth"
	"forestqc/internal/infrastructure"
	"forestqc/internal/refdata"
)

// Runner drives batches of census data files through reading, checking
// and exporting. A Runner is safe for concurrent use; the reference
// tables are loaded once and only read afterwards.
type Runner struct {
	cfg    *config.Config
	tables *refdata.Tables
	logger *slog.Logger
}

// NewRunner loads the reference tables and assembles a Runner.
func NewRunner(cfg *config.Config) (*Runner, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	tables, err := refdata.Load(cfg.RefPaths())
	if err != nil {
		return nil, fmt.Errorf("load reference tables: %w", err)
	}

	return &Runner{cfg: cfg, tables: tables, logger: logger}, nil
}

// FileResult is the outcome of one file in a batch.
type FileResult struct {
	Path string
	// PlotID of the file, when it could be read.
	PlotID string
	// Errors found by the checks.
	Errors int
	// Output is the report or export written for the file, empty when
	// nothing was written.
	Output string
	// Err is the failure that stopped processing of this file.
	Err error
}

// Summary aggregates a batch run.
type Summary struct {
	RunID   string
	Results []FileResult
}

// Failed returns the number of files that could not be processed.
func (s *Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// TotalErrors returns the number of check records across the batch.
func (s *Summary) TotalErrors() int {
	n := 0
	for _, r := range s.Results {
		n += r.Errors
	}
	return n
}

// CheckFiles validates each file and writes a checklist workbook for
// every file with findings. Files are processed concurrently up to the
// configured limit; a failing file is recorded and does not stop the
// batch. Only context cancellation ends the run early.
func (r *Runner) CheckFiles(ctx context.Context, paths []string) (*Summary, error) {
	return r.runBatch(ctx, paths, r.checkFile)
}

// ExportFiles rewrites each file as a cleaned CSV, optionally widened
// with growth-state and taxonomic columns.
func (r *Runner) ExportFiles(ctx context.Context, paths []string) (*Summary, error) {
	return r.runBatch(ctx, paths, r.exportFile)
}

func (r *Runner) runBatch(ctx context.Context, paths []string, process func(context.Context, string) FileResult) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	ctx = infrastructure.WithRunID(ctx, summary.RunID)
	logger := infrastructure.LoggerFromContext(ctx)

	logger.Info("starting batch", slog.Int("files", len(paths)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Check.MaxConcurrency)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := process(gctx, path)
			if result.Err != nil {
				logger.Error("file failed",
					slog.String("path", path),
					slog.String("error", result.Err.Error()))
			}
			mu.Lock()
			summary.Results = append(summary.Results, result)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	logger.Info("batch finished",
		slog.Int("files", len(summary.Results)),
		slog.Int("failed", summary.Failed()),
		slog.Int("errors", summary.TotalErrors()))
	return summary, err
}

func (r *Runner) checkFile(ctx context.Context, path string) FileResult {
	result := FileResult{Path: path}
	logger := infrastructure.LoggerFromContext(ctx)

	d, err := r.readData(path)
	if err != nil {
		result.Err = err
		return result
	}
	result.PlotID = d.PlotID

	records, err := checks.Run(d, r.tables, checks.Options{
		Thorough: r.cfg.Check.Thorough,
		Alpha:    r.cfg.Check.Alpha,
	})
	if err != nil {
		result.Err = err
		return result
	}
	result.Errors = len(records)

	if len(records) == 0 {
		logger.Info("no error detected",
			slog.String("path", path),
			slog.String("plot_id", d.PlotID))
		return result
	}

	report := exporter.UniquePath(exporter.ReportPath(r.outdir(path), path))
	if err := exporter.WriteReport(records, d.DataType, report); err != nil {
		result.Err = err
		return result
	}
	result.Output = report

	logger.Info("report created",
		slog.String("path", report),
		slog.String("plot_id", d.PlotID),
		slog.Int("errors", len(records)))
	return result
}

func (r *Runner) exportFile(ctx context.Context, path string) FileResult {
	result := FileResult{Path: path}
	logger := infrastructure.LoggerFromContext(ctx)

	d, err := r.readData(path)
	if err != nil {
		result.Err = err
		return result
	}
	result.PlotID = d.PlotID

	if d.DataType == dataset.TypeTree && r.cfg.Export.AddStatus {
		d, err = growth.AddStateColumns(d)
		if err != nil {
			result.Err = err
			return result
		}
	}
	enrich := r.cfg.Export.AddSciname || r.cfg.Export.AddClass
	if enrich && (d.DataType == dataset.TypeTree || d.DataType == dataset.TypeSeed) {
		d, err = exporter.AddClassification(d, r.tables.Taxa,
			r.cfg.Export.AddSciname, r.cfg.Export.AddClass)
		if err != nil {
			result.Err = err
			return result
		}
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(r.outdir(path), stem+r.cfg.Export.Suffix+".csv")
	out = exporter.UniquePath(out)
	err = exporter.WriteCSV(d, out, exporter.CSVOptions{
		KeepComments: r.cfg.Export.KeepComments,
		Cleaning:     r.cfg.Export.Cleaning,
		Encoding:     r.cfg.Export.Encoding,
		NaRep:        r.cfg.Export.NaRep,
	})
	if err != nil {
		result.Err = err
		return result
	}
	result.Output = out

	logger.Info("file exported",
		slog.String("path", out),
		slog.String("plot_id", d.PlotID))
	return result
}

func (r *Runner) readData(path string) (*dataset.MonitoringData, error) {
	d, err := files.ReadData(path, files.ReadOptions{
		CommentChar: r.cfg.Check.CommentChar,
		Encoding:    r.cfg.Check.Encoding,
	})
	if err != nil {
		return nil, err
	}
	if d.DataType == dataset.TypeOther {
		return nil, derrors.NewStructural(filepath.Base(path), "not census data")
	}
	return d, nil
}

// outdir resolves the output directory for one input file: the
// configured directory, or the input's own directory.
func (r *Runner) outdir(path string) string {
	if r.cfg.Paths.OutputDir != "" {
		return r.cfg.Paths.OutputDir
	}
	return filepath.Dir(path)
}
