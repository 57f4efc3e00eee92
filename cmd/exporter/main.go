// Command exporter rewrites census data files as cleaned CSV, optionally
// widened with growth-state and taxonomic columns.
//
// Usage:
//
//	exporter [flags] [file ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"forestqc/internal/app"
	"forestqc/internal/config"
	"forestqc/internal/files"
)

func main() {
	configPath := flag.String("config", "", "config file path (defaults to config.yaml when present)")
	dir := flag.String("dir", "", "directory to scan for data files")
	out := flag.String("out", "", "output directory (defaults to each input's directory)")
	suffix := flag.String("suffix", "", "suffix appended to output file names")
	encoding := flag.String("encoding", "", "output text encoding: utf-8, utf-8-sig or shift-jis")
	addStatus := flag.Bool("add-status", false, "append growth-state columns to tree data")
	addSciname := flag.Bool("add-sciname", false, "append scientific names from the species dictionary")
	addClass := flag.Bool("add-class", false, "append the higher classification from the species dictionary")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *out != "" {
		cfg.Paths.OutputDir = *out
	}
	if *suffix != "" {
		cfg.Export.Suffix = *suffix
	}
	if *encoding != "" {
		cfg.Export.Encoding = *encoding
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid flags", "error", err)
			os.Exit(1)
		}
	}
	if *addStatus {
		cfg.Export.AddStatus = true
	}
	if *addSciname {
		cfg.Export.AddSciname = true
	}
	if *addClass {
		cfg.Export.AddClass = true
	}

	paths, err := collectFiles(*dir, flag.Args())
	if err != nil {
		slog.Error("failed to collect input files", "error", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "no input files; pass file arguments or -dir")
		flag.Usage()
		os.Exit(2)
	}

	runner, err := app.NewRunner(cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.ExportFiles(ctx, paths)
	if err != nil {
		slog.Error("batch aborted", "error", err)
		os.Exit(1)
	}
	if summary.Failed() > 0 {
		os.Exit(1)
	}
}

// collectFiles merges the explicit file arguments with the data files
// discovered in dir.
func collectFiles(dir string, args []string) ([]string, error) {
	paths := append([]string(nil), args...)
	if dir == "" {
		return paths, nil
	}
	found, err := files.NewDiscovery("").FindDataFiles(dir)
	if err != nil {
		return nil, err
	}
	for _, f := range found {
		paths = append(paths, f.Path)
	}
	return paths, nil
}
