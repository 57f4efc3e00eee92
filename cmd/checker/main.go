// Command checker validates census data files and writes a checklist
// workbook for every file with findings.
//
// Usage:
//
//	checker [flags] [file ...]
//
// Files are given as arguments, discovered with -dir, or both.
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
	out := flag.String("out", "", "output directory for reports (defaults to each input's directory)")
	thorough := flag.Bool("thorough", false, "additionally report non-standard local species names")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *out != "" {
		cfg.Paths.OutputDir = *out
	}
	if *thorough {
		cfg.Check.Thorough = true
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

	summary, err := runner.CheckFiles(ctx, paths)
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
