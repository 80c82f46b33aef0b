// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	forensics "github.com/sassoftware/viya-pdf-forensics"
	"github.com/sassoftware/viya-pdf-forensics/logger"
	"github.com/sassoftware/viya-pdf-forensics/tracer"
)

func main() {
	app := &cli.Command{
		Name:      "pdfforensics",
		Usage:     "Inspect PDF files for signs of tampering",
		ArgsUsage: "<file-or-dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "validator",
				Value:   string(forensics.QPDF),
				Sources: cli.EnvVars("PDFFORENSICS_VALIDATOR"),
				Usage:   "Structural validator: qpdf, pdfcpu or none",
			},
			&cli.StringFlag{
				Name:    "qpdf",
				Value:   "qpdf",
				Sources: cli.EnvVars("PDFFORENSICS_QPDF"),
				Usage:   "Path to the qpdf binary",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   forensics.NewDefaultConfig().ValidatorTimeout,
				Sources: cli.EnvVars("PDFFORENSICS_TIMEOUT"),
				Usage:   "Structural validator timeout",
			},
			&cli.StringFlag{
				Name:    "digest",
				Value:   string(forensics.SHA256),
				Sources: cli.EnvVars("PDFFORENSICS_DIGEST"),
				Usage:   "File digest: sha256, sha3-256 or blake2b-256",
			},
			&cli.IntFlag{
				Name:    "workers",
				Value:   1,
				Sources: cli.EnvVars("PDFFORENSICS_WORKERS"),
				Usage:   "Files analyzed concurrently in directory mode",
			},
			&cli.BoolFlag{
				Name:    "json",
				Sources: cli.EnvVars("PDFFORENSICS_JSON"),
				Usage:   "Print reports as JSON",
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Sources: cli.EnvVars("PDFFORENSICS_NO_COLOR", "NO_COLOR"),
				Usage:   "Disable colored output",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Sources: cli.EnvVars("PDFFORENSICS_DEBUG"),
				Usage:   "Log debug messages and print the trace on failure",
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("expected exactly one file or directory argument")
	}
	target := cmd.Args().First()

	level := slog.LevelInfo
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	cfg := forensics.NewDefaultConfig()
	cfg.Validator = forensics.ValidatorKind(cmd.String("validator"))
	cfg.QPDFPath = cmd.String("qpdf")
	cfg.ValidatorTimeout = cmd.Duration("timeout")
	cfg.DigestAlgorithm = forensics.DigestAlgorithm(cmd.String("digest"))
	cfg.MaxConcurrentFiles = int(cmd.Int("workers"))
	cfg.DebugOn = cmd.Bool("debug")
	cfg.Logger = slogFunc(log)

	a, err := forensics.NewAnalyzer(cfg)
	if err != nil {
		return err
	}

	reports, err := analyze(ctx, a, target)
	if err != nil {
		if cfg.DebugOn {
			tracer.FlushTo(os.Stderr)
		}
		return err
	}

	if cmd.Bool("json") {
		return writeJSON(os.Stdout, reports)
	}
	color.NoColor = color.NoColor || cmd.Bool("no-color")
	for _, r := range reports {
		if err := renderReport(os.Stdout, r); err != nil {
			return err
		}
	}
	return nil
}

// analyze runs a single file or a whole directory tree.
func analyze(ctx context.Context, a *forensics.Analyzer, target string) ([]*forensics.Report, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return a.AnalyzeDirectory(ctx, target)
	}
	rep, err := a.Analyze(ctx, target)
	if errors.Is(err, forensics.ErrOpen) {
		return []*forensics.Report{forensics.FailedReport(target, err)}, nil
	}
	if err != nil {
		return nil, err
	}
	return []*forensics.Report{rep}, nil
}

// slogFunc routes the library log calls to l.
func slogFunc(l *slog.Logger) logger.LogFunc {
	return func(level logger.LogLevel, msg string, keyvals ...interface{}) {
		if level == logger.ErrorLevel {
			l.Error(msg, keyvals...)
			return
		}
		l.Debug(msg, keyvals...)
	}
}
