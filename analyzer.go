// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sassoftware/viya-pdf-forensics/logger"
	"golang.org/x/sync/semaphore"
)

// Check inspects one aspect of a document. A returned error becomes an
// Error finding for this check only.
type Check interface {
	Name() string
	Run(ctx context.Context, in *Input) (Finding, error)
}

// Analyzer runs the checks against PDF files with bounded concurrency.
type Analyzer struct {
	cfg       *Config
	sem       *semaphore.Weighted
	open      Opener
	validator StructuralValidator
	checks    []Check
}

type Option func(*Analyzer)

// WithOpener replaces the PDF opener.
func WithOpener(open Opener) Option {
	return func(a *Analyzer) { a.open = open }
}

// WithValidator replaces the structural validator chosen by Config.
func WithValidator(v StructuralValidator) Option {
	return func(a *Analyzer) { a.validator = v }
}

// NewAnalyzer validates the config and builds the check sequence.
func NewAnalyzer(cfg *Config, opts ...Option) (*Analyzer, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, err.Error())
	}

	//Set the logger function
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}

	a := &Analyzer{
		cfg:       cfg,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrentFiles)),
		open:      OpenPDF,
		validator: newValidator(cfg),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.checks = []Check{
		StructuralCheck{Validator: a.validator},
		MetadataCheck{},
		XMPCheck{},
		TrailerIDCheck{},
		BinaryCheck{Algorithm: cfg.DigestAlgorithm},
		XRefCheck{},
		IncrementalCheck{},
		HiddenStreamCheck{Algorithm: cfg.DigestAlgorithm},
		ScriptCheck{},
		FontCheck{},
	}

	logger.Debug(fmt.Sprintf("Analyzer initialized: validator=%s digest=%s max_concurrent_files=%d",
		cfg.Validator, cfg.DigestAlgorithm, cfg.MaxConcurrentFiles), true)
	return a, nil
}

// Analyze opens path once and runs every check in order. It fails only
// when the file cannot be opened or ctx is done; check failures are
// reported as Error findings.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Report, error) {
	logger.Debug(fmt.Sprintf("Starting analysis: path=%s", path), true)

	if err := a.acquireSlot(ctx); err != nil {
		logger.Debug(fmt.Sprintf("Failed to acquire slot: err=%v", err), true)
		return nil, err
	}
	defer a.sem.Release(1)

	doc, err := a.open(path)
	if err != nil {
		logger.Debug(fmt.Sprintf("Failed to open PDF: path=%s err=%v", path, err), true)
		return nil, goerr.Wrap(fmt.Errorf("%w: %w", ErrOpen, err), "failed to open document", goerr.V("path", path))
	}
	defer doc.Close()

	in := NewInput(path, doc)
	rep := &Report{
		ID:       uuid.NewString(),
		Path:     path,
		Version:  doc.Version(),
		Pages:    doc.NumPage(),
		Findings: make([]Finding, 0, len(a.checks)),
	}
	for _, c := range a.checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := runCheck(ctx, c, in)
		logger.Debug(fmt.Sprintf("Check finished: path=%s check=%s status=%s", path, f.Check, f.Status), true)
		rep.Findings = append(rep.Findings, f)
	}

	logger.Debug(fmt.Sprintf("Analysis completed: path=%s anomalies=%d", path, len(rep.Anomalies())), true)
	return rep, nil
}

func runCheck(ctx context.Context, c Check, in *Input) (f Finding) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("check %s panicked: %v", c.Name(), r))
			f = errorFinding(c.Name(), fmt.Errorf("internal error: %v", r))
		}
	}()
	f, err := c.Run(ctx, in)
	if err != nil {
		return errorFinding(c.Name(), err)
	}
	f.Check = c.Name()
	return f
}

func (a *Analyzer) acquireSlot(ctx context.Context) error {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	logger.Debug("Slot acquired successfully", true)
	return nil
}
