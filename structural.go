// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sassoftware/viya-pdf-forensics/logger"
)

// StructuralValidator checks a file for low-level format conformance.
// A non-empty diagnostic with a nil error reports structural problems.
// Validators that cannot run return an error wrapping ErrToolUnavailable.
type StructuralValidator interface {
	Validate(ctx context.Context, path string) (diagnostic string, err error)
}

// StructuralCheck runs a StructuralValidator.
type StructuralCheck struct {
	Validator StructuralValidator
}

func (StructuralCheck) Name() string { return CheckStructure }

func (c StructuralCheck) Run(ctx context.Context, in *Input) (Finding, error) {
	if c.Validator == nil {
		return Finding{Status: NotAvailable, Summary: "no structural validator configured"}, nil
	}
	diag, err := c.Validator.Validate(ctx, in.Path)
	switch {
	case errors.Is(err, ErrToolUnavailable):
		return Finding{Status: NotAvailable, Summary: "structural validator not available", Details: err.Error()}, nil
	case err != nil:
		return Finding{}, err
	case diag != "":
		return Finding{Status: Anomaly, Summary: "structural check failed", Details: diag}, nil
	}
	return Finding{Status: Ok, Summary: "structure is valid"}, nil
}

// QPDFValidator runs "qpdf --check".
type QPDFValidator struct {
	Binary  string
	Timeout time.Duration
}

func (v *QPDFValidator) Validate(ctx context.Context, path string) (string, error) {
	bin := v.Binary
	if bin == "" {
		bin = "qpdf"
	}
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--check", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	logger.Debug(fmt.Sprintf("Running structural validator: binary=%s path=%s", bin, path), true)
	err := cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return "", nil
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return "", goerr.Wrap(ErrToolUnavailable, "qpdf not found", goerr.V("binary", bin))
	case ctx.Err() != nil:
		return "", goerr.Wrap(ctx.Err(), "qpdf did not finish", goerr.V("binary", bin), goerr.V("path", path))
	case errors.As(err, &exitErr):
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = strings.TrimSpace(stdout.String())
		}
		if diag == "" {
			diag = fmt.Sprintf("%s exited with status %d", bin, exitErr.ExitCode())
		}
		return diag, nil
	}
	return "", goerr.Wrap(err, "failed to run qpdf", goerr.V("binary", bin), goerr.V("path", path))
}

var disablePDFCPUConfig sync.Once

// PDFCPUValidator validates in process with pdfcpu in relaxed mode.
type PDFCPUValidator struct{}

func (PDFCPUValidator) Validate(ctx context.Context, path string) (diag string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	disablePDFCPUConfig.Do(api.DisableConfigDir)
	defer func() {
		if r := recover(); r != nil {
			diag, err = fmt.Sprintf("pdfcpu: %v", r), nil
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	logger.Debug(fmt.Sprintf("Running pdfcpu validation: path=%s", path), true)
	if err := api.ValidateFile(path, conf); err != nil {
		return err.Error(), nil
	}
	return "", nil
}

// newValidator returns the validator selected by cfg, or nil for none.
func newValidator(cfg *Config) StructuralValidator {
	switch cfg.Validator {
	case QPDF:
		return &QPDFValidator{Binary: cfg.QPDFPath, Timeout: cfg.ValidatorTimeout}
	case PDFCPU:
		return PDFCPUValidator{}
	}
	return nil
}
