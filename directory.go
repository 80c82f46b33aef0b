// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sassoftware/viya-pdf-forensics/logger"
	"golang.org/x/sync/errgroup"
)

// FindPDFs returns the .pdf files under dir, any letter case, sorted by path.
func FindPDFs(ctx context.Context, dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == dir {
				return err
			}
			logger.Error(fmt.Sprintf("skipping %s: %v", path, err))
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to walk directory", goerr.V("dir", dir))
	}
	sort.Strings(paths)
	return paths, nil
}

// AnalyzeDirectory analyzes every PDF under dir, up to MaxConcurrentFiles
// at a time. Reports are ordered by path; files that cannot be opened get
// a Report with Err set. When ctx is cancelled the reports finished so far
// are returned with the context error.
func (a *Analyzer) AnalyzeDirectory(ctx context.Context, dir string) ([]*Report, error) {
	paths, err := FindPDFs(ctx, dir)
	if err != nil {
		return nil, err
	}
	logger.Debug(fmt.Sprintf("Found PDF files: dir=%s count=%d", dir, len(paths)), true)

	reports := make([]*Report, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MaxConcurrentFiles)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, err := a.Analyze(gctx, path)
			switch {
			case errors.Is(err, ErrOpen):
				reports[i] = FailedReport(path, err)
			case err != nil:
				return err
			default:
				reports[i] = rep
			}
			return nil
		})
	}
	err = g.Wait()

	done := reports[:0]
	for _, r := range reports {
		if r != nil {
			done = append(done, r)
		}
	}
	if err != nil {
		return done, err
	}
	return done, ctx.Err()
}
