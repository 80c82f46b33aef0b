// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/viya-pdf-forensics/internal/pdftest"
)

func sampleTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	pdftest.Minimal().WriteFile(t, dir, "a.pdf")
	pdftest.Minimal().WriteFile(t, dir, filepath.Join("sub", "B.PDF"))
	pdftest.Minimal().WriteFile(t, dir, filepath.Join("sub", "deeper", "c.Pdf"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("%PDF-1.7"), 0o644))
	return dir
}

func TestFindPDFs(t *testing.T) {
	dir := sampleTree(t)
	got, err := FindPDFs(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "broken.pdf"),
		filepath.Join(dir, "sub", "B.PDF"),
		filepath.Join(dir, "sub", "deeper", "c.Pdf"),
	}, got)

	_, err = FindPDFs(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestAnalyzeDirectory(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			dir := sampleTree(t)
			cfg := NewDefaultConfig()
			cfg.Validator = NoTool
			cfg.MaxConcurrentFiles = workers
			a, err := NewAnalyzer(cfg)
			require.NoError(t, err)

			reports, err := a.AnalyzeDirectory(context.Background(), dir)
			require.NoError(t, err)
			require.Len(t, reports, 4)

			paths := make([]string, len(reports))
			for i, r := range reports {
				paths[i] = r.Path
			}
			assert.Equal(t, []string{
				filepath.Join(dir, "a.pdf"),
				filepath.Join(dir, "broken.pdf"),
				filepath.Join(dir, "sub", "B.PDF"),
				filepath.Join(dir, "sub", "deeper", "c.Pdf"),
			}, paths)

			assert.ErrorIs(t, reports[1].Err, ErrOpen)
			assert.Empty(t, reports[1].Findings)
			for _, i := range []int{0, 2, 3} {
				assert.NoError(t, reports[i].Err)
				assert.Len(t, reports[i].Findings, len(checkOrder))
			}
		})
	}
}

func TestAnalyzeDirectory_Cancelled(t *testing.T) {
	dir := sampleTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := newTestAnalyzer(t).AnalyzeDirectory(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
}
