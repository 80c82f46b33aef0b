// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_MarshalJSON(t *testing.T) {
	rep := &Report{
		ID:   "r1",
		Path: "a.pdf",
		Findings: []Finding{
			{Check: CheckTrailerID, Status: Anomaly, Summary: "file identifiers differ", Details: IDPair{Original: "aa", Current: "bb"}},
			{Check: CheckScripts, Status: Ok, Summary: "no JavaScript"},
		},
	}
	out, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "r1", "path": "a.pdf", "pages": 0,
		"findings": [
			{"check": "trailer-id", "status": "anomaly", "summary": "file identifiers differ", "details": {"original": "aa", "current": "bb"}},
			{"check": "scripts", "status": "ok", "summary": "no JavaScript"}
		]
	}`, string(out))

	failed := &Report{ID: "r2", Path: "b.pdf", Err: fmt.Errorf("%w: truncated", ErrOpen)}
	out, err = json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "r2", "path": "b.pdf", "pages": 0, "findings": null, "error": "cannot open document: truncated"}`, string(out))
}

func TestReport_Lookup(t *testing.T) {
	rep := &Report{Findings: []Finding{
		{Check: CheckMetadata, Status: Ok},
		{Check: CheckFonts, Status: Anomaly},
		{Check: CheckXRef, Status: Anomaly},
	}}
	assert.Equal(t, []Finding{rep.Findings[1], rep.Findings[2]}, rep.Anomalies())

	f, ok := rep.Finding(CheckFonts)
	assert.True(t, ok)
	assert.Equal(t, Anomaly, f.Status)

	_, ok = rep.Finding(CheckScripts)
	assert.False(t, ok)
}

func TestFailedReport(t *testing.T) {
	err := fmt.Errorf("%w: truncated", ErrOpen)
	a, b := FailedReport("x.pdf", err), FailedReport("x.pdf", err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "x.pdf", a.Path)
	assert.ErrorIs(t, a.Err, ErrOpen)
	assert.Empty(t, a.Findings)
}
