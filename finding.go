// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Status is the outcome of a single check.
type Status string

const (
	Ok           Status = "ok"
	Anomaly      Status = "anomaly"
	Missing      Status = "missing"
	NotAvailable Status = "not-available"
	Error        Status = "error"
)

// Check names, in the order the Analyzer runs them.
const (
	CheckStructure     = "structure"
	CheckMetadata      = "metadata"
	CheckXMP           = "xmp"
	CheckTrailerID     = "trailer-id"
	CheckBinary        = "binary-patterns"
	CheckXRef          = "xref-integrity"
	CheckIncremental   = "incremental-updates"
	CheckHiddenStreams = "hidden-streams"
	CheckScripts       = "scripts"
	CheckFonts         = "fonts"
)

// Finding is the result of one check. Details is nil, a string or a
// check-specific struct.
type Finding struct {
	Check   string `json:"check"`
	Status  Status `json:"status"`
	Summary string `json:"summary"`
	Details any    `json:"details,omitempty"`
}

func errorFinding(check string, err error) Finding {
	return Finding{Check: check, Status: Error, Summary: err.Error()}
}

// Report collects the findings for one file. Err is set instead of
// findings when the file could not be opened.
type Report struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Version  string    `json:"version,omitempty"`
	Pages    int       `json:"pages"`
	Findings []Finding `json:"findings"`
	Err      error     `json:"-"`
}

// FailedReport is the entry for a file that could not be opened.
func FailedReport(path string, err error) *Report {
	return &Report{ID: uuid.NewString(), Path: path, Err: err}
}

// MarshalJSON adds the open error as a string.
func (r *Report) MarshalJSON() ([]byte, error) {
	type plain Report
	out := struct {
		*plain
		Error string `json:"error,omitempty"`
	}{plain: (*plain)(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Finding returns the finding of the named check.
func (r *Report) Finding(check string) (Finding, bool) {
	for _, f := range r.Findings {
		if f.Check == check {
			return f, true
		}
	}
	return Finding{}, false
}

// Anomalies returns the findings with status Anomaly.
func (r *Report) Anomalies() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Status == Anomaly {
			out = append(out, f)
		}
	}
	return out
}
