// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"bytes"
	"context"
)

// IncrementalDetails counts the startxref markers, one per save.
type IncrementalDetails struct {
	Generations int `json:"generations"`
}

// IncrementalCheck reports files saved more than once.
type IncrementalCheck struct{}

func (IncrementalCheck) Name() string { return CheckIncremental }

func (IncrementalCheck) Run(_ context.Context, in *Input) (Finding, error) {
	data, err := in.Bytes()
	if err != nil {
		return Finding{}, err
	}
	d := IncrementalDetails{Generations: bytes.Count(data, []byte("startxref"))}
	// n markers split the file into n+1 segments
	if d.Generations+1 > 2 {
		return Finding{Status: Anomaly, Summary: "contains incremental updates", Details: d}, nil
	}
	return Finding{Status: Ok, Summary: "no incremental updates", Details: d}, nil
}
