// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"context"

	"github.com/dop251/goja"
)

// ScriptInfo describes one embedded script. The source is compiled to
// check its syntax but never run.
type ScriptInfo struct {
	Location    string `json:"location"`
	Length      int    `json:"length"`
	Parses      bool   `json:"parses"`
	SyntaxError string `json:"syntaxError,omitempty"`
}

// ScriptCheck reports JavaScript actions.
type ScriptCheck struct{}

func (ScriptCheck) Name() string { return CheckScripts }

func (ScriptCheck) Run(_ context.Context, in *Input) (Finding, error) {
	actions, err := in.Doc.ScriptActions()
	if err != nil {
		return Finding{}, err
	}
	if len(actions) == 0 {
		return Finding{Status: Ok, Summary: "no JavaScript"}, nil
	}
	scripts := make([]ScriptInfo, 0, len(actions))
	for _, a := range actions {
		s := ScriptInfo{Location: a.Location, Length: len(a.Source), Parses: true}
		if err := checkSyntax(a.Source); err != nil {
			s.Parses = false
			s.SyntaxError = err.Error()
		}
		scripts = append(scripts, s)
	}
	return Finding{Status: Anomaly, Summary: "script present", Details: scripts}, nil
}

func checkSyntax(src string) error {
	_, err := goja.Compile("", src, false)
	return err
}
