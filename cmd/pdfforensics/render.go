// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	forensics "github.com/sassoftware/viya-pdf-forensics"
)

var statusColors = map[forensics.Status]*color.Color{
	forensics.Ok:           color.New(color.FgGreen),
	forensics.Anomaly:      color.New(color.FgRed, color.Bold),
	forensics.Missing:      color.New(color.FgYellow),
	forensics.NotAvailable: color.New(color.FgCyan),
	forensics.Error:        color.New(color.FgMagenta),
}

func paint(s forensics.Status) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

// renderReport prints one report as a table followed by the details of
// every finding that is not Ok.
func renderReport(w io.Writer, r *forensics.Report) error {
	header := color.New(color.Bold)
	if r.Err != nil {
		fmt.Fprintf(w, "%s\n  %s %v\n\n", header.Sprint(r.Path), paint(forensics.Error), r.Err)
		return nil
	}
	fmt.Fprintf(w, "%s  (PDF %s, %d page(s))\n", header.Sprint(r.Path), r.Version, r.Pages)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  CHECK\tSUMMARY\tSTATUS")
	for _, f := range r.Findings {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Check, f.Summary, paint(f.Status))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range r.Findings {
		if f.Status == forensics.Ok || f.Details == nil {
			continue
		}
		fmt.Fprintf(w, "  %s:\n", f.Check)
		for _, line := range detailLines(f.Details) {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	fmt.Fprintln(w)
	return nil
}

func detailLines(details any) []string {
	switch d := details.(type) {
	case string:
		return []string{d}
	case []string:
		return d
	}
	b, err := json.Marshal(details)
	if err != nil {
		return []string{fmt.Sprint(details)}
	}
	return []string{string(b)}
}

func writeJSON(w io.Writer, reports []*forensics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
