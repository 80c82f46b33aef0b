// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"context"
	"fmt"

	"github.com/sassoftware/viya-pdf-forensics/pdf"
)

// XMPDetails summarizes the XMP packet and its disagreements with the
// information dictionary.
type XMPDetails struct {
	CreateDate   string   `json:"createDate,omitempty"`
	ModifyDate   string   `json:"modifyDate,omitempty"`
	Producer     string   `json:"producer,omitempty"`
	CreatorTool  string   `json:"creatorTool,omitempty"`
	DocumentID   string   `json:"documentID,omitempty"`
	HistoryCount int      `json:"historyCount"`
	Mismatches   []string `json:"mismatches,omitempty"`
}

// XMPCheck cross-checks the XMP packet against the information
// dictionary. Dates are compared as instants.
type XMPCheck struct{}

func (XMPCheck) Name() string { return CheckXMP }

func (XMPCheck) Run(_ context.Context, in *Input) (Finding, error) {
	meta, ok, err := in.Doc.XMP()
	if err != nil {
		return Finding{}, err
	}
	if !ok {
		return Finding{Status: NotAvailable, Summary: "no XMP metadata"}, nil
	}
	info, err := in.Doc.Info()
	if err != nil {
		return Finding{}, err
	}

	d := XMPDetails{
		CreateDate:   meta.CreateDate,
		ModifyDate:   meta.ModifyDate,
		Producer:     meta.Producer,
		CreatorTool:  meta.CreatorTool,
		DocumentID:   meta.DocumentID,
		HistoryCount: len(meta.History),
		Mismatches:   compareXMP(info, meta),
	}
	if len(d.Mismatches) > 0 {
		return Finding{Status: Anomaly, Summary: "XMP metadata disagrees with document info", Details: d}, nil
	}
	return Finding{Status: Ok, Summary: "XMP metadata consistent with document info", Details: d}, nil
}

// compareXMP lists the fields present on both sides that disagree.
// Unparseable dates are skipped.
func compareXMP(info map[string]string, meta pdf.XMP) []string {
	var out []string
	dates := []struct {
		label     string
		info, xmp string
	}{
		{"creation date", info["CreationDate"], meta.CreateDate},
		{"modification date", info["ModDate"], meta.ModifyDate},
	}
	for _, d := range dates {
		if d.info == "" || d.xmp == "" {
			continue
		}
		a, err := pdf.ParseDate(d.info)
		if err != nil {
			continue
		}
		b, err := pdf.ParseXMPDate(d.xmp)
		if err != nil {
			continue
		}
		if !a.Equal(b) {
			out = append(out, fmt.Sprintf("%s differs: info=%s xmp=%s", d.label, d.info, d.xmp))
		}
	}
	if p := info["Producer"]; p != "" && meta.Producer != "" && p != meta.Producer {
		out = append(out, fmt.Sprintf("producer differs: info=%q xmp=%q", p, meta.Producer))
	}
	return out
}
