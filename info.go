// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"context"
	"time"

	"github.com/sassoftware/viya-pdf-forensics/pdf"
)

const unknown = "unknown"

// InfoDetails are the document information entries the metadata check
// reads. CreationTime and ModTime hold the parsed dates in RFC 3339 when
// the raw values are valid PDF dates.
type InfoDetails struct {
	CreationDate string `json:"creationDate"`
	ModDate      string `json:"modDate"`
	Producer     string `json:"producer"`
	Creator      string `json:"creator"`
	CreationTime string `json:"creationTime,omitempty"`
	ModTime      string `json:"modTime,omitempty"`
}

// MetadataCheck compares the creation and modification dates of the
// information dictionary.
type MetadataCheck struct{}

func (MetadataCheck) Name() string { return CheckMetadata }

func (MetadataCheck) Run(_ context.Context, in *Input) (Finding, error) {
	info, err := in.Doc.Info()
	if err != nil {
		return Finding{}, err
	}
	d := readInfo(info)
	if d.CreationDate != d.ModDate {
		return Finding{Status: Anomaly, Summary: "creation and modification dates differ", Details: d}, nil
	}
	return Finding{Status: Ok, Summary: "creation and modification dates match", Details: d}, nil
}

func readInfo(info map[string]string) InfoDetails {
	field := func(key string) string {
		if v, ok := info[key]; ok {
			return v
		}
		return unknown
	}
	d := InfoDetails{
		CreationDate: field("CreationDate"),
		ModDate:      field("ModDate"),
		Producer:     field("Producer"),
		Creator:      field("Creator"),
	}
	d.CreationTime = rfc3339(d.CreationDate)
	d.ModTime = rfc3339(d.ModDate)
	return d
}

func rfc3339(raw string) string {
	t, err := pdf.ParseDate(raw)
	if err != nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
