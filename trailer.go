// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"context"
	"fmt"
	"regexp"
)

var trailerIDPattern = regexp.MustCompile(`/ID \[ <([^>]+)> <([^>]+)> \]`)

// IDPair is the two-part file identifier from the trailer. Original is
// fixed when the file is created; Current changes on every save.
type IDPair struct {
	Original string `json:"original"`
	Current  string `json:"current"`
}

// ParseTrailerID extracts the /ID pair from a rendered trailer.
func ParseTrailerID(trailer string) (IDPair, bool) {
	m := trailerIDPattern.FindStringSubmatch(trailer)
	if m == nil {
		return IDPair{}, false
	}
	return IDPair{Original: m[1], Current: m[2]}, true
}

// TrailerIDCheck compares the two halves of the trailer /ID.
type TrailerIDCheck struct{}

func (TrailerIDCheck) Name() string { return CheckTrailerID }

func (TrailerIDCheck) Run(_ context.Context, in *Input) (Finding, error) {
	text := in.Doc.TrailerText()
	id, ok := ParseTrailerID(text)
	switch {
	case !ok:
		return Finding{Status: Missing, Summary: "no file identifier in trailer", Details: text}, nil
	case id.Original != id.Current:
		summary := fmt.Sprintf("file identifiers differ: original=%s modified=%s", id.Original, id.Current)
		return Finding{Status: Anomaly, Summary: summary, Details: id}, nil
	}
	return Finding{Status: Ok, Summary: "file identifiers match", Details: id}, nil
}
