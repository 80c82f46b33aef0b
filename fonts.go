// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"context"
	"fmt"
)

// FontFlagEmbedded is the /FontDescriptor /Flags bit that marks a font
// as embedded.
const FontFlagEmbedded = 4

// FontEntry is the embedding verdict for one font resource of a page.
// Embedded follows the descriptor flag alone; Descriptor and FontFile
// record what the font dictionary actually carries.
type FontEntry struct {
	Page       int    `json:"page"`
	Font       string `json:"font"`
	Object     uint32 `json:"object,omitempty"`
	Subtype    string `json:"subtype,omitempty"`
	Flags      int64  `json:"flags"`
	Embedded   bool   `json:"embedded"`
	Descriptor bool   `json:"descriptor"`
	FontFile   bool   `json:"fontFile"`
	Status     Status `json:"status"`
	Note       string `json:"note,omitempty"`
}

// Embedded reports whether flags carry the embedded bit.
func Embedded(flags int64) bool {
	return flags&FontFlagEmbedded != 0
}

// FontCheck audits font embedding page by page.
type FontCheck struct{}

func (FontCheck) Name() string { return CheckFonts }

func (FontCheck) Run(ctx context.Context, in *Input) (Finding, error) {
	var entries []FontEntry
	missing := 0
	for page := 1; page <= in.Doc.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return Finding{}, err
		}
		fonts, err := in.Doc.Fonts(page)
		if err != nil {
			return Finding{}, fmt.Errorf("page %d: %w", page, err)
		}
		for _, f := range fonts {
			e := FontEntry{
				Page:       page,
				Font:       f.BaseFont,
				Object:     f.Ref.Num,
				Subtype:    f.Subtype,
				Flags:      f.Flags,
				Embedded:   Embedded(f.Flags),
				Descriptor: f.HasDescriptor,
				FontFile:   f.HasFontFile,
				Status:     Ok,
			}
			if e.Font == "" {
				e.Font = f.Resource
			}
			switch {
			case !e.Embedded:
				e.Status = Anomaly
				e.Note = "not embedded - suspicious"
				missing++
			case !e.FontFile:
				e.Note = "embedded flag set without a font program"
			}
			entries = append(entries, e)
		}
	}
	if missing > 0 {
		return Finding{Status: Anomaly, Summary: fmt.Sprintf("%d font(s) not embedded", missing), Details: entries}, nil
	}
	return Finding{Status: Ok, Summary: "all fonts embedded", Details: entries}, nil
}
