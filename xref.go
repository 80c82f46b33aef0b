// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"context"
	"fmt"
	"sort"
)

// XRefCheck resolves every page content stream to its cross-reference
// position and reports objects that are shared or point at offset 0.
type XRefCheck struct{}

func (XRefCheck) Name() string { return CheckXRef }

func (XRefCheck) Run(ctx context.Context, in *Input) (Finding, error) {
	positions := map[int][]int64{}
	var unresolved []string
	for page := 1; page <= in.Doc.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return Finding{}, err
		}
		refs, err := in.Doc.ContentRefs(page)
		if err != nil {
			unresolved = append(unresolved, fmt.Sprintf("page %d: %v", page, err))
			continue
		}
		for _, ref := range refs {
			off, err := in.Doc.ObjectOffset(ref)
			if err != nil {
				unresolved = append(unresolved, fmt.Sprintf("object %d not found or damaged: %v", ref.Num, err))
				continue
			}
			n := int(ref.Num)
			positions[n] = append(positions[n], off)
		}
	}

	errs := XRefErrors(positions, unresolved)
	if len(errs) > 0 {
		return Finding{Status: Anomaly, Summary: "cross-reference problems found", Details: errs}, nil
	}
	return Finding{Status: Ok, Summary: "cross-reference table consistent"}, nil
}

// XRefErrors derives the error list from the occurrence map, after the
// unresolved entries, in ascending object number order.
func XRefErrors(positions map[int][]int64, unresolved []string) []string {
	errs := append([]string(nil), unresolved...)
	nums := make([]int, 0, len(positions))
	for n := range positions {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		pos := positions[n]
		switch {
		case len(pos) > 1:
			errs = append(errs, fmt.Sprintf("object %d appears multiple times at positions %v", n, pos))
		case len(pos) == 1 && pos[0] == 0:
			errs = append(errs, fmt.Sprintf("object %d has invalid offset 0", n))
		}
	}
	return errs
}
