// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrBadDate is returned for strings that are not PDF or XMP dates.
var ErrBadDate = errors.New("invalid date")

// ParseDate parses a PDF date string (ISO 32000-1 §7.9.4):
//
//	D:YYYYMMDDHHmmSSOHH'mm'
//
// Every field after the year is optional. The "D:" prefix and the
// apostrophes are tolerated when missing; an absent offset means UTC.
func ParseDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "D:")
	digits := 0
	for digits < len(v) && digits < 14 && v[digits] >= '0' && v[digits] <= '9' {
		digits++
	}
	if digits < 4 || digits%2 != 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	field := func(i, def int) int {
		if 4+2*i+2 > digits {
			return def
		}
		n, _ := strconv.Atoi(v[4+2*i : 4+2*i+2])
		return n
	}
	year, _ := strconv.Atoi(v[:4])
	month, day := field(0, 1), field(1, 1)
	hour, minute, sec := field(2, 0), field(3, 0), field(4, 0)
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 60 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}

	loc := time.UTC
	rest := v[digits:]
	if rest != "" {
		switch rest[0] {
		case 'Z', 'z':
		case '+', '-':
			tz := strings.ReplaceAll(rest[1:], "'", "")
			if len(tz) < 2 {
				return time.Time{}, fmt.Errorf("%w: bad offset in %q", ErrBadDate, s)
			}
			oh, err := strconv.Atoi(tz[:2])
			if err != nil {
				return time.Time{}, fmt.Errorf("%w: bad offset in %q", ErrBadDate, s)
			}
			om := 0
			if len(tz) >= 4 {
				if om, err = strconv.Atoi(tz[2:4]); err != nil {
					return time.Time{}, fmt.Errorf("%w: bad offset in %q", ErrBadDate, s)
				}
			}
			off := oh*3600 + om*60
			if rest[0] == '-' {
				off = -off
			}
			loc = time.FixedZone("", off)
		default:
			return time.Time{}, fmt.Errorf("%w: trailing %q", ErrBadDate, rest)
		}
	}
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc), nil
}

var xmpLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseXMPDate parses the ISO 8601 subset used by XMP date properties.
// Values without an offset are taken as UTC.
func ParseXMPDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range xmpLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}
