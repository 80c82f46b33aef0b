// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import "errors"

var (
	// ErrOpen is returned when a file cannot be parsed as a PDF.
	ErrOpen = errors.New("cannot open document")

	// ErrToolUnavailable is returned by a structural validator that
	// cannot run at all.
	ErrToolUnavailable = errors.New("validator not available")

	// ErrInvalidConfig is returned for a Config that fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)
