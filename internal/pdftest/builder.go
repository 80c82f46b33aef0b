// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package pdftest builds small synthetic PDF files for tests. Offsets in
// the generated cross-reference tables are exact unless overridden, and
// revisions can be appended as incremental updates.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

type revision struct {
	order  []int
	bodies map[int]string
	forced map[int]int64
}

// Builder assembles a PDF one object at a time.
type Builder struct {
	Version string
	// Trailer holds extra trailer entries in PDF syntax, for example
	// "/ID [<ab> <ab>]". It is written after every revision.
	Trailer []string

	revs []*revision
	next int
	root int
	info int
}

// New returns an empty builder for a PDF 1.7 file.
func New() *Builder {
	b := &Builder{Version: "1.7", next: 1}
	b.Update()
	return b
}

// Update starts a new revision. Objects added or replaced afterwards are
// written in an incremental section after the previous %%EOF.
func (b *Builder) Update() *Builder {
	b.revs = append(b.revs, &revision{bodies: map[int]string{}, forced: map[int]int64{}})
	return b
}

func (b *Builder) cur() *revision {
	return b.revs[len(b.revs)-1]
}

// Add appends an object and returns its number.
func (b *Builder) Add(body string) int {
	n := b.next
	b.next++
	b.Set(n, body)
	return n
}

// Set writes body as object n in the current revision.
func (b *Builder) Set(n int, body string) {
	r := b.cur()
	if _, ok := r.bodies[n]; !ok {
		r.order = append(r.order, n)
	}
	r.bodies[n] = body
	if n >= b.next {
		b.next = n + 1
	}
}

// AddStream appends a stream object. extra is spliced into the stream
// dictionary; /Length is computed.
func (b *Builder) AddStream(extra string, data []byte) int {
	n := b.next
	b.next++
	b.SetStream(n, extra, data)
	return n
}

// SetStream writes a stream object n in the current revision.
func (b *Builder) SetStream(n int, extra string, data []byte) {
	b.Set(n, Stream(extra, data))
}

// Stream renders a stream object body.
func Stream(extra string, data []byte) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", extra, len(data), data)
}

// ForceOffset records off in the current revision's xref entry for n
// instead of the real position.
func (b *Builder) ForceOffset(n int, off int64) {
	b.cur().forced[n] = off
}

// SetRoot names the catalog object.
func (b *Builder) SetRoot(n int) { b.root = n }

// SetInfo names the document information dictionary.
func (b *Builder) SetInfo(n int) { b.info = n }

// Bytes renders the file.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", b.Version)
	prev := int64(-1)
	for i, r := range b.revs {
		offs := map[int]int64{}
		for _, n := range r.order {
			offs[n] = int64(buf.Len())
			fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, r.bodies[n])
		}
		for n, off := range r.forced {
			offs[n] = off
		}
		xrefAt := int64(buf.Len())
		buf.WriteString("xref\n")
		if i == 0 {
			fmt.Fprintf(&buf, "0 %d\n", b.next)
			buf.WriteString("0000000000 65535 f\r\n")
			for n := 1; n < b.next; n++ {
				if off, ok := offs[n]; ok {
					fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
				} else {
					buf.WriteString("0000000000 00001 f\r\n")
				}
			}
		} else {
			nums := make([]int, 0, len(offs))
			for n := range offs {
				nums = append(nums, n)
			}
			sort.Ints(nums)
			for _, n := range nums {
				fmt.Fprintf(&buf, "%d 1\n%010d 00000 n\r\n", n, offs[n])
			}
		}
		buf.WriteString("trailer\n<< ")
		fmt.Fprintf(&buf, "/Size %d", b.next)
		if b.root > 0 {
			fmt.Fprintf(&buf, " /Root %d 0 R", b.root)
		}
		if b.info > 0 {
			fmt.Fprintf(&buf, " /Info %d 0 R", b.info)
		}
		for _, e := range b.Trailer {
			buf.WriteString(" " + e)
		}
		if prev >= 0 {
			fmt.Fprintf(&buf, " /Prev %d", prev)
		}
		buf.WriteString(" >>\n")
		fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefAt)
		prev = xrefAt
	}
	return buf.Bytes()
}

// WriteFile renders the file into dir/name and returns its path.
func (b *Builder) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
