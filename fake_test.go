// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"context"
	"fmt"

	"github.com/sassoftware/viya-pdf-forensics/pdf"
)

// fakeDoc is a Document assembled field by field. Page-indexed slices
// are 0-based.
type fakeDoc struct {
	pages    int
	contents [][]pdf.ObjRef
	offsets  map[uint32]int64
	images   [][]pdf.ImageRef
	data     map[uint32][]byte
	stored   map[uint32][]byte
	fonts    [][]pdf.FontRef
	trailer  string
	info     map[string]string
	xmp      *pdf.XMP
	scripts  []pdf.ScriptAction
	version  string

	infoErr   error
	scriptErr error
	panicOn   string
	closed    bool
}

func (d *fakeDoc) NumPage() int { return d.pages }

func (d *fakeDoc) ContentRefs(page int) ([]pdf.ObjRef, error) {
	if page > len(d.contents) {
		return nil, nil
	}
	return d.contents[page-1], nil
}

func (d *fakeDoc) Images(page int) ([]pdf.ImageRef, error) {
	if page > len(d.images) {
		return nil, nil
	}
	return d.images[page-1], nil
}

func (d *fakeDoc) ImageData(ref pdf.ObjRef) ([]byte, error) {
	b, ok := d.data[ref.Num]
	if !ok {
		return nil, pdf.ErrUnresolved
	}
	return b, nil
}

func (d *fakeDoc) StoredData(ref pdf.ObjRef) ([]byte, error) {
	b, ok := d.stored[ref.Num]
	if !ok {
		return nil, pdf.ErrUnresolved
	}
	return b, nil
}

func (d *fakeDoc) Fonts(page int) ([]pdf.FontRef, error) {
	if d.panicOn == "Fonts" {
		panic("broken font table")
	}
	if page > len(d.fonts) {
		return nil, nil
	}
	return d.fonts[page-1], nil
}

func (d *fakeDoc) ObjectOffset(ref pdf.ObjRef) (int64, error) {
	off, ok := d.offsets[ref.Num]
	if !ok {
		return 0, fmt.Errorf("%w: %v", pdf.ErrUnresolved, ref)
	}
	return off, nil
}

func (d *fakeDoc) TrailerText() string { return d.trailer }

func (d *fakeDoc) Info() (map[string]string, error) { return d.info, d.infoErr }

func (d *fakeDoc) XMP() (pdf.XMP, bool, error) {
	if d.xmp == nil {
		return pdf.XMP{}, false, nil
	}
	return *d.xmp, true, nil
}

func (d *fakeDoc) ScriptActions() ([]pdf.ScriptAction, error) { return d.scripts, d.scriptErr }

func (d *fakeDoc) Version() string { return d.version }

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

// fakeValidator returns a fixed result.
type fakeValidator struct {
	diag string
	err  error
}

func (v fakeValidator) Validate(context.Context, string) (string, error) {
	return v.diag, v.err
}

func fakeInput(doc Document) *Input {
	return NewInput("fake.pdf", doc)
}
