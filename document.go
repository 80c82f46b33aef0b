// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"os"
	"sync"

	"github.com/sassoftware/viya-pdf-forensics/pdf"
)

// Document is the read-only view of an open PDF that the checks use.
// *pdf.Document implements it.
type Document interface {
	NumPage() int
	ContentRefs(page int) ([]pdf.ObjRef, error)
	Images(page int) ([]pdf.ImageRef, error)
	ImageData(ref pdf.ObjRef) ([]byte, error)
	StoredData(ref pdf.ObjRef) ([]byte, error)
	Fonts(page int) ([]pdf.FontRef, error)
	ObjectOffset(ref pdf.ObjRef) (int64, error)
	TrailerText() string
	Info() (map[string]string, error)
	XMP() (pdf.XMP, bool, error)
	ScriptActions() ([]pdf.ScriptAction, error)
	Version() string
	Close() error
}

// Opener opens the file at path.
type Opener func(path string) (Document, error)

// OpenPDF is the default Opener.
func OpenPDF(path string) (Document, error) {
	d, err := pdf.OpenDocument(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Input is what a check sees of one file: its path, the open document and
// the raw bytes, read on first use and shared by every check.
type Input struct {
	Path string
	Doc  Document

	once sync.Once
	data []byte
	err  error
}

func NewInput(path string, doc Document) *Input {
	return &Input{Path: path, Doc: doc}
}

// Bytes returns the whole file.
func (in *Input) Bytes() ([]byte, error) {
	in.once.Do(func() {
		in.data, in.err = os.ReadFile(in.Path)
	})
	return in.data, in.err
}
