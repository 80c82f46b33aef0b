// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdftest

// Object numbers used by Minimal.
const (
	CatalogObj    = 1
	PagesObj      = 2
	PageObj       = 3
	ContentObj    = 4
	FontObj       = 5
	DescriptorObj = 6
	FontFileObj   = 7
	InfoObj       = 8
)

// DocID is the file identifier Minimal writes for both /ID entries.
const DocID = "8f1e2d3c4b5a69788796a5b4c3d2e1f0"

// Date is the creation and modification date Minimal records.
const Date = "D:20240102030405+01'00'"

// Minimal returns a one-page document with an embedded TrueType font,
// matching /ID entries and identical Info dates. Callers may replace
// any object before rendering.
func Minimal() *Builder {
	b := New()
	b.Add("<< /Type /Catalog /Pages 2 0 R >>")
	b.Add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>")
	b.AddStream("", []byte("BT /F1 12 Tf 72 720 Td (Hello) Tj ET"))
	b.Add("<< /Type /Font /Subtype /TrueType /BaseFont /Demo /FontDescriptor 6 0 R >>")
	b.Add("<< /Type /FontDescriptor /FontName /Demo /Flags 36 /FontFile2 7 0 R >>")
	b.AddStream("", []byte("fontprogram"))
	b.Add("<< /Producer (pdftest) /Creator (pdftest) /CreationDate (" + Date + ") /ModDate (" + Date + ") >>")
	b.SetRoot(CatalogObj)
	b.SetInfo(InfoObj)
	b.Trailer = []string{"/ID [<" + DocID + "> <" + DocID + ">]"}
	return b
}
