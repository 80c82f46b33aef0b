// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf

import (
	"bytes"
	"encoding/ascii85"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/hhrutter/lzw"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/viya-pdf-forensics/internal/pdftest"
)

func newTestReader(t *testing.T, data []byte) *Reader {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

// objectAt returns the offset of the last "n 0 obj" header in data.
func objectAt(data []byte, n int) int64 {
	return int64(bytes.LastIndex(data, []byte(fmt.Sprintf("\n%d 0 obj", n))) + 1)
}

func TestNewReader_EmptyFile(t *testing.T) {
	var b bytes.Reader
	_, err := NewReader(&b, 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPDF)
	assert.Contains(t, err.Error(), "empty")
}

func TestCheckHeader(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"plain", "%PDF-1.7\n", false},
		{"leading garbage", "\xef\xbb\xbf%PDF-1.4\r\n", false},
		{"pdf 2.0", "%PDF-2.0\n", false},
		{"missing header", "hello world", true},
		{"unsupported version", "%PDF-3.1\n", true},
		{"malformed version", "%PDF-x\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckHeader(strings.NewReader(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotPDF)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateEOFMarker(t *testing.T) {
	ok := []byte("%PDF-1.7\n...\n%%EOF \r\n")
	assert.NoError(t, ValidateEOFMarker(bytes.NewReader(ok), int64(len(ok))))

	bad := []byte("%PDF-1.7\n...\n")
	err := ValidateEOFMarker(bytes.NewReader(bad), int64(len(bad)))
	assert.ErrorIs(t, err, ErrMalformed)
}

type errReaderAt struct{}

func (e errReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return 0, errors.New("read failure")
}

func TestFindStartXref(t *testing.T) {
	data := pdftest.Minimal().Bytes()
	got, err := FindStartXref(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(bytes.LastIndex(data, []byte("\nxref\n"))+1), got)
}

func TestFindStartXref_ErrorCases(t *testing.T) {
	t.Run("read error", func(t *testing.T) {
		_, err := FindStartXref(errReaderAt{}, 100)
		assert.Error(t, err)
	})
	t.Run("missing startxref", func(t *testing.T) {
		data := []byte("%PDF-1.7\n" + strings.Repeat("A", 150) + "\n%%EOF")
		_, err := FindStartXref(bytes.NewReader(data), int64(len(data)))
		assert.ErrorIs(t, err, ErrMalformed)
	})
	t.Run("not followed by integer", func(t *testing.T) {
		data := []byte("%PDF-1.7\n" + strings.Repeat("A", 120) + "\nstartxref\nnotanumber\n%%EOF")
		_, err := FindStartXref(bytes.NewReader(data), int64(len(data)))
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestDecodeInt(t *testing.T) {
	assert.Equal(t, 0, decodeInt([]byte{}))
	assert.Equal(t, 0x7F, decodeInt([]byte{0x7F}))
	assert.Equal(t, 66051, decodeInt([]byte{0x01, 0x02, 0x03}))
}

func TestEnsureLenAndSetIfEmpty(t *testing.T) {
	s := ensureLen([]int{1, 2}, 5)
	require.Len(t, s, 5)
	assert.Equal(t, []int{1, 2, 0, 0, 0}, s)

	table := []xref{}
	setIfEmpty(&table, 3, xref{ptr: objptr{1, 0}})
	require.Len(t, table, 4)
	assert.Equal(t, uint32(1), table[3].ptr.id)
	// newer entries are never overwritten by older sections
	setIfEmpty(&table, 3, xref{ptr: objptr{2, 0}})
	assert.Equal(t, uint32(1), table[3].ptr.id)
}

func TestMergeXrefTables(t *testing.T) {
	dest := []xref{{}, {ptr: objptr{1, 0}, offset: 10}}
	src := []xref{
		{},
		{ptr: objptr{1, 1}, offset: 1000},
		{ptr: objptr{2, 0}, offset: 200},
	}
	merged := mergeXrefTables(dest, src)
	require.Len(t, merged, 3)
	assert.Equal(t, int64(10), merged[1].offset, "existing entry kept")
	assert.Equal(t, int64(200), merged[2].offset, "empty slot filled")
}

func TestParseXrefStreamObject_ErrorPaths(t *testing.T) {
	inputs := map[string]string{
		"not objdef": "123\n",
		"not stream": "1 0 obj\n42\nendobj\n",
		"wrong type": "1 0 obj\n<< /Type /NotXRef /Length 1 >>\nstream\nx\nendstream\nendobj\n",
	}
	for label, in := range inputs {
		t.Run(label, func(t *testing.T) {
			b := newBuffer(strings.NewReader(in), 0)
			b.allowEOF = true
			_, _, err := parseXrefStreamObject(b)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestReadXrefTableData(t *testing.T) {
	in := "0 3\n0000000000 65535 f\r\n0000000017 00000 n\r\n0000000081 00002 n\r\ntrailer"
	b := newBuffer(strings.NewReader(in), 0)
	b.allowEOF = true
	table, err := readXrefTableData(b, nil)
	require.NoError(t, err)
	require.Len(t, table, 3)
	assert.Equal(t, xref{ptr: objptr{1, 0}, offset: 17}, table[1])
	assert.Equal(t, xref{ptr: objptr{2, 2}, offset: 81}, table[2])

	b = newBuffer(strings.NewReader("0 1\n0000000000 00000 x\ntrailer"), 0)
	b.allowEOF = true
	_, err = readXrefTableData(b, nil)
	assert.Error(t, err)
}

func TestResolvePrevXrefTables_ErrorCases(t *testing.T) {
	data := []byte("notxref\n")
	r := &Reader{f: bytes.NewReader(data), end: int64(len(data))}

	_, err := resolvePrevXrefTables(r, dict{name("Prev"): name("NotAnInt")}, nil)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = resolvePrevXrefTables(r, dict{name("Prev"): int64(3)}, nil)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = resolvePrevXrefTables(r, dict{name("Prev"): int64(0)}, nil)
	assert.ErrorIs(t, err, ErrMalformed, "offset 0 cannot hold an xref section")
}

func TestNewReader_Minimal(t *testing.T) {
	data := pdftest.Minimal().Bytes()
	r := newTestReader(t, data)

	root := r.Trailer().Key("Root")
	assert.Equal(t, "Catalog", root.Key("Type").Name())
	assert.Equal(t, int64(1), root.Key("Pages").Key("Count").Int64())
	assert.Len(t, r.Pages(), 1)

	off, ok := r.Offset(ObjRef{Num: pdftest.ContentObj})
	require.True(t, ok)
	assert.Equal(t, objectAt(data, pdftest.ContentObj), off)

	_, ok = r.Offset(ObjRef{Num: 0})
	assert.False(t, ok, "object 0 is always free")
	_, ok = r.Offset(ObjRef{Num: 99})
	assert.False(t, ok)
	_, ok = r.Offset(ObjRef{Num: pdftest.ContentObj, Gen: 3})
	assert.False(t, ok, "generation must match")
}

func TestNewReader_IncrementalUpdate(t *testing.T) {
	b := pdftest.Minimal()
	b.Update()
	b.Set(pdftest.InfoObj, "<< /Producer (editor) /CreationDate (D:2024) /ModDate (D:2025) >>")
	data := b.Bytes()
	r := newTestReader(t, data)

	assert.Equal(t, "editor", r.Trailer().Key("Info").Key("Producer").Text())
	off, ok := r.Offset(ObjRef{Num: pdftest.InfoObj})
	require.True(t, ok)
	assert.Equal(t, objectAt(data, pdftest.InfoObj), off)

	// objects untouched by the update still come from the first section
	assert.Equal(t, "Catalog", r.Trailer().Key("Root").Key("Type").Name())
}

func TestNewReader_PrevLoop(t *testing.T) {
	b := pdftest.Minimal()
	data := b.Bytes()
	xrefAt := bytes.LastIndex(data, []byte("\nxref\n")) + 1
	looped := bytes.Replace(data, []byte("/Size 9"), []byte(fmt.Sprintf("/Prev %d /Size 9", xrefAt)), 1)
	// keep startxref pointing at the same section
	_, err := NewReader(bytes.NewReader(looped), int64(len(looped)))
	assert.ErrorIs(t, err, ErrMalformed)
}

// xrefStreamPDF builds a file whose cross-reference data is an xref stream
// and whose Info dictionary lives inside an object stream.
func xrefStreamPDF() ([]byte, map[int]int) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offs := map[int]int{}
	write := func(n int, body string) {
		offs[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}
	write(1, "<< /Type /Catalog /Pages 2 0 R >>")
	write(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	header := "4 0 "
	write(3, pdftest.Stream(fmt.Sprintf("/Type /ObjStm /N 1 /First %d", len(header)), []byte(header+"<< /Producer (packed) >>")))

	xrefAt := buf.Len()
	var rows []byte
	row := func(typ byte, f2 int, f3 byte) {
		rows = append(rows, typ, byte(f2>>8), byte(f2), f3)
	}
	row(0, 0, 0xff)
	row(1, offs[1], 0)
	row(1, offs[2], 0)
	row(1, offs[3], 0)
	row(2, 3, 0)
	row(1, xrefAt, 0)
	fmt.Fprintf(&buf, "5 0 obj\n%s\nendobj\n", pdftest.Stream("/Type /XRef /Size 6 /W [1 2 1] /Root 1 0 R /Info 4 0 R", rows))
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefAt)
	return buf.Bytes(), offs
}

func TestNewReader_XrefStreamAndObjectStream(t *testing.T) {
	data, offs := xrefStreamPDF()
	r := newTestReader(t, data)

	assert.Equal(t, "XRef", r.Trailer().Key("Type").Name())
	assert.Equal(t, "packed", r.Trailer().Key("Info").Key("Producer").Text())

	off, ok := r.Offset(ObjRef{Num: 4})
	require.True(t, ok)
	assert.Equal(t, int64(offs[3]), off, "packed objects report their container")
}

func resolveStream(t *testing.T, extra string, payload []byte) Value {
	t.Helper()
	b := pdftest.Minimal()
	n := b.AddStream(extra, payload)
	r := newTestReader(t, b.Bytes())
	v := r.resolve(objptr{}, objptr{uint32(n), 0})
	require.Equal(t, Stream, v.Kind())
	return v
}

func readAll(t *testing.T, rc io.ReadCloser) []byte {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return b
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var b bytes.Buffer
	zw := zlib.NewWriter(&b)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return b.Bytes()
}

func TestStreamFilters(t *testing.T) {
	var a85 bytes.Buffer
	aw := ascii85.NewEncoder(&a85)
	_, _ = aw.Write([]byte("ascii85 payload"))
	require.NoError(t, aw.Close())
	a85.WriteString("~>")

	var lz bytes.Buffer
	lw := lzw.NewWriter(&lz, true)
	_, _ = lw.Write([]byte("lzw payload lzw payload"))
	require.NoError(t, lw.Close())

	tests := []struct {
		name    string
		extra   string
		payload []byte
		want    []byte
	}{
		{"none", "", []byte("plain"), []byte("plain")},
		{"flate", "/Filter /FlateDecode", deflate(t, []byte("compressed payload")), []byte("compressed payload")},
		{"ascii85", "/Filter /ASCII85Decode", a85.Bytes(), []byte("ascii85 payload")},
		{"asciihex", "/Filter /AHx", []byte("48 65 6c6c 6f>"), []byte("Hello")},
		{"asciihex odd", "/Filter /ASCIIHexDecode", []byte("414>"), []byte("A@")},
		{"lzw", "/Filter /LZWDecode", lz.Bytes(), []byte("lzw payload lzw payload")},
		{"runlength", "/Filter /RunLengthDecode", []byte{2, 'a', 'b', 'c', 254, 'x', 128}, []byte("abcxxx")},
		{
			"png up",
			"/Filter /FlateDecode /DecodeParms << /Predictor 12 /Columns 2 >>",
			deflate(t, []byte{2, 1, 2, 2, 1, 1}),
			[]byte{1, 2, 2, 3},
		},
		{
			"png sub rgb",
			"/Filter /FlateDecode /DecodeParms << /Predictor 15 /Colors 3 /Columns 2 >>",
			deflate(t, []byte{1, 10, 20, 30, 1, 2, 3}),
			[]byte{10, 20, 30, 11, 22, 33},
		},
		{
			"png average",
			"/Filter /FlateDecode /DecodeParms << /Predictor 13 /Columns 2 >>",
			deflate(t, []byte{3, 4, 8, 3, 4, 1}),
			[]byte{4, 10, 6, 9},
		},
		{
			"png paeth",
			"/Filter /FlateDecode /DecodeParms << /Predictor 14 /Columns 3 >>",
			deflate(t, []byte{0, 5, 6, 7, 4, 1, 2, 1}),
			[]byte{5, 6, 7, 6, 8, 9},
		},
		{
			"png 4-bit gray",
			"/Filter /FlateDecode /DecodeParms << /Predictor 15 /BitsPerComponent 4 /Columns 3 >>",
			deflate(t, []byte{1, 0x12, 0x01}),
			[]byte{0x12, 0x13},
		},
		{
			"tiff",
			"/Filter /FlateDecode /DecodeParms << /Predictor 2 /Columns 3 >>",
			deflate(t, []byte{1, 1, 1, 2, 2, 2}),
			[]byte{1, 2, 3, 2, 4, 6},
		},
		{
			"filter array",
			"/Filter [/ASCIIHexDecode /FlateDecode] /DecodeParms [null << /Predictor 12 /Columns 2 >>]",
			[]byte(fmt.Sprintf("%x>", deflate(t, []byte{0, 7, 8}))),
			[]byte{7, 8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := resolveStream(t, tt.extra, tt.payload)
			assert.Equal(t, tt.want, readAll(t, v.Reader()))
			assert.Equal(t, tt.payload, readAll(t, v.RawReader()))
		})
	}
}

func TestStreamFilters_Errors(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		payload []byte
	}{
		{"unknown filter", "/Filter /FooDecode", []byte("x")},
		{"png row type", "/Filter /FlateDecode /DecodeParms << /Predictor 15 /Columns 1 >>", deflate(t, []byte{5, 1})},
		{"bits per component", "/Filter /FlateDecode /DecodeParms << /Predictor 15 /BitsPerComponent 3 >>", deflate(t, []byte{0, 1})},
		{"tiff 16-bit", "/Filter /FlateDecode /DecodeParms << /Predictor 2 /BitsPerComponent 16 >>", deflate(t, []byte{0, 1})},
		{"predictor", "/Filter /FlateDecode /DecodeParms << /Predictor 7 >>", deflate(t, []byte{0, 1})},
		{"huge row", "/Filter /FlateDecode /DecodeParms << /Predictor 15 /Colors 32 /Columns 99999999 >>", deflate(t, []byte{0, 1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := resolveStream(t, tt.extra, tt.payload)
			_, err := io.ReadAll(v.Reader())
			assert.Error(t, err)
		})
	}
}

func TestPaeth(t *testing.T) {
	tests := []struct{ a, b, c, want byte }{
		{0, 5, 0, 5},
		{6, 6, 5, 6},
		{8, 7, 6, 8},
		{1, 2, 3, 1},
		{10, 20, 15, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, paeth(tt.a, tt.b, tt.c), "paeth(%d, %d, %d)", tt.a, tt.b, tt.c)
	}
}

func TestTransportFiltersStopAtImageCodec(t *testing.T) {
	jpeg := []byte("\xff\xd8\xff\xe0 fake jpeg")
	hex := fmt.Sprintf("%x>", jpeg)
	v := resolveStream(t, "/Filter [/ASCIIHexDecode /DCTDecode]", []byte(hex))

	rc, stopped, err := v.decode(transportFilters)
	require.NoError(t, err)
	assert.True(t, stopped)
	assert.Equal(t, jpeg, readAll(t, rc))
}

func TestTrailerfmt(t *testing.T) {
	d := dict{
		name("ID"):   array{"\x8f\x1e", "\xab\xcd"},
		name("Root"): objptr{1, 0},
		name("Size"): int64(9),
	}
	assert.Equal(t, "<< /ID [ <8f1e> <abcd> ] /Root 1 0 R /Size 9 >>", trailerfmt(d))
}

func TestValueAccessors(t *testing.T) {
	r := newTestReader(t, pdftest.Minimal().Bytes())
	pages := r.Pages()
	require.Len(t, pages, 1)
	page := pages[0]

	ref, ok := page.V.RefKey("Contents")
	require.True(t, ok)
	assert.Equal(t, ObjRef{Num: pdftest.ContentObj}, ref)
	assert.Equal(t, "4 0 R", ref.String())

	box := page.V.Key("MediaBox")
	assert.Equal(t, Array, box.Kind())
	assert.Equal(t, 4, box.Len())
	assert.Equal(t, 612.0, box.Index(2).Float64())
	assert.True(t, box.Index(9).IsNull())
	assert.Equal(t, ObjRef{Num: pdftest.PageObj}, page.V.Ref())
	assert.Equal(t, []string{"F1"}, page.Fonts())
	assert.Equal(t, "Demo", page.Font("F1").BaseFont())
}
