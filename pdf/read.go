// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package pdf implements read-only access to the structure of PDF files.
//
// # Overview
//
// A PDF is a data structure built from Values, each of which has one of
// the following Kinds:
//
//	Null, for the null object.
//	Integer, for an integer.
//	Real, for a floating-point number.
//	Bool, for a boolean value.
//	Name, for a name constant (as in /Helvetica).
//	String, for a string constant.
//	Dict, for a dictionary of name-value pairs.
//	Array, for an array of values.
//	Stream, for an opaque data stream and associated header dictionary.
//
// The accessors on Value (Int64, Name, Key, Index and so on) return a zero
// result when the Value has a different kind. That makes it possible to
// traverse a file quickly without error checking, at the cost of mistakes
// going unreported.
//
// Indirect objects are resolved lazily through the cross-reference table.
// Resolution of a damaged object panics; the Document methods used by the
// forensic checks convert those panics into errors.
//
// The package never modifies the file it reads.
package pdf

import (
	"bytes"
	"encoding/ascii85"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/hhrutter/lzw"
	"github.com/klauspost/compress/zlib"
	cpufilter "github.com/pdfcpu/pdfcpu/pkg/filter"

	"github.com/sassoftware/viya-pdf-forensics/logger"
)

var (
	// ErrNotPDF is returned when the input lacks a usable %PDF- header.
	ErrNotPDF = errors.New("not a PDF file")

	// ErrMalformed is returned when the file trailer or cross-reference
	// data cannot be read.
	ErrMalformed = errors.New("malformed PDF")
)

// A Reader is a single PDF file open for reading.
type Reader struct {
	f          io.ReaderAt
	end        int64
	xref       []xref
	trailer    dict
	trailerptr objptr
	startxref  int64
}

type xref struct {
	ptr      objptr
	inStream bool
	stream   objptr
	offset   int64
}

// Open opens the named file and returns it along with a Reader for it.
// The caller closes the returned file.
func Open(file string) (*os.File, *Reader, error) {
	logger.Debug("Open file", true)
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	logger.Debug(fmt.Sprintf("document: file:%s -- opened (size=%d)", file, fi.Size()), true)
	reader, err := NewReader(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, reader, nil
}

// NewReader opens a file for reading, using the data in f with the given total size.
func NewReader(f io.ReaderAt, size int64) (r *Reader, err error) {
	defer func() {
		if e := recover(); e != nil {
			r, err = nil, fmt.Errorf("%w: %v", ErrMalformed, e)
		}
	}()

	logger.Debug("Checking Header", true)
	if err := CheckHeader(f); err != nil {
		return nil, err
	}

	logger.Debug("Checking End of file Marker", true)
	if err := ValidateEOFMarker(f, size); err != nil {
		return nil, err
	}

	startxref, err := FindStartXref(f, size)
	if err != nil {
		return nil, err
	}
	if startxref <= 0 || startxref >= size {
		return nil, fmt.Errorf("%w: startxref %d out of range", ErrMalformed, startxref)
	}

	r = &Reader{f: f, end: size, startxref: startxref}
	b := newBuffer(io.NewSectionReader(r.f, startxref, r.end-startxref), startxref)
	table, trailerptr, trailer, err := readXref(r, b)
	if err != nil {
		return nil, err
	}
	r.xref = table
	r.trailer = trailer
	r.trailerptr = trailerptr

	return r, nil
}

// CheckHeader validates the PDF header at the beginning of the file.
// The "%PDF-x.y" token may be preceded by a little garbage (a BOM for example).
func CheckHeader(f io.ReaderAt) error {
	buf := make([]byte, 1024)
	n, err := f.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%w: read error: %v", ErrNotPDF, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: empty", ErrNotPDF)
	}
	buf = buf[:n]
	p := bytes.Index(buf, []byte("%PDF-"))
	if p < 0 {
		return fmt.Errorf("%w: missing %%PDF- header", ErrNotPDF)
	}
	var major, minor int
	if _, err := fmt.Sscanf(string(headerLine(buf[p:])), "%%PDF-%d.%d", &major, &minor); err != nil {
		return fmt.Errorf("%w: malformed version", ErrNotPDF)
	}
	if !(major == 1 && minor >= 0 && minor <= 7) && !(major == 2 && minor == 0) {
		return fmt.Errorf("%w: unsupported PDF version %d.%d", ErrNotPDF, major, minor)
	}
	logger.Debug(fmt.Sprintf("header: PDF-%d.%d", major, minor), true)
	return nil
}

// headerLine returns the first line of buf, trimmed of trailing padding.
func headerLine(buf []byte) []byte {
	if end := bytes.IndexAny(buf, "\r\n"); end >= 0 {
		buf = buf[:end]
	}
	return bytes.TrimRight(buf, " \t\x00")
}

// tail returns up to n bytes from the end of f.
func tail(f io.ReaderAt, size int64, n int64) ([]byte, int64, error) {
	if n > size {
		n = size
	}
	buf := make([]byte, n)
	got, err := f.ReadAt(buf, size-n)
	if err != nil && err != io.EOF {
		return nil, 0, err
	}
	return buf[:got], size - n, nil
}

// ValidateEOFMarker checks that the file ends with "%%EOF",
// tolerating trailing whitespace.
func ValidateEOFMarker(f io.ReaderAt, size int64) error {
	logger.Debug("checking for EOF")
	buf, _, err := tail(f, size, 1024)
	if err != nil {
		return fmt.Errorf("%w: read error: %v", ErrMalformed, err)
	}
	buf = bytes.TrimRight(buf, "\r\n\t \x00")
	if !bytes.HasSuffix(buf, []byte("%%EOF")) {
		return fmt.Errorf("%w: missing %%%%EOF", ErrMalformed)
	}
	return nil
}

// FindStartXref locates and parses the last "startxref" pointer near the end
// of the file and returns the byte offset of the cross-reference section.
func FindStartXref(f io.ReaderAt, size int64) (int64, error) {
	buf, base, err := tail(f, size, 1024)
	if err != nil {
		return 0, fmt.Errorf("%w: read error: %v", ErrMalformed, err)
	}
	i := findLastLine(buf, "startxref")
	if i < 0 {
		return 0, fmt.Errorf("%w: missing final startxref", ErrMalformed)
	}
	pos := base + int64(i)
	b := newBuffer(io.NewSectionReader(f, pos, size-pos), pos)
	b.allowEOF = true
	if tok := b.readToken(); tok != keyword("startxref") {
		return 0, fmt.Errorf("%w: missing startxref, found %v", ErrMalformed, tok)
	}
	startxref, ok := b.readToken().(int64)
	if !ok {
		return 0, fmt.Errorf("%w: startxref not followed by integer", ErrMalformed)
	}
	logger.Debug(fmt.Sprintf("xref: FindStartXref -- startxref=%d", startxref), true)
	return startxref, nil
}

// Trailer returns the file's Trailer value.
func (r *Reader) Trailer() Value {
	return Value{r, r.trailerptr, r.trailer}
}

func readXref(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	tok := b.readToken()
	if tok == keyword("xref") {
		logger.Debug("Found Xref Table", true)
		return readXrefTable(r, b)
	}
	if _, ok := tok.(int64); ok {
		b.unreadToken(tok)
		logger.Debug("Found Xref Stream", true)
		return readXrefStream(r, b)
	}
	return nil, objptr{}, nil, fmt.Errorf("%w: cross-reference table nor stream found: %v", ErrMalformed, tok)
}

func readXrefStream(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	strmptr, strm, err := parseXrefStreamObject(b)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	size, ok := strm.hdr["Size"].(int64)
	if !ok {
		return nil, objptr{}, nil, fmt.Errorf("%w: xref stream missing Size", ErrMalformed)
	}
	table := make([]xref, size)
	table, err = readXrefStreamData(r, strm, table, size)
	if err != nil {
		return nil, objptr{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	table, err = mergePrevXrefStreams(r, strm, table, size)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	return table, strmptr, strm.hdr, nil
}

// parseXrefStreamObject reads one object from b, ensuring it is an /XRef stream.
func parseXrefStreamObject(b *buffer) (objptr, stream, error) {
	obj := b.readObject()
	od, ok := obj.(objdef)
	if !ok {
		return objptr{}, stream{}, fmt.Errorf("%w: objdef not found: %v", ErrMalformed, objfmt(obj))
	}
	strm, ok := od.obj.(stream)
	if !ok {
		return objptr{}, stream{}, fmt.Errorf("%w: cross-reference stream not found: %v", ErrMalformed, objfmt(od))
	}
	if strm.hdr["Type"] != name("XRef") {
		return objptr{}, stream{}, fmt.Errorf("%w: xref stream does not have type XRef", ErrMalformed)
	}
	return od.ptr, strm, nil
}

// mergePrevXrefStreams follows the /Prev chain of xref streams; newer entries win.
func mergePrevXrefStreams(r *Reader, cur stream, table []xref, maxSize int64) ([]xref, error) {
	seen := map[int64]bool{}
	for prevoff := cur.hdr["Prev"]; prevoff != nil; {
		off, ok := prevoff.(int64)
		if !ok {
			return nil, fmt.Errorf("%w: xref Prev is not integer: %v", ErrMalformed, prevoff)
		}
		if seen[off] || off <= 0 || off >= r.end {
			return nil, fmt.Errorf("%w: xref Prev loop or out of range at %d", ErrMalformed, off)
		}
		seen[off] = true
		logger.Debug(fmt.Sprintf("found Prev stream with offset %d", off), true)
		b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
		_, prev, err := parseXrefStreamObject(b)
		if err != nil {
			return nil, err
		}
		psize, _ := prev.hdr["Size"].(int64)
		if psize > maxSize {
			return nil, fmt.Errorf("%w: xref prev stream larger than last stream", ErrMalformed)
		}
		if table, err = readXrefStreamData(r, prev, table, psize); err != nil {
			return nil, fmt.Errorf("%w: reading xref prev stream: %v", ErrMalformed, err)
		}
		prevoff = prev.hdr["Prev"]
	}
	return table, nil
}

func readXrefStreamData(r *Reader, strm stream, table []xref, size int64) ([]xref, error) {
	index, _ := strm.hdr["Index"].(array)
	if index == nil {
		index = array{int64(0), size}
	}
	if len(index)%2 != 0 {
		return nil, fmt.Errorf("invalid Index array %v", objfmt(index))
	}
	ww, ok := strm.hdr["W"].(array)
	if !ok {
		return nil, errors.New("xref stream missing W array")
	}
	var w []int
	for _, x := range ww {
		i, ok := x.(int64)
		if !ok || i < 0 || int64(int(i)) != i {
			return nil, fmt.Errorf("invalid W array %v", objfmt(ww))
		}
		w = append(w, int(i))
	}
	if len(w) < 3 {
		return nil, fmt.Errorf("invalid W array %v", objfmt(ww))
	}

	v := Value{r, objptr{}, strm}
	buf := make([]byte, w[0]+w[1]+w[2])
	data := v.Reader()
	defer data.Close()
	for len(index) > 0 {
		start, ok1 := index[0].(int64)
		n, ok2 := index[1].(int64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("malformed Index pair %v %v", objfmt(index[0]), objfmt(index[1]))
		}
		index = index[2:]
		for i := 0; i < int(n); i++ {
			if _, err := io.ReadFull(data, buf); err != nil {
				return nil, fmt.Errorf("error reading xref stream: %v", err)
			}
			v1 := decodeInt(buf[0:w[0]])
			if w[0] == 0 {
				v1 = 1
			}
			v2 := decodeInt(buf[w[0] : w[0]+w[1]])
			v3 := decodeInt(buf[w[0]+w[1]:])
			x := int(start) + i
			table = ensureLen(table, x+1)
			if table[x].ptr != (objptr{}) {
				continue
			}
			switch v1 {
			case 0:
				table[x] = xref{ptr: objptr{0, 65535}}
			case 1:
				table[x] = xref{ptr: objptr{uint32(x), uint16(v3)}, offset: int64(v2)}
			case 2:
				table[x] = xref{ptr: objptr{uint32(x), 0}, inStream: true, stream: objptr{uint32(v2), 0}, offset: int64(v3)}
			default:
				logger.Debug(fmt.Sprintf("invalid xref stream type %d: %x", v1, buf))
			}
		}
	}
	return table, nil
}

func decodeInt(b []byte) int {
	x := 0
	for _, c := range b {
		x = x<<8 | int(c)
	}
	return x
}

func readXrefTable(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	table, trailer, err := parseXrefTableAndTrailer(b, nil)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	newest := trailer

	// hybrid files carry an /XRefStm next to the classic table
	table = r.handleTrailerXRefStm(table, trailer)

	table, err = resolvePrevXrefTables(r, trailer, table)
	if err != nil {
		return nil, objptr{}, nil, err
	}

	size, ok := newest[name("Size")].(int64)
	if !ok {
		return nil, objptr{}, nil, fmt.Errorf("%w: trailer missing /Size entry", ErrMalformed)
	}
	if size < int64(len(table)) {
		table = table[:size]
	}
	return table, objptr{}, newest, nil
}

// parseXrefTableAndTrailer parses one xref table section and the trailer
// dictionary that follows it.
func parseXrefTableAndTrailer(b *buffer, table []xref) ([]xref, dict, error) {
	table, err := readXrefTableData(b, table)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	trailer, ok := b.readObject().(dict)
	if !ok {
		return nil, nil, fmt.Errorf("%w: xref table not followed by trailer dictionary", ErrMalformed)
	}
	return table, trailer, nil
}

func resolvePrevXrefTables(r *Reader, trailer dict, table []xref) ([]xref, error) {
	seen := map[int64]bool{}
	for prevoff := trailer[name("Prev")]; prevoff != nil; {
		off, ok := prevoff.(int64)
		if !ok {
			return nil, fmt.Errorf("%w: xref Prev is not integer: %v", ErrMalformed, prevoff)
		}
		if seen[off] || off <= 0 || off >= r.end {
			return nil, fmt.Errorf("%w: xref Prev loop or out of range at %d", ErrMalformed, off)
		}
		seen[off] = true
		logger.Debug(fmt.Sprintf("found Prev xref table at %d", off), true)
		b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
		if tok := b.readToken(); tok != keyword("xref") {
			return nil, fmt.Errorf("%w: xref Prev does not point to xref", ErrMalformed)
		}
		var err error
		table, trailer, err = parseXrefTableAndTrailer(b, table)
		if err != nil {
			return nil, err
		}
		table = r.handleTrailerXRefStm(table, trailer)
		prevoff = trailer[name("Prev")]
	}
	return table, nil
}

// ensureLen makes sure s has length at least n.
func ensureLen[T any](s []T, n int) []T {
	if n <= len(s) {
		return s
	}
	if cap(s) < n {
		ns := make([]T, n)
		copy(ns, s)
		return ns
	}
	return s[:n]
}

// setIfEmpty sets table[x] to val only if the slot is currently empty,
// so entries from newer sections are not overwritten by older ones.
func setIfEmpty(table *[]xref, x int, val xref) {
	if x < 0 {
		return
	}
	*table = ensureLen(*table, x+1)
	if (*table)[x].ptr == (objptr{}) {
		(*table)[x] = val
	}
}

func readXrefTableData(b *buffer, table []xref) ([]xref, error) {
	for {
		tok := b.readToken()
		if tok == keyword("trailer") {
			break
		}
		start, ok1 := tok.(int64)
		count, ok2 := b.readToken().(int64)
		if !ok1 || !ok2 || start < 0 || count < 0 {
			return nil, errors.New("malformed xref table subsection header")
		}
		for i := 0; i < int(count); i++ {
			off, okOff := b.readToken().(int64)
			gen, okGen := b.readToken().(int64)
			alloc, okAlloc := b.readToken().(keyword)
			if !okOff || !okGen || !okAlloc {
				return nil, fmt.Errorf("malformed xref entry at subsection starting %d", start)
			}
			idx := int(start) + i
			switch alloc {
			case keyword("n"):
				setIfEmpty(&table, idx, xref{ptr: objptr{uint32(idx), uint16(gen)}, offset: off})
			case keyword("f"):
				table = ensureLen(table, idx+1)
			default:
				return nil, fmt.Errorf("malformed xref table: unexpected alloc token %v", alloc)
			}
		}
	}
	return table, nil
}

// mergeXrefTables fills the empty slots of dest from src.
func mergeXrefTables(dest []xref, src []xref) []xref {
	dest = ensureLen(dest, len(src))
	for i, s := range src {
		if s.ptr == (objptr{}) {
			continue
		}
		if dest[i].ptr == (objptr{}) || dest[i].ptr.gen == 65535 {
			dest[i] = s
		}
	}
	return dest
}

var objHeaderRE = regexp.MustCompile(`^\d+\s+\d+\s+obj\b`)

// isLikelyObjectAt reports whether an object header begins at off.
func (r *Reader) isLikelyObjectAt(off int64) bool {
	if off <= 0 || off >= r.end {
		return false
	}
	buf := make([]byte, 64)
	n, err := r.f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return false
	}
	return objHeaderRE.Match(bytes.TrimLeft(buf[:n], " \t\r\n"))
}

// handleTrailerXRefStm merges the stream named by /XRefStm into table.
// A stream whose offsets mostly fail to land on object headers is ignored.
func (r *Reader) handleTrailerXRefStm(table []xref, trailer dict) []xref {
	off, ok := trailer[name("XRefStm")].(int64)
	if !ok || off <= 0 || off >= r.end {
		return table
	}
	logger.Debug("found XRefStm in trailer", true)
	b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
	src, _, _, err := readXrefStream(r, b)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to parse XRefStm at %d: %v", off, err))
		return table
	}
	total, invalid := 0, 0
	for _, e := range src {
		if e.ptr == (objptr{}) || e.inStream || e.ptr.gen == 65535 {
			continue
		}
		total++
		if !r.isLikelyObjectAt(e.offset) {
			invalid++
		}
	}
	if total > 0 && float64(invalid)/float64(total) > 0.30 {
		logger.Error(fmt.Sprintf("xref stream at %d appears invalid: %d/%d invalid entries", off, invalid, total))
		return table
	}
	return mergeXrefTables(table, src)
}

// findLastLine searches backwards in buf for the last occurrence of the
// keyword s that is followed by an end-of-line, allowing PDF whitespace
// (spaces, tabs, NULs) between the keyword and the line break.
func findLastLine(buf []byte, s string) int {
	bs := []byte(s)
	for end := len(buf); end > 0; {
		i := bytes.LastIndex(buf[:end], bs)
		if i < 0 {
			return -1
		}
		j := SkipWhitespace(buf, i+len(bs))
		if EndsWithEOL(buf, i+len(bs), j) {
			return i
		}
		end = i
	}
	return -1
}

var wsBits [4]uint64

func init() {
	for _, b := range []byte{0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20} {
		wsBits[b>>6] |= 1 << (b & 63)
	}
}

// isWhitespace reports whether b is one of the six whitespace characters
// defined by ISO 32000-1 §7.2.2: 00, 09, 0A, 0C, 0D, 20.
func isWhitespace(b byte) bool {
	return (wsBits[b>>6] & (1 << (b & 63))) != 0
}

// SkipWhitespace advances j past all PDF whitespace.
func SkipWhitespace(buf []byte, j int) int {
	for j < len(buf) && isWhitespace(buf[j]) {
		j++
	}
	return j
}

// EndsWithEOL reports whether the last skipped byte is CR or LF.
func EndsWithEOL(buf []byte, start, end int) bool {
	if end > start {
		last := buf[end-1]
		return last == '\n' || last == '\r'
	}
	return false
}

// A Value is a single PDF value, such as an integer, dictionary, or array.
// The zero Value is a PDF null (Kind() == Null, IsNull() = true).
type Value struct {
	r    *Reader
	ptr  objptr
	data interface{}
}

// IsNull reports whether the value is a null.
func (v Value) IsNull() bool {
	return v.data == nil
}

// A ValueKind specifies the kind of data underlying a Value.
type ValueKind int

// The PDF value kinds.
const (
	Null ValueKind = iota
	Bool
	Integer
	Real
	String
	Name
	Dict
	Array
	Stream
)

// Kind reports the kind of value underlying v.
func (v Value) Kind() ValueKind {
	switch v.data.(type) {
	default:
		return Null
	case bool:
		return Bool
	case int64:
		return Integer
	case float64:
		return Real
	case string:
		return String
	case name:
		return Name
	case dict:
		return Dict
	case array:
		return Array
	case stream:
		return Stream
	}
}

// Ref returns the indirect object v was loaded from, or the zero ObjRef
// for a direct object.
func (v Value) Ref() ObjRef {
	return ObjRef{Num: v.ptr.id, Gen: v.ptr.gen}
}

// String returns a textual representation of the value v.
// Note that String is not the accessor for values with Kind() == String;
// see RawString and Text.
func (v Value) String() string {
	return objfmt(v.data)
}

func objfmt(x interface{}) string {
	switch x := x.(type) {
	default:
		return fmt.Sprint(x)
	case nil:
		return "null"
	case string:
		return strconv.Quote(decodeText(x))
	case name:
		return "/" + string(x)
	case dict:
		var buf bytes.Buffer
		buf.WriteString("<<")
		for i, k := range sortedKeys(x) {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString("/" + k + " " + objfmt(x[name(k)]))
		}
		buf.WriteString(">>")
		return buf.String()
	case array:
		var buf bytes.Buffer
		buf.WriteString("[")
		for i, elem := range x {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString(objfmt(elem))
		}
		buf.WriteString("]")
		return buf.String()
	case stream:
		return fmt.Sprintf("%v@%d", objfmt(x.hdr), x.offset)
	case objptr:
		return fmt.Sprintf("%d %d R", x.id, x.gen)
	case objdef:
		return fmt.Sprintf("{%d %d obj}%v", x.ptr.id, x.ptr.gen, objfmt(x.obj))
	}
}

// trailerfmt renders x the way the trailer is conventionally printed:
// padded arrays and strings as hex literals.
func trailerfmt(x interface{}) string {
	switch x := x.(type) {
	case string:
		return "<" + hex.EncodeToString([]byte(x)) + ">"
	case dict:
		var buf bytes.Buffer
		buf.WriteString("<<")
		for _, k := range sortedKeys(x) {
			buf.WriteString(" /" + k + " " + trailerfmt(x[name(k)]))
		}
		buf.WriteString(" >>")
		return buf.String()
	case array:
		var buf bytes.Buffer
		buf.WriteString("[")
		for _, elem := range x {
			buf.WriteString(" " + trailerfmt(elem))
		}
		buf.WriteString(" ]")
		return buf.String()
	case stream:
		return trailerfmt(x.hdr)
	}
	return objfmt(x)
}

func sortedKeys(d dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// Bool returns v's boolean value, or false if v.Kind() != Bool.
func (v Value) Bool() bool {
	x, _ := v.data.(bool)
	return x
}

// Int64 returns v's int64 value, or 0 if v.Kind() != Integer.
func (v Value) Int64() int64 {
	x, _ := v.data.(int64)
	return x
}

// Float64 returns v's float64 value, converting from integer if necessary.
func (v Value) Float64() float64 {
	switch x := v.data.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	}
	return 0
}

// RawString returns v's string value, or "" if v.Kind() != String.
func (v Value) RawString() string {
	x, _ := v.data.(string)
	return x
}

// Text returns v's string value interpreted as a PDF text string
// (PDFDocEncoding or UTF-16 with byte order mark) converted to UTF-8.
func (v Value) Text() string {
	x, ok := v.data.(string)
	if !ok {
		return ""
	}
	return decodeText(x)
}

// Name returns v's name value without the leading slash,
// or "" if v.Kind() != Name.
func (v Value) Name() string {
	x, _ := v.data.(name)
	return string(x)
}

// Key returns the value associated with the given name key in the dictionary v.
// If v is a stream, Key applies to the stream's header dictionary.
// If v.Kind() != Dict and v.Kind() != Stream, Key returns a null Value.
func (v Value) Key(key string) Value {
	x := v.dict()
	if x == nil {
		return Value{}
	}
	return v.r.resolve(v.ptr, x[name(key)])
}

// RefKey returns the indirect reference stored under key without
// resolving it. ok is false when the entry is a direct object.
func (v Value) RefKey(key string) (ObjRef, bool) {
	x := v.dict()
	if x == nil {
		return ObjRef{}, false
	}
	p, ok := x[name(key)].(objptr)
	return ObjRef{Num: p.id, Gen: p.gen}, ok
}

func (v Value) dict() dict {
	switch x := v.data.(type) {
	case dict:
		return x
	case stream:
		return x.hdr
	}
	return nil
}

// Keys returns a sorted list of the keys in the dictionary v.
// If v is a stream, Keys applies to the stream's header dictionary.
func (v Value) Keys() []string {
	x := v.dict()
	if x == nil {
		return nil
	}
	return sortedKeys(x)
}

// Index returns the i'th element in the array v, or a null Value if v is
// not an array or i is out of bounds.
func (v Value) Index(i int) Value {
	x, ok := v.data.(array)
	if !ok || i < 0 || i >= len(x) {
		return Value{}
	}
	return v.r.resolve(v.ptr, x[i])
}

// RefIndex returns the unresolved reference at position i of the array v.
func (v Value) RefIndex(i int) (ObjRef, bool) {
	x, ok := v.data.(array)
	if !ok || i < 0 || i >= len(x) {
		return ObjRef{}, false
	}
	p, ok := x[i].(objptr)
	return ObjRef{Num: p.id, Gen: p.gen}, ok
}

// Len returns the length of the array v, or 0 if v is not an array.
func (v Value) Len() int {
	x, _ := v.data.(array)
	return len(x)
}

func (r *Reader) resolve(parent objptr, x interface{}) Value {
	if ptr, ok := x.(objptr); ok {
		if ptr.id >= uint32(len(r.xref)) {
			return Value{}
		}
		xref := r.xref[ptr.id]
		if xref.ptr != ptr || !xref.inStream && xref.offset == 0 {
			return Value{}
		}
		if xref.inStream {
			x = r.resolveInStream(parent, ptr, xref)
		} else {
			b := newBuffer(io.NewSectionReader(r.f, xref.offset, r.end-xref.offset), xref.offset)
			def, ok := b.readObject().(objdef)
			if !ok {
				panic(fmt.Errorf("loading %v: no object definition at offset %d", objfmt(ptr), xref.offset))
			}
			if def.ptr != ptr {
				panic(fmt.Errorf("loading %v: found %v", objfmt(ptr), objfmt(def.ptr)))
			}
			x = def.obj
		}
		parent = ptr
	}

	switch x := x.(type) {
	case nil, bool, int64, float64, name, dict, array, stream, string:
		return Value{r, parent, x}
	default:
		panic(fmt.Errorf("unexpected value type %T in resolve", x))
	}
}

func (r *Reader) resolveInStream(parent, ptr objptr, xref xref) object {
	strm := r.resolve(parent, xref.stream)
	for depth := 0; depth < 32; depth++ {
		if strm.Kind() != Stream || strm.Key("Type").Name() != "ObjStm" {
			panic(fmt.Errorf("loading %v: container %v is not an object stream", objfmt(ptr), objfmt(xref.stream)))
		}
		n := int(strm.Key("N").Int64())
		first := strm.Key("First").Int64()
		rd := strm.Reader()
		b := newBuffer(rd, 0)
		b.allowEOF = true
		for i := 0; i < n; i++ {
			id, _ := b.readToken().(int64)
			off, _ := b.readToken().(int64)
			if uint32(id) == ptr.id {
				b.seekForward(first + off)
				obj := b.readObject()
				rd.Close()
				return obj
			}
		}
		rd.Close()
		strm = strm.Key("Extends")
	}
	panic(fmt.Errorf("loading %v: not found in object stream", objfmt(ptr)))
}

// Offset returns the file position recorded for the object in the
// cross-reference data. Objects stored in an object stream report the
// position of their container. ok is false when the object has no
// in-use entry.
func (r *Reader) Offset(ref ObjRef) (off int64, ok bool) {
	if ref.Num >= uint32(len(r.xref)) {
		return 0, false
	}
	e := r.xref[ref.Num]
	if e.ptr == (objptr{}) || e.ptr.gen == 65535 || e.ptr != (objptr{ref.Num, ref.Gen}) {
		return 0, false
	}
	if e.inStream {
		if e.stream.id >= uint32(len(r.xref)) {
			return 0, false
		}
		return r.xref[e.stream.id].offset, true
	}
	return e.offset, true
}

type errorReadCloser struct {
	err error
}

func (e *errorReadCloser) Read([]byte) (int, error) {
	return 0, e.err
}

func (e *errorReadCloser) Close() error {
	return e.err
}

// Reader returns the decoded data contained in the stream v.
// If v.Kind() != Stream, Reader returns a ReadCloser that
// responds to all reads with a "stream not present" error.
func (v Value) Reader() io.ReadCloser {
	rd, _, err := v.decode(allFilters)
	if err != nil {
		return &errorReadCloser{err}
	}
	return rd
}

// RawReader returns the stream bytes exactly as stored in the file.
func (v Value) RawReader() io.ReadCloser {
	x, ok := v.data.(stream)
	if !ok {
		return &errorReadCloser{errors.New("stream not present")}
	}
	return io.NopCloser(io.NewSectionReader(v.r.f, x.offset, v.Key("Length").Int64()))
}

type filterSet int

const (
	allFilters filterSet = iota
	transportFilters
)

// imageFilters are codecs whose output is pixel data rather than bytes of
// the stored payload; decoding stops in front of them.
var imageFilters = map[string]bool{
	"DCTDecode":      true,
	"JPXDecode":      true,
	"CCITTFaxDecode": true,
	"JBIG2Decode":    true,
}

// decode applies the stream filters. With transportFilters it stops at the
// first image codec and reports stopped=true.
func (v Value) decode(set filterSet) (rc io.ReadCloser, stopped bool, err error) {
	x, ok := v.data.(stream)
	if !ok {
		return nil, false, errors.New("stream not present")
	}
	var rd io.Reader = io.NewSectionReader(v.r.f, x.offset, v.Key("Length").Int64())
	filter := v.Key("Filter")
	param := v.Key("DecodeParms")
	var names []string
	var params []Value
	switch filter.Kind() {
	case Null:
	case Name:
		names, params = []string{filter.Name()}, []Value{param}
	case Array:
		for i := 0; i < filter.Len(); i++ {
			names = append(names, filter.Index(i).Name())
			params = append(params, param.Index(i))
		}
	default:
		return nil, false, fmt.Errorf("unsupported filter %v", filter)
	}
	for i, f := range names {
		if set == transportFilters && imageFilters[f] {
			return io.NopCloser(rd), true, nil
		}
		if rd, err = applyFilter(rd, f, params[i]); err != nil {
			return nil, false, err
		}
	}
	return io.NopCloser(rd), false, nil
}

func applyFilter(rd io.Reader, name string, param Value) (io.Reader, error) {
	switch name {
	case "FlateDecode", "Fl":
		zr, err := zlib.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("FlateDecode: %w", err)
		}
		return newPredictReader(zr, param)
	case "LZWDecode", "LZW":
		early := param.Key("EarlyChange")
		return newPredictReader(lzw.NewReader(rd, early.IsNull() || early.Int64() == 1), param)
	case "RunLengthDecode", "RL":
		f, err := cpufilter.NewFilter(cpufilter.RunLength, nil)
		if err != nil {
			return nil, err
		}
		return f.Decode(rd)
	case "ASCII85Decode", "A85":
		return ascii85.NewDecoder(newAlphaReader(rd)), nil
	case "ASCIIHexDecode", "AHx":
		return &asciiHexReader{r: rd}, nil
	}
	return nil, fmt.Errorf("unknown filter %s", name)
}

// maxRowLen bounds the predictor row buffer for hostile /DecodeParms.
const maxRowLen = 1 << 24

func intParam(param Value, key string, def int64) int64 {
	if v := param.Key(key); v.Kind() == Integer {
		return v.Int64()
	}
	return def
}

// newPredictReader wraps rd to undo the /Predictor named in param, if any.
// Rows are ceil(Columns*Colors*BitsPerComponent/8) bytes wide.
func newPredictReader(rd io.Reader, param Value) (io.Reader, error) {
	pred := intParam(param, "Predictor", 1)
	if pred == 1 {
		return rd, nil
	}
	colors := intParam(param, "Colors", 1)
	bpc := intParam(param, "BitsPerComponent", 8)
	columns := intParam(param, "Columns", 1)
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("unsupported BitsPerComponent %d", bpc)
	}
	if colors < 1 || colors > 32 || columns < 1 {
		return nil, fmt.Errorf("invalid predictor parameters: Colors=%d Columns=%d", colors, columns)
	}
	rowLen := (columns*colors*bpc + 7) / 8
	if rowLen > maxRowLen {
		return nil, fmt.Errorf("predictor row of %d bytes is too large", rowLen)
	}
	bpp := int((colors*bpc + 7) / 8)
	switch {
	case pred == 2:
		if bpc != 8 {
			return nil, fmt.Errorf("unsupported TIFF predictor with BitsPerComponent %d", bpc)
		}
	case pred < 10:
		return nil, fmt.Errorf("unsupported predictor %d", pred)
	}
	return &predictReader{
		r:    rd,
		png:  pred >= 10,
		bpp:  bpp,
		cur:  make([]byte, 1+rowLen),
		prev: make([]byte, 1+rowLen),
	}, nil
}

// predictReader reverses PNG row filters (Predictor >= 10, one filter-type
// byte per row) and the TIFF horizontal predictor (Predictor 2, 8-bit
// components), which is PNG Sub applied to every row.
type predictReader struct {
	r    io.Reader
	png  bool
	bpp  int
	cur  []byte
	prev []byte
	pend []byte
}

func (p *predictReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(p.pend) > 0 {
			m := copy(b, p.pend)
			n += m
			b = b[m:]
			p.pend = p.pend[m:]
			continue
		}
		if p.png {
			if _, err := io.ReadFull(p.r, p.cur); err != nil {
				return n, err
			}
		} else {
			if _, err := io.ReadFull(p.r, p.cur[1:]); err != nil {
				return n, err
			}
			p.cur[0] = 1
		}
		if err := unfilterRow(p.cur[0], p.cur[1:], p.prev[1:], p.bpp); err != nil {
			return n, err
		}
		p.prev, p.cur = p.cur, p.prev
		p.pend = p.prev[1:]
	}
	return n, nil
}

// unfilterRow decodes row in place given the previous decoded row.
func unfilterRow(typ byte, row, up []byte, bpp int) error {
	switch typ {
	case 0:
	case 1:
		for i := bpp; i < len(row); i++ {
			row[i] += row[i-bpp]
		}
	case 2:
		for i := range row {
			row[i] += up[i]
		}
	case 3:
		for i := range row {
			var left int
			if i >= bpp {
				left = int(row[i-bpp])
			}
			row[i] += byte((left + int(up[i])) / 2)
		}
	case 4:
		for i := range row {
			var left, upLeft byte
			if i >= bpp {
				left, upLeft = row[i-bpp], up[i-bpp]
			}
			row[i] += paeth(left, up[i], upLeft)
		}
	default:
		return fmt.Errorf("unsupported PNG predictor row type %d", typ)
	}
	return nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// newAlphaReader strips the optional "<~" prefix and everything from the
// "~>" terminator on; encoding/ascii85 skips the remaining whitespace itself.
func newAlphaReader(r io.Reader) io.Reader {
	data, err := io.ReadAll(r)
	if err != nil {
		return &errorReadCloser{err}
	}
	data = bytes.TrimLeft(data, "\x00\t\n\f\r ")
	data = bytes.TrimPrefix(data, []byte("<~"))
	if i := bytes.Index(data, []byte("~>")); i >= 0 {
		data = data[:i]
	}
	return bytes.NewReader(data)
}

// asciiHexReader decodes ASCIIHexDecode data up to the ">" terminator.
type asciiHexReader struct {
	r    io.Reader
	half int
	done bool
	in   [256]byte
}

func (h *asciiHexReader) Read(p []byte) (int, error) {
	if h.done {
		return 0, io.EOF
	}
	n := 0
	for n == 0 {
		want := len(p) * 2
		if want > len(h.in) {
			want = len(h.in)
		}
		if want == 0 {
			return 0, nil
		}
		m, err := h.r.Read(h.in[:want])
		for _, c := range h.in[:m] {
			if c == '>' {
				if h.half > 0 {
					p[n] = byte(h.half-1) << 4
					n++
				}
				h.done = true
				return n, nil
			}
			x := unhex(c)
			if x < 0 {
				continue
			}
			if h.half == 0 {
				h.half = x + 1
				continue
			}
			p[n] = byte((h.half-1)<<4 | x)
			n++
			h.half = 0
		}
		if err != nil {
			if err == io.EOF {
				h.done = true
			}
			return n, err
		}
	}
	return n, nil
}
