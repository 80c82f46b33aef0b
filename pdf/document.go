// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sassoftware/viya-pdf-forensics/logger"
)

var (
	// ErrNoPage is returned for page numbers outside 1..NumPage.
	ErrNoPage = errors.New("page out of range")

	// ErrUnresolved is returned when an object has no in-use
	// cross-reference entry.
	ErrUnresolved = errors.New("unresolved object")
)

// ObjRef identifies an indirect object.
type ObjRef struct {
	Num uint32 `json:"num"`
	Gen uint16 `json:"gen"`
}

func (r ObjRef) String() string {
	return fmt.Sprintf("%d %d R", r.Num, r.Gen)
}

// FontRef describes one font resource of a page.
type FontRef struct {
	Resource      string `json:"resource"`
	BaseFont      string `json:"baseFont"`
	Subtype       string `json:"subtype"`
	Ref           ObjRef `json:"ref"`
	Flags         int64  `json:"flags"`
	HasDescriptor bool   `json:"hasDescriptor"`
	HasFontFile   bool   `json:"hasFontFile"`
}

// ImageRef describes one image XObject reachable from a page.
type ImageRef struct {
	Ref              ObjRef   `json:"ref"`
	Name             string   `json:"name"`
	Width            int64    `json:"width"`
	Height           int64    `json:"height"`
	ColorSpace       string   `json:"colorSpace,omitempty"`
	BitsPerComponent int64    `json:"bitsPerComponent,omitempty"`
	Filters          []string `json:"filters,omitempty"`
}

// ScriptAction is a JavaScript action found in the document.
type ScriptAction struct {
	Location string `json:"location"`
	Source   string `json:"-"`
}

// Document is an open PDF file with its page tree loaded.
type Document struct {
	file  *os.File
	r     *Reader
	pages []Page
}

// OpenDocument opens the named file and walks its page tree.
func OpenDocument(path string) (*Document, error) {
	f, r, err := Open(path)
	if err != nil {
		return nil, err
	}
	d, err := NewDocument(r)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.file = f
	return d, nil
}

// NewDocument wraps an existing Reader. The caller keeps ownership of the
// underlying data.
func NewDocument(r *Reader) (d *Document, err error) {
	defer catch(&err)
	d = &Document{r: r}
	d.pages = r.Pages()
	logger.Debug(fmt.Sprintf("document ready: pages=%d xref=%d", len(d.pages), len(r.xref)), true)
	return d, nil
}

// catch converts a panic raised during lazy object resolution into an error.
func catch(err *error) {
	if e := recover(); e != nil {
		logger.Error(fmt.Sprintf("recovered: %v", e))
		*err = fmt.Errorf("%w: %v", ErrMalformed, e)
	}
}

// NumPage returns the number of leaf pages in the page tree.
func (d *Document) NumPage() int {
	return len(d.pages)
}

func (d *Document) page(num int) (Page, error) {
	if num < 1 || num > len(d.pages) {
		return Page{}, fmt.Errorf("%w: %d", ErrNoPage, num)
	}
	return d.pages[num-1], nil
}

// ContentRefs returns the content stream references of page num.
func (d *Document) ContentRefs(num int) (refs []ObjRef, err error) {
	defer catch(&err)
	p, err := d.page(num)
	if err != nil {
		return nil, err
	}
	return p.ContentRefs(), nil
}

// Images returns the image XObjects used by page num, including those
// drawn by nested form XObjects.
func (d *Document) Images(num int) (images []ImageRef, err error) {
	defer catch(&err)
	p, err := d.page(num)
	if err != nil {
		return nil, err
	}
	seen := map[ObjRef]bool{}
	var walk func(res Value, depth int)
	walk = func(res Value, depth int) {
		if depth > maxTreeDepth {
			return
		}
		xobjs := res.Key("XObject")
		for _, key := range xobjs.Keys() {
			ref, indirect := xobjs.RefKey(key)
			if indirect {
				if seen[ref] {
					continue
				}
				seen[ref] = true
			}
			x := xobjs.Key(key)
			switch x.Key("Subtype").Name() {
			case "Image":
				if !indirect {
					continue
				}
				images = append(images, imageRef(key, ref, x))
			case "Form":
				walk(x.Key("Resources"), depth+1)
			}
		}
	}
	walk(p.Resources(), 0)
	return images, nil
}

func imageRef(resource string, ref ObjRef, x Value) ImageRef {
	img := ImageRef{
		Ref:              ref,
		Name:             resource,
		Width:            x.Key("Width").Int64(),
		Height:           x.Key("Height").Int64(),
		BitsPerComponent: x.Key("BitsPerComponent").Int64(),
	}
	switch cs := x.Key("ColorSpace"); cs.Kind() {
	case Name:
		img.ColorSpace = cs.Name()
	case Array:
		img.ColorSpace = cs.Index(0).Name()
	}
	switch f := x.Key("Filter"); f.Kind() {
	case Name:
		img.Filters = []string{f.Name()}
	case Array:
		for i := 0; i < f.Len(); i++ {
			img.Filters = append(img.Filters, f.Index(i).Name())
		}
	}
	return img
}

// object resolves ref without going through a parent container.
func (d *Document) object(ref ObjRef) Value {
	return d.r.resolve(objptr{}, objptr{ref.Num, ref.Gen})
}

// ImageData returns the payload of the image stream ref with its
// transport filters removed. Image codecs (DCT, JPX, CCITT, JBIG2) are
// left encoded.
func (d *Document) ImageData(ref ObjRef) (data []byte, err error) {
	defer catch(&err)
	v := d.object(ref)
	if v.Kind() != Stream {
		return nil, fmt.Errorf("%w: %v is not a stream", ErrUnresolved, ref)
	}
	rc, _, err := v.decode(transportFilters)
	if err != nil {
		return nil, fmt.Errorf("image %v: %w", ref, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// StoredData returns the bytes of stream ref exactly as stored.
func (d *Document) StoredData(ref ObjRef) (data []byte, err error) {
	defer catch(&err)
	v := d.object(ref)
	if v.Kind() != Stream {
		return nil, fmt.Errorf("%w: %v is not a stream", ErrUnresolved, ref)
	}
	rc := v.RawReader()
	defer rc.Close()
	return io.ReadAll(rc)
}

// Fonts returns the font resources of page num.
func (d *Document) Fonts(num int) (fonts []FontRef, err error) {
	defer catch(&err)
	p, err := d.page(num)
	if err != nil {
		return nil, err
	}
	for _, res := range p.Fonts() {
		f := p.Font(res)
		ref, _ := p.Resources().Key("Font").RefKey(res)
		desc := f.Descriptor()
		fonts = append(fonts, FontRef{
			Resource:      res,
			BaseFont:      f.BaseFont(),
			Subtype:       f.V.Key("Subtype").Name(),
			Ref:           ref,
			Flags:         desc.Key("Flags").Int64(),
			HasDescriptor: desc.Kind() == Dict,
			HasFontFile: !desc.Key("FontFile").IsNull() ||
				!desc.Key("FontFile2").IsNull() ||
				!desc.Key("FontFile3").IsNull(),
		})
	}
	return fonts, nil
}

// ObjectOffset returns the cross-reference position of ref.
func (d *Document) ObjectOffset(ref ObjRef) (int64, error) {
	off, ok := d.r.Offset(ref)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnresolved, ref)
	}
	return off, nil
}

// TrailerText renders the trailer dictionary, strings as hex literals:
//
//	<< /ID [ <a1b2> <a1b2> ] /Root 1 0 R /Size 9 >>
func (d *Document) TrailerText() string {
	return trailerfmt(d.r.trailer)
}

// Info returns the document information dictionary entries.
func (d *Document) Info() (info map[string]string, err error) {
	defer catch(&err)
	return d.r.Info(), nil
}

// XMP returns the parsed XMP packet. ok is false when the catalog has no
// metadata stream.
func (d *Document) XMP() (meta XMP, ok bool, err error) {
	defer catch(&err)
	raw, err := d.r.readXMP()
	if err != nil || raw == "" {
		return XMP{}, false, err
	}
	return ParseXMP(raw), true, nil
}

// Version returns the PDF version. A catalog /Version entry overrides the
// file header.
func (d *Document) Version() (v string) {
	defer func() {
		if recover() != nil {
			v = d.r.headerVersion()
		}
	}()
	if cv := d.r.Trailer().Key("Root").Key("Version").Name(); cv != "" {
		return cv
	}
	return d.r.headerVersion()
}

// ScriptActions returns every JavaScript action reachable from the name
// tree, the open action, the catalog and page additional actions, and
// page annotations. An indirect action reached twice is reported once.
func (d *Document) ScriptActions() (actions []ScriptAction, err error) {
	defer catch(&err)
	c := &scriptCollector{seen: map[ObjRef]bool{}}
	root := d.r.Trailer().Key("Root")

	c.nameTree("Names/JavaScript", root.Key("Names").Key("JavaScript"), 0)
	c.key("OpenAction", root, "OpenAction")
	c.additional("AA", root.Key("AA"))
	for i, p := range d.pages {
		loc := fmt.Sprintf("page %d", i+1)
		c.additional(loc+" AA", p.V.Key("AA"))
		annots := p.V.Key("Annots")
		for j := 0; j < annots.Len(); j++ {
			a := annots.Index(j)
			aloc := fmt.Sprintf("%s annot %d", loc, j+1)
			c.key(aloc+" A", a, "A")
			c.additional(aloc+" AA", a.Key("AA"))
		}
	}
	logger.Debug(fmt.Sprintf("script actions found: %d", len(c.out)), true)
	return c.out, nil
}

type scriptCollector struct {
	seen map[ObjRef]bool
	out  []ScriptAction
}

// visit reports whether the entry should be walked: direct objects always,
// indirect objects the first time only.
func (c *scriptCollector) visit(ref ObjRef, indirect bool) bool {
	if !indirect {
		return true
	}
	if c.seen[ref] {
		return false
	}
	c.seen[ref] = true
	return true
}

func (c *scriptCollector) key(loc string, holder Value, key string) {
	if ref, ok := holder.RefKey(key); c.visit(ref, ok) {
		c.action(loc, holder.Key(key), 0)
	}
}

func (c *scriptCollector) nameTree(loc string, node Value, depth int) {
	if depth > maxTreeDepth || node.Kind() != Dict {
		return
	}
	names := node.Key("Names")
	for i := 0; i+1 < names.Len(); i += 2 {
		if ref, ok := names.RefIndex(i + 1); c.visit(ref, ok) {
			c.action(loc+"/"+names.Index(i).Text(), names.Index(i+1), 0)
		}
	}
	kids := node.Key("Kids")
	for i := 0; i < kids.Len(); i++ {
		if ref, ok := kids.RefIndex(i); c.visit(ref, ok) {
			c.nameTree(loc, kids.Index(i), depth+1)
		}
	}
}

func (c *scriptCollector) additional(loc string, aa Value) {
	for _, k := range aa.Keys() {
		c.key(loc+"/"+k, aa, k)
	}
}

func (c *scriptCollector) action(loc string, a Value, depth int) {
	if depth > maxTreeDepth || a.Kind() != Dict {
		return
	}
	if a.Key("S").Name() == "JavaScript" {
		c.out = append(c.out, ScriptAction{Location: loc, Source: scriptSource(a.Key("JS"))})
	}
	next := a.Key("Next")
	switch next.Kind() {
	case Dict:
		if ref, ok := a.RefKey("Next"); c.visit(ref, ok) {
			c.action(loc+"/Next", next, depth+1)
		}
	case Array:
		for i := 0; i < next.Len(); i++ {
			if ref, ok := next.RefIndex(i); c.visit(ref, ok) {
				c.action(fmt.Sprintf("%s/Next[%d]", loc, i), next.Index(i), depth+1)
			}
		}
	}
}

// scriptSource returns the script text held as a string or a stream.
func scriptSource(js Value) string {
	switch js.Kind() {
	case String:
		return js.Text()
	case Stream:
		rc := js.Reader()
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			logger.Error(fmt.Sprintf("script stream: %v", err))
		}
		return string(b)
	}
	return ""
}

// Close releases the underlying file, if the Document opened it.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
