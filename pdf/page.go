// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf

import (
	"fmt"

	"github.com/sassoftware/viya-pdf-forensics/logger"
)

// maxTreeDepth bounds page-tree and action-chain walks in damaged files.
const maxTreeDepth = 64

// A Page represent a single page in a PDF file.
// The methods interpret a Page dictionary stored in V.
type Page struct {
	V Value
}

// Pages returns every leaf of the page tree in document order.
// Kids that were already visited are skipped, so cyclic trees terminate.
func (r *Reader) Pages() []Page {
	var out []Page
	seen := map[ObjRef]bool{}
	var walk func(v Value, depth int)
	walk = func(v Value, depth int) {
		if depth > maxTreeDepth || v.Kind() != Dict {
			return
		}
		kids := v.Key("Kids")
		if v.Key("Type").Name() == "Pages" || kids.Kind() == Array {
			for i := 0; i < kids.Len(); i++ {
				if ref, ok := kids.RefIndex(i); ok {
					if seen[ref] {
						continue
					}
					seen[ref] = true
				}
				walk(kids.Index(i), depth+1)
			}
			return
		}
		out = append(out, Page{v})
	}
	root := r.Trailer().Key("Root")
	if ref, ok := root.RefKey("Pages"); ok {
		seen[ref] = true
	}
	walk(root.Key("Pages"), 0)
	logger.Debug(fmt.Sprintf("page tree walked: pages=%d", len(out)), true)
	return out
}

func (p Page) findInherited(key string) Value {
	for v, depth := p.V, 0; !v.IsNull() && depth < maxTreeDepth; v, depth = v.Key("Parent"), depth+1 {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
	}
	return Value{}
}

// Resources returns the resources dictionary associated with the page.
func (p Page) Resources() Value {
	return p.findInherited("Resources")
}

// Fonts returns the resource names of the fonts associated with the page.
func (p Page) Fonts() []string {
	return p.Resources().Key("Font").Keys()
}

// Font returns the font with the given resource name.
func (p Page) Font(name string) Font {
	return Font{p.Resources().Key("Font").Key(name)}
}

// A Font represent a font in a PDF file.
// The methods interpret a Font dictionary stored in V.
type Font struct {
	V Value
}

// BaseFont returns the font's name (BaseFont property).
func (f Font) BaseFont() string {
	return f.V.Key("BaseFont").Name()
}

// Descriptor returns the font descriptor. Composite (Type0) fonts keep
// it on their first descendant font.
func (f Font) Descriptor() Value {
	if d := f.V.Key("FontDescriptor"); d.Kind() == Dict {
		return d
	}
	if f.V.Key("Subtype").Name() == "Type0" {
		return f.V.Key("DescendantFonts").Index(0).Key("FontDescriptor")
	}
	return Value{}
}

// ContentRefs returns the indirect references declared by the page's
// /Contents entry, in order.
func (p Page) ContentRefs() []ObjRef {
	if ref, ok := p.V.RefKey("Contents"); ok {
		c := p.V.Key("Contents")
		if c.Kind() != Array {
			return []ObjRef{ref}
		}
		// an indirect array of stream references
		return arrayRefs(c)
	}
	return arrayRefs(p.V.Key("Contents"))
}

func arrayRefs(v Value) []ObjRef {
	var out []ObjRef
	for i := 0; i < v.Len(); i++ {
		if ref, ok := v.RefIndex(i); ok {
			out = append(out, ref)
		}
	}
	return out
}
