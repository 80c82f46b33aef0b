// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/sassoftware/viya-pdf-forensics/logger"
)

// XMP holds the XMP properties relevant to revision analysis.
type XMP struct {
	CreateDate   string     `json:"createDate,omitempty"`
	ModifyDate   string     `json:"modifyDate,omitempty"`
	MetadataDate string     `json:"metadataDate,omitempty"`
	CreatorTool  string     `json:"creatorTool,omitempty"`
	Producer     string     `json:"producer,omitempty"`
	DocumentID   string     `json:"documentID,omitempty"`
	InstanceID   string     `json:"instanceID,omitempty"`
	History      []XMPEvent `json:"history,omitempty"`
}

// XMPEvent is one xmpMM:History entry.
type XMPEvent struct {
	Action        string `json:"action,omitempty"`
	When          string `json:"when,omitempty"`
	SoftwareAgent string `json:"softwareAgent,omitempty"`
	InstanceID    string `json:"instanceID,omitempty"`
}

// Minimal XML models to pull the XMP fields. Properties may be written as
// child elements or as attributes of rdf:Description.
type xmpPacket struct {
	XMLName xml.Name `xml:"xmpmeta"`
	RDF     rdfRDF   `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# RDF"`
}

type rdfRDF struct {
	Descriptions []rdfDescription `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Description"`
}

type rdfDescription struct {
	CreateDate       string `xml:"http://ns.adobe.com/xap/1.0/ CreateDate"`
	CreateDateAttr   string `xml:"http://ns.adobe.com/xap/1.0/ CreateDate,attr"`
	ModifyDate       string `xml:"http://ns.adobe.com/xap/1.0/ ModifyDate"`
	ModifyDateAttr   string `xml:"http://ns.adobe.com/xap/1.0/ ModifyDate,attr"`
	MetadataDate     string `xml:"http://ns.adobe.com/xap/1.0/ MetadataDate"`
	MetadataDateAttr string `xml:"http://ns.adobe.com/xap/1.0/ MetadataDate,attr"`
	CreatorTool      string `xml:"http://ns.adobe.com/xap/1.0/ CreatorTool"`
	CreatorToolAttr  string `xml:"http://ns.adobe.com/xap/1.0/ CreatorTool,attr"`
	Producer         string `xml:"http://ns.adobe.com/pdf/1.3/ Producer"`
	ProducerAttr     string `xml:"http://ns.adobe.com/pdf/1.3/ Producer,attr"`
	DocumentID       string `xml:"http://ns.adobe.com/xap/1.0/mm/ DocumentID"`
	DocumentIDAttr   string `xml:"http://ns.adobe.com/xap/1.0/mm/ DocumentID,attr"`
	InstanceID       string `xml:"http://ns.adobe.com/xap/1.0/mm/ InstanceID"`
	InstanceIDAttr   string `xml:"http://ns.adobe.com/xap/1.0/mm/ InstanceID,attr"`
	History          struct {
		Seq struct {
			LI []rdfEvent `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# li"`
		} `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Seq"`
	} `xml:"http://ns.adobe.com/xap/1.0/mm/ History"`
}

type rdfEvent struct {
	Action            string `xml:"http://ns.adobe.com/xap/1.0/sType/ResourceEvent# action"`
	ActionAttr        string `xml:"http://ns.adobe.com/xap/1.0/sType/ResourceEvent# action,attr"`
	When              string `xml:"http://ns.adobe.com/xap/1.0/sType/ResourceEvent# when"`
	WhenAttr          string `xml:"http://ns.adobe.com/xap/1.0/sType/ResourceEvent# when,attr"`
	SoftwareAgent     string `xml:"http://ns.adobe.com/xap/1.0/sType/ResourceEvent# softwareAgent"`
	SoftwareAgentAttr string `xml:"http://ns.adobe.com/xap/1.0/sType/ResourceEvent# softwareAgent,attr"`
	InstanceID        string `xml:"http://ns.adobe.com/xap/1.0/sType/ResourceEvent# instanceID"`
	InstanceIDAttr    string `xml:"http://ns.adobe.com/xap/1.0/sType/ResourceEvent# instanceID,attr"`
}

// prefer returns a if non-empty after trimming, otherwise b.
func prefer(a, b string) string {
	if a = strings.TrimSpace(a); a != "" {
		return a
	}
	return strings.TrimSpace(b)
}

// InfoDict returns the raw /Info dictionary as a Value (may be Null).
func (r *Reader) InfoDict() Value {
	return r.Trailer().Key("Info")
}

// Info returns every entry of the /Info dictionary as text.
// Non-string entries are rendered in PDF syntax.
func (r *Reader) Info() map[string]string {
	info := r.InfoDict()
	out := make(map[string]string, len(info.Keys()))
	for _, k := range info.Keys() {
		v := info.Key(k)
		if v.Kind() == String {
			out[k] = v.Text()
		} else {
			out[k] = v.String()
		}
	}
	return out
}

// readXMP returns the raw XMP XML from /Root/Metadata (empty string if absent).
func (r *Reader) readXMP() (string, error) {
	md := r.Trailer().Key("Root").Key("Metadata")
	if md.Kind() != Stream {
		logger.Debug("readXMP: no XMP stream present")
		return "", nil
	}
	logger.Debug("found XMP Stream", true)
	rc := md.Reader()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		logger.Error("readXMP: failed to read XMP stream")
		return "", err
	}
	return string(b), nil
}

// ParseXMP extracts the revision properties from an XMP packet. When the
// packet is not well-formed XML it falls back to a plain tag search.
func ParseXMP(x string) XMP {
	if got, ok := parseXMPWithXML(x); ok {
		return got
	}
	return parseXMPFallback(x)
}

func parseXMPWithXML(x string) (XMP, bool) {
	logger.Debug("parsing XMP")
	var pkt xmpPacket
	dec := xml.NewDecoder(strings.NewReader(x))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(&pkt); err != nil {
		return XMP{}, false
	}

	var out XMP
	set := func(dst *string, vals ...string) {
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				*dst = v
				return
			}
		}
	}
	for _, d := range pkt.RDF.Descriptions {
		set(&out.CreateDate, d.CreateDate, d.CreateDateAttr)
		set(&out.ModifyDate, d.ModifyDate, d.ModifyDateAttr)
		set(&out.MetadataDate, d.MetadataDate, d.MetadataDateAttr)
		set(&out.CreatorTool, d.CreatorTool, d.CreatorToolAttr)
		set(&out.Producer, d.Producer, d.ProducerAttr)
		set(&out.DocumentID, d.DocumentID, d.DocumentIDAttr)
		set(&out.InstanceID, d.InstanceID, d.InstanceIDAttr)
		for _, li := range d.History.Seq.LI {
			out.History = append(out.History, XMPEvent{
				Action:        prefer(li.Action, li.ActionAttr),
				When:          prefer(li.When, li.WhenAttr),
				SoftwareAgent: prefer(li.SoftwareAgent, li.SoftwareAgentAttr),
				InstanceID:    prefer(li.InstanceID, li.InstanceIDAttr),
			})
		}
	}
	return out, true
}

// parseXMPFallback performs a simple tag search for packets that do not
// decode as XML.
func parseXMPFallback(xmp string) XMP {
	logger.Debug("perform a simple tag-search fallback if XML parsing fails")
	get := func(cands ...string) string {
		for _, t := range cands {
			open, close := "<"+t+">", "</"+t+">"
			if i := strings.Index(xmp, open); i >= 0 {
				if j := strings.Index(xmp[i+len(open):], close); j >= 0 {
					return strings.TrimSpace(stripXMLTags(xmp[i+len(open) : i+len(open)+j]))
				}
			}
		}
		return ""
	}
	return XMP{
		CreateDate:   get("xmp:CreateDate"),
		ModifyDate:   get("xmp:ModifyDate"),
		MetadataDate: get("xmp:MetadataDate"),
		CreatorTool:  get("xmp:CreatorTool"),
		Producer:     get("pdf:Producer"),
		DocumentID:   get("xmpMM:DocumentID"),
		InstanceID:   get("xmpMM:InstanceID"),
	}
}

// stripXMLTags removes simple XML tags from a string.
func stripXMLTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch r {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// headerVersion returns the version from the %PDF-x.y header.
func (r *Reader) headerVersion() string {
	buf := make([]byte, 1024)
	n, _ := r.f.ReadAt(buf, 0)
	line := string(buf[:n])
	i := strings.Index(line, "%PDF-")
	if i < 0 {
		return ""
	}
	return strings.TrimPrefix(string(headerLine([]byte(line[i:]))), "%PDF-")
}
