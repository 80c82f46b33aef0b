// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sassoftware/viya-pdf-forensics/logger"
	"github.com/sassoftware/viya-pdf-forensics/pdf"
)

var objStmMarker = []byte("ObjStm")

// HiddenStream is an image whose payload contains an object stream marker.
// Stored is set when the marker was found in the undecoded stream bytes.
type HiddenStream struct {
	Page   int    `json:"page"`
	Object uint32 `json:"object"`
	Stored bool   `json:"stored,omitempty"`
}

// UndecodedImage is an image whose filter chain could not be undone; its
// stored bytes were scanned instead.
type UndecodedImage struct {
	Page   int    `json:"page"`
	Object uint32 `json:"object"`
	Error  string `json:"error"`
}

// ImageInfo is one inventory entry. Size and Digest cover the payload
// that was scanned: transport filters removed, image codecs left as stored.
type ImageInfo struct {
	Page             int      `json:"page"`
	Object           uint32   `json:"object"`
	Name             string   `json:"name"`
	Format           string   `json:"format"`
	Width            int64    `json:"width"`
	Height           int64    `json:"height"`
	ColorSpace       string   `json:"colorSpace,omitempty"`
	BitsPerComponent int64    `json:"bitsPerComponent,omitempty"`
	Filters          []string `json:"filters,omitempty"`
	Size             int      `json:"size"`
	Digest           string   `json:"digest,omitempty"`
	Decoded          bool     `json:"decoded"`
}

// HiddenStreamDetails lists every image seen, the ones carrying an object
// stream marker and the ones that could not be decoded.
type HiddenStreamDetails struct {
	Algorithm DigestAlgorithm  `json:"algorithm"`
	Images    []ImageInfo      `json:"images"`
	Hidden    []HiddenStream   `json:"hidden,omitempty"`
	Undecoded []UndecodedImage `json:"undecoded,omitempty"`
}

// imageFormat names the payload format after the last image codec in the
// filter chain.
func imageFormat(filters []string) string {
	for i := len(filters) - 1; i >= 0; i-- {
		switch filters[i] {
		case "DCTDecode", "DCT":
			return "jpg"
		case "JPXDecode":
			return "jp2"
		case "JBIG2Decode":
			return "jb2"
		case "CCITTFaxDecode", "CCF":
			return "ccitt"
		}
	}
	return "raw"
}

// HiddenStreamCheck searches image payloads for embedded object streams and
// inventories every image it looks at.
type HiddenStreamCheck struct {
	Algorithm DigestAlgorithm
}

func (HiddenStreamCheck) Name() string { return CheckHiddenStreams }

func (c HiddenStreamCheck) Run(ctx context.Context, in *Input) (Finding, error) {
	d := HiddenStreamDetails{Algorithm: c.Algorithm}
	if d.Algorithm == "" {
		d.Algorithm = SHA256
	}
	for page := 1; page <= in.Doc.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return Finding{}, err
		}
		images, err := in.Doc.Images(page)
		if err != nil {
			return Finding{}, fmt.Errorf("page %d: %w", page, err)
		}
		for _, img := range images {
			if err := c.scan(in.Doc, page, img, &d); err != nil {
				return Finding{}, err
			}
		}
	}
	switch {
	case len(d.Hidden) > 0:
		return Finding{Status: Anomaly, Summary: "hidden object streams in images", Details: d}, nil
	case len(d.Undecoded) > 0:
		summary := fmt.Sprintf("%d image(s) could not be decoded", len(d.Undecoded))
		return Finding{Status: Anomaly, Summary: summary, Details: d}, nil
	}
	return Finding{Status: Ok, Summary: "no hidden streams", Details: d}, nil
}

// scan inspects one image. A payload that cannot be decoded is scanned as
// stored and listed as undecoded.
func (c HiddenStreamCheck) scan(doc Document, page int, img pdf.ImageRef, d *HiddenStreamDetails) error {
	info := ImageInfo{
		Page:             page,
		Object:           img.Ref.Num,
		Name:             img.Name,
		Format:           imageFormat(img.Filters),
		Width:            img.Width,
		Height:           img.Height,
		ColorSpace:       img.ColorSpace,
		BitsPerComponent: img.BitsPerComponent,
		Filters:          img.Filters,
		Decoded:          true,
	}
	data, err := doc.ImageData(img.Ref)
	if err != nil {
		logger.Debug(fmt.Sprintf("Image not decodable, scanning stored bytes: page=%d object=%d err=%v", page, img.Ref.Num, err), true)
		info.Decoded = false
		undecoded := UndecodedImage{Page: page, Object: img.Ref.Num, Error: err.Error()}
		data, err = doc.StoredData(img.Ref)
		if err != nil {
			undecoded.Error = fmt.Sprintf("%s; stored bytes: %v", undecoded.Error, err)
		}
		d.Undecoded = append(d.Undecoded, undecoded)
	}
	if err == nil {
		digest, err := Digest(d.Algorithm, data)
		if err != nil {
			return err
		}
		info.Size = len(data)
		info.Digest = digest
		if bytes.Contains(data, objStmMarker) {
			d.Hidden = append(d.Hidden, HiddenStream{Page: page, Object: img.Ref.Num, Stored: !info.Decoded})
		}
	}
	d.Images = append(d.Images, info)
	return nil
}
