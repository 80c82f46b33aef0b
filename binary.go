// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// marker is a byte pattern whose presence is worth reporting.
type marker struct {
	label   string
	pattern []byte
}

var binaryMarkers = []marker{
	{"object stream", []byte("ObjStm")},
	{"encryption", []byte("/Encrypt")},
}

// BinaryDetails carries the file digest and the markers found.
type BinaryDetails struct {
	Algorithm DigestAlgorithm `json:"algorithm"`
	Digest    string          `json:"digest"`
	Markers   []string        `json:"markers,omitempty"`
}

// Digest returns the hex digest of data.
func Digest(alg DigestAlgorithm, data []byte) (string, error) {
	var sum [32]byte
	switch alg {
	case SHA256, "":
		sum = sha256.Sum256(data)
	case SHA3_256:
		sum = sha3.Sum256(data)
	case BLAKE2b256:
		sum = blake2b.Sum256(data)
	default:
		return "", fmt.Errorf("unsupported digest algorithm %q", alg)
	}
	return hex.EncodeToString(sum[:]), nil
}

// ScanMarkers returns the labels of the markers contained in data.
func ScanMarkers(data []byte) []string {
	var found []string
	for _, m := range binaryMarkers {
		if bytes.Contains(data, m.pattern) {
			found = append(found, m.label)
		}
	}
	return found
}

// BinaryCheck digests the raw file and scans it for markers.
type BinaryCheck struct {
	Algorithm DigestAlgorithm
}

func (BinaryCheck) Name() string { return CheckBinary }

func (c BinaryCheck) Run(_ context.Context, in *Input) (Finding, error) {
	data, err := in.Bytes()
	if err != nil {
		return Finding{}, err
	}
	alg := c.Algorithm
	if alg == "" {
		alg = SHA256
	}
	digest, err := Digest(alg, data)
	if err != nil {
		return Finding{}, err
	}
	d := BinaryDetails{Algorithm: alg, Digest: digest, Markers: ScanMarkers(data)}
	if len(d.Markers) > 0 {
		return Finding{Status: Anomaly, Summary: "suspicious binary markers found", Details: d}, nil
	}
	return Finding{Status: Ok, Summary: "no suspicious binary markers", Details: d}, nil
}
