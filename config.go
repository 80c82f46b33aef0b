// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package forensics

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sassoftware/viya-pdf-forensics/logger"
)

type ValidatorKind string

const (
	QPDF   ValidatorKind = "qpdf"
	PDFCPU ValidatorKind = "pdfcpu"
	NoTool ValidatorKind = "none"
)

type DigestAlgorithm string

const (
	SHA256     DigestAlgorithm = "sha256"
	SHA3_256   DigestAlgorithm = "sha3-256"
	BLAKE2b256 DigestAlgorithm = "blake2b-256"
)

type Config struct {
	MaxConcurrentFiles int             `validate:"min=1,max=64"`
	Validator          ValidatorKind   `validate:"oneof=qpdf pdfcpu none"`
	QPDFPath           string          `validate:"required_if=Validator qpdf"`
	ValidatorTimeout   time.Duration   `validate:"required"`
	DigestAlgorithm    DigestAlgorithm `validate:"oneof=sha256 sha3-256 blake2b-256"`
	DebugOn            bool
	Logger             logger.LogFunc
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentFiles: 1,
		Validator:          QPDF,
		QPDFPath:           "qpdf",
		ValidatorTimeout:   30 * time.Second,
		DigestAlgorithm:    SHA256,
		DebugOn:            false,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}
