// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"regexp"
	"strconv"
	"strings"
)

// codePattern matches a standard code: grade digit, subject letter,
// two-digit domain, dash, two-digit sequence (e.g. "2X01-01").
var codePattern = regexp.MustCompile(`^[0-9][A-Z][0-9]{2}-[0-9]{2}$`)

// ValidStandardCode reports whether s is a syntactically valid
// achievement-standard code.
func ValidStandardCode(s string) bool {
	return codePattern.MatchString(s)
}

// StandardNode is one curriculum achievement standard. Codes are globally
// unique and immutable; the pipeline reads nodes, it never writes them.
type StandardNode struct {
	// Code uniquely identifies the standard ({grade}{subject}{domain}-{seq}).
	Code string `json:"code" yaml:"code"`

	// Content is the learning-objective text.
	Content string `json:"content" yaml:"content"`

	// DomainID identifies the subject domain (e.g. "01").
	DomainID string `json:"domain_id" yaml:"domain_id"`

	// GradeBandID identifies the grade band (e.g. "2" for grades 1-2).
	GradeBandID string `json:"grade_band_id" yaml:"grade_band_id"`

	// DomainName is the human-readable domain label.
	DomainName string `json:"domain_name,omitempty" yaml:"domain_name,omitempty"`

	// GradeBandName is the human-readable grade-band label.
	GradeBandName string `json:"grade_band_name,omitempty" yaml:"grade_band_name,omitempty"`
}

// Seq returns the sequence number encoded in the code's trailing digits,
// or 0 if the code is malformed.
func (n StandardNode) Seq() int {
	i := strings.LastIndexByte(n.Code, '-')
	if i < 0 {
		return 0
	}
	seq, err := strconv.Atoi(n.Code[i+1:])
	if err != nil {
		return 0
	}
	return seq
}
