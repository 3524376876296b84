// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package redact scrubs secrets from span attributes and status messages
// before they leave the process.
package redact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tombee/seqbridge/pkg/observability"
)

// Mode determines how much of a span is redacted.
type Mode string

const (
	// ModeNone disables redaction.
	ModeNone Mode = "none"

	// ModeStandard replaces values matching known secret patterns.
	ModeStandard Mode = "standard"

	// ModeStrict replaces every value except the correlation attributes.
	ModeStrict Mode = "strict"
)

const redacted = "[REDACTED]"

// ParseMode converts a config string to a Mode. Empty means standard.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeStandard, nil
	case ModeNone, ModeStandard, ModeStrict:
		return m, nil
	default:
		return "", fmt.Errorf("unknown redaction mode %q (want none, standard or strict)", s)
	}
}

// Pattern is a named secret pattern and its replacement.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// StandardPatterns returns the default secret patterns.
func StandardPatterns() []Pattern {
	return []Pattern{
		{
			Name:        "maple_ingest_key",
			Regex:       regexp.MustCompile(`maple_(pk|sk)_[A-Za-z0-9_\-]+`),
			Replacement: redacted,
		},
		{
			Name:        "api_key",
			Regex:       regexp.MustCompile(`(?i)(api[_-]?key|apikey)["\s:=]+([a-zA-Z0-9_\-]{16,})`),
			Replacement: "$1=" + redacted,
		},
		{
			Name:        "bearer_token",
			Regex:       regexp.MustCompile(`(?i)(bearer\s+)([a-zA-Z0-9_\-\.]{20,})`),
			Replacement: "$1" + redacted,
		},
		{
			Name:        "password",
			Regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)["\s:=]+([^\s"]+)`),
			Replacement: "$1=" + redacted,
		},
		{
			Name:        "aws_key",
			Regex:       regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
			Replacement: "[REDACTED-AWS-KEY]",
		},
		{
			Name:        "jwt",
			Regex:       regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),
			Replacement: "[REDACTED-JWT]",
		},
		{
			Name:        "generic_secret",
			Regex:       regexp.MustCompile(`(?i)(secret|token)["\s:=]+([a-zA-Z0-9_\-]{16,})`),
			Replacement: "$1=" + redacted,
		},
	}
}

// correlationKeys survive strict mode so spans can still be joined to logs.
var correlationKeys = map[string]bool{
	"session_id":         true,
	"event_id":           true,
	"tool_call_id":       true,
	"tool_name":          true,
	"seq_op":             true,
	"stage":              true,
	"bridge.ok":          true,
	"bridge.duration_ms": true,
}

// sensitiveKeyParts mark attribute keys whose values are always redacted.
var sensitiveKeyParts = []string{
	"password", "passwd", "secret", "token",
	"api_key", "apikey", "ingest_key",
	"private_key", "authorization", "cookie",
}

// Redactor applies redaction rules to spans.
type Redactor struct {
	mode     Mode
	patterns []Pattern
}

// NewRedactor creates a redactor using StandardPatterns.
func NewRedactor(mode Mode) *Redactor {
	return NewRedactorWithPatterns(mode, StandardPatterns())
}

// NewRedactorWithPatterns creates a redactor with custom patterns.
func NewRedactorWithPatterns(mode Mode, patterns []Pattern) *Redactor {
	return &Redactor{mode: mode, patterns: patterns}
}

// Mode returns the redactor's mode.
func (r *Redactor) Mode() Mode {
	return r.mode
}

// RedactString applies the redactor's mode to a free-form value.
func (r *Redactor) RedactString(s string) string {
	switch r.mode {
	case ModeNone:
		return s
	case ModeStrict:
		if s == "" {
			return s
		}
		return redacted
	}

	for _, p := range r.patterns {
		s = p.Regex.ReplaceAllString(s, p.Replacement)
	}
	return s
}

// RedactSpan returns a copy of span with attribute values and the status
// message redacted. Identity and timing fields are never changed.
func (r *Redactor) RedactSpan(span observability.Span) observability.Span {
	if r.mode == ModeNone {
		return span
	}

	attrs := make([]observability.Attribute, len(span.Attributes))
	for i, attr := range span.Attributes {
		switch {
		case correlationKeys[attr.Key]:
			attrs[i] = attr
		case isSensitiveKey(attr.Key):
			attrs[i] = observability.Attr(attr.Key, redacted)
		default:
			attrs[i] = observability.Attr(attr.Key, r.RedactString(attr.Value))
		}
	}
	span.Attributes = attrs
	span.StatusMessage = r.RedactString(span.StatusMessage)
	return span
}

// Wrap returns an Emitter that redacts spans before passing them to next.
func (r *Redactor) Wrap(next observability.Emitter) observability.Emitter {
	if r.mode == ModeNone {
		return next
	}
	return observability.EmitterFunc(func(span observability.Span) {
		next.Emit(r.RedactSpan(span))
	})
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
