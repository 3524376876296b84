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

package secrets

import (
	"context"
	"fmt"
	"strings"
)

// Reference is a parsed secret reference.
type Reference struct {
	// Scheme names the backend, or is empty for a literal value.
	Scheme string

	// Key is the backend key, or the literal value itself.
	Key string
}

// IsLiteral reports whether the reference is a plain value.
func (r Reference) IsLiteral() bool {
	return r.Scheme == ""
}

// ParseReference splits "scheme:key" for the known schemes. Any other
// value, including one that merely contains a colon, is a literal.
func ParseReference(value string) Reference {
	scheme, key, ok := strings.Cut(value, ":")
	if ok && key != "" {
		switch scheme {
		case "env", "keychain":
			return Reference{Scheme: scheme, Key: key}
		}
	}
	return Reference{Key: value}
}

// Resolver resolves references against a set of backends keyed by name.
type Resolver struct {
	backends map[string]Backend
}

// NewResolver creates a resolver. Each backend serves the scheme equal to
// its Name.
func NewResolver(backends ...Backend) *Resolver {
	r := &Resolver{backends: make(map[string]Backend, len(backends))}
	for _, b := range backends {
		r.backends[b.Name()] = b
	}
	return r
}

// Resolve returns the secret a value refers to. Literal values are returned
// unchanged.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	ref := ParseReference(value)
	if ref.IsLiteral() {
		return ref.Key, nil
	}

	backend, ok := r.backends[ref.Scheme]
	if !ok {
		return "", fmt.Errorf("%w: no %s backend configured", ErrBackendUnavailable, ref.Scheme)
	}

	secret, err := backend.Get(ctx, ref.Key)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s:%s: %w", ref.Scheme, ref.Key, err)
	}
	return secret, nil
}
