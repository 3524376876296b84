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

package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTargets(t *testing.T) {
	local := Target{Endpoint: "http://ingest.maple.localhost/v1/traces", IngestKey: "maple_pk_local"}
	hosted := Target{Endpoint: "https://ingest.maple.dev/v1/traces", IngestKey: "maple_pk_hosted"}
	rotated := Target{Endpoint: local.Endpoint, IngestKey: "maple_pk_rotated"}

	tests := []struct {
		name string
		in   []Target
		want []Target
	}{
		{"empty", nil, []Target{}},
		{"single", []Target{local}, []Target{local}},
		{"keeps order", []Target{hosted, local}, []Target{hosted, local}},
		{"removes exact duplicates", []Target{local, hosted, local}, []Target{local, hosted}},
		{"same endpoint different key is distinct", []Target{local, rotated}, []Target{local, rotated}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTargets(tt.in))
		})
	}
}

func TestResolveTargets_ReturnsCopy(t *testing.T) {
	in := []Target{{Endpoint: "a", IngestKey: "k"}}
	out := ResolveTargets(in)
	out[0].Endpoint = "b"
	assert.Equal(t, "a", in[0].Endpoint)
}

func TestTarget_StringOmitsKey(t *testing.T) {
	target := Target{Endpoint: "https://ingest.maple.dev/v1/traces", IngestKey: "maple_pk_secret"}
	assert.Equal(t, "https://ingest.maple.dev/v1/traces", target.String())
	assert.NotContains(t, target.String(), "maple_pk_secret")
}
