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

/*
Package secrets resolves ingest keys that are given as references instead
of literal values.

# References

A configured value may name where the secret lives:

	env:MAPLE_INGEST_KEY       - read from the environment
	keychain:maple/hosted      - read from the OS keychain (service "seqbridge")
	maple_pk_local             - anything else is used as is

# Backends

Each scheme is served by a Backend:

	type Backend interface {
	    Name() string
	    Get(ctx context.Context, key string) (string, error)
	}

KeychainBackend also supports Set and Delete so keys can be stored with
"seqbridge keys set".

# Usage

	resolver := secrets.NewResolver(secrets.NewEnvBackend(), secrets.NewKeychainBackend())
	key, err := resolver.Resolve(ctx, cfg.IngestKey)
*/
package secrets
