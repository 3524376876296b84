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

// Package keys implements the keys command for managing ingest keys in
// the system keychain.
package keys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/seqbridge/internal/commands/shared"
	"github.com/tombee/seqbridge/internal/secrets"
)

// Store is the subset of the keychain backend the command needs.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// NewCommand creates the keys command
func NewCommand() *cobra.Command {
	return newCommand(func() Store { return secrets.NewKeychainBackend() })
}

func newCommand(store func() Store) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage ingest keys in the system keychain",
		Long: `Store and remove ingest keys in the system keychain.

A stored key is referenced from config as keychain:<name>, for example:

  telemetry:
    hosted:
      endpoint: https://ingest.maple.dev/v1/traces
      ingest_key: keychain:maple/hosted`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newSetCommand(store))
	cmd.AddCommand(newDeleteCommand(store))
	return cmd
}

func newSetCommand(store func() Store) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Store an ingest key",
		Long: `Store an ingest key under <name>. The value is read from stdin; on a
terminal it is prompted for without echo.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return shared.NewConfigError("key name must not be blank", nil)
			}

			value, err := readSecret(cmd)
			if err != nil {
				return err
			}
			if value == "" {
				return shared.NewConfigError("ingest key must not be empty", nil)
			}

			if err := store().Set(cmd.Context(), name, value); err != nil {
				return keychainError(err)
			}
			cmd.Printf("Stored %s. Reference it in config as keychain:%s\n", name, name)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newDeleteCommand(store func() Store) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored ingest key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store().Delete(cmd.Context(), args[0]); err != nil {
				return keychainError(err)
			}
			cmd.Printf("Deleted %s\n", args[0])
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func readSecret(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Ingest key: ")
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read ingest key: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read ingest key: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func keychainError(err error) error {
	if errors.Is(err, secrets.ErrBackendUnavailable) {
		return &shared.ExitError{Code: shared.ExitFailure, Message: "system keychain is unavailable", Cause: err}
	}
	return err
}
