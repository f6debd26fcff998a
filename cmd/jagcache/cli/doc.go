// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the jagcache CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a params struct whose tagged
// fields become pflag flags (see [BindFlags]), and a Run function that
// receives a context and a scoped [log/slog.Logger]. Commands are
// assembled into a tree in cmd/jagcache/commands and dispatched via
// [Command.Execute], which handles flag parsing, subcommand routing, and
// structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3).
//
// Errors carry a [ToolError] category. Cache errors from lib/cacheerr
// are classified by kind, and [ExitCode] maps categories to process
// exit codes: not-found lookups exit 2, everything else exits 1.
//
// [CacheFlags] is the shared --store flag group; together with
// [FileNames] and [Compressor] it turns the loaded configuration into
// an opened store and a bzip2 adapter.
package cli
