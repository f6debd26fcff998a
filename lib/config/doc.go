// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for jagcache.
//
// Configuration comes from one file: the --config flag, or the
// JAGCACHE_CONFIG environment variable when the flag is absent (both
// via [Load]). Without either, [Default] applies and the CLI works on
// flags alone. There is no automatic file discovery.
//
// Files ending in .json or .jsonc are accepted too; comments and
// trailing commas are stripped with tidwall/jsonc and the result is
// parsed as YAML.
//
// ${HOME} and ${VAR:-default} patterns are expanded in path fields
// after loading. No other environment variables override config
// values.
//
// This package depends on no other jagcache packages.
package config
