// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/bureau-foundation/jagcache/lib/bzip"
	"github.com/bureau-foundation/jagcache/lib/config"
	"github.com/bureau-foundation/jagcache/lib/store"
)

// CacheFlags locates a cache directory. Commands that read or write a
// store embed it in their params; the directory falls back to
// cache.directory from the configuration.
type CacheFlags struct {
	Store string `json:"store" flag:"store" desc:"cache directory (default: cache.directory from config)"`
}

// Directory returns the cache directory to operate on.
func (f *CacheFlags) Directory(cfg *config.Config) (string, error) {
	if f.Store != "" {
		return f.Store, nil
	}
	if cfg.Cache.Directory != "" {
		return cfg.Cache.Directory, nil
	}
	return "", Validation("no cache directory: pass --store or set cache.directory in the config")
}

// FileNames returns the on-disk names configured for cache directories.
func FileNames(cfg *config.Config) store.FileNames {
	return store.FileNames{
		Data:        cfg.Cache.DataFile,
		IndexPrefix: cfg.Cache.IndexPrefix,
	}
}

// Compressor returns the bzip2 adapter for the configured block size.
func Compressor(cfg *config.Config) (*bzip.Codec, error) {
	codec, err := bzip.New(cfg.Cache.Bzip2BlockSize)
	if err != nil {
		return nil, Validation("cache.bzip2_block_size: %w", err)
	}
	return codec, nil
}

// OpenStore opens the cache directory selected by flags.
func (f *CacheFlags) OpenStore(cfg *config.Config) (*store.FileStore, string, error) {
	directory, err := f.Directory(cfg)
	if err != nil {
		return nil, "", err
	}
	fileStore, err := store.Open(directory, FileNames(cfg))
	if err != nil {
		return nil, "", fmt.Errorf("opening cache %s: %w", directory, err)
	}
	return fileStore, directory, nil
}
