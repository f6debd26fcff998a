// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Details is the structured form of the build information, emitted by
// "jagcache version --json".
type Details struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	Dirty     bool     `json:"dirty"`
	BuildTime string   `json:"build_time"`
	Go        string   `json:"go"`
	Platform  string   `json:"platform"`
	Modules   []Module `json:"modules,omitempty"`
}

// Module is one dependency linked into the binary.
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Full returns detailed version information including Go version.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number.
func Short() string {
	return Version
}

// Describe returns the build information. Linked module versions come
// from the binary's embedded build info and are absent when the binary
// was built without module support.
func Describe() Details {
	details := Details{
		Version:   Version,
		Commit:    GitCommit,
		Dirty:     GitDirty == "true",
		BuildTime: BuildTime,
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dependency := range info.Deps {
			module := dependency
			if dependency.Replace != nil {
				module = dependency.Replace
			}
			details.Modules = append(details.Modules, Module{Path: module.Path, Version: module.Version})
		}
	}
	return details
}
