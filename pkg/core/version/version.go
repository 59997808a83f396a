// ============================================================================
// mBASIC - Scripting Language Front-End
// ============================================================================
//
// Package:     version
// Description: Central version management for the front-end components
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants for all mBASIC components
const (
	// Platform version
	Platform = "0.1.0"

	// Component versions
	Language = "0.1.0"
	Server   = "0.1.0"
	RPC      = "0.1.0"
	REPL     = "0.1.0"
)

// Set at build time with -ldflags "-X github.com/msto63/mbasic/pkg/core/version.Commit=..."
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "language", "frontend":
		return Language
	case "server":
		return Server
	case "rpc", "grpc":
		return RPC
	case "repl":
		return REPL
	default:
		return Platform
	}
}

// Info returns the one-line version banner
func Info() string {
	return fmt.Sprintf("mbasic %s (commit %s, built %s, %s %s/%s)",
		Platform, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
