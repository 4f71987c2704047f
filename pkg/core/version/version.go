// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     version
// Description: Version information for the CLI and its components
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Component versions
const (
	Souffleur = "0.3.0"
	Listener  = "0.3.0"
	Dispatch  = "0.2.0"
	Store     = "0.1.0"
)

// Set at build time via -ldflags "-X ...version.Commit=..."
var (
	Commit    = "dev"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "listener":
		return Listener
	case "dispatch":
		return Dispatch
	case "store":
		return Store
	default:
		return Souffleur
	}
}

// String returns a one-line description of the build
func String() string {
	return fmt.Sprintf("souffleur %s (commit %s, built %s, %s/%s)",
		Souffleur, Commit, BuildDate, runtime.GOOS, runtime.GOARCH)
}
