// Package preflight validates the environment before any sweep begins.
//
// Configuration problems must surface at startup, never mid-sweep, so the
// daemon and CLI run these checks before touching the work source. Checks
// cover directory access, external binaries, and credentialed APIs.
package preflight
