// Package larder holds module-level metadata shared by the CLI and
// build tooling.
package larder

// Version is the semantic version of the larder module.
const Version = "0.1.0"
