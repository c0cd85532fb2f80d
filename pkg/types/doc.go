// Package types defines the tabular store interfaces, the in-memory grid
// model, entity table definitions, and standard errors shared by every
// larder workflow. Backends under internal/ implement the interfaces; the
// reconciliation engine consumes them.
package types
