// Package sqlite provides a CGO-free SQLite implementation of the review
// storage interface defined in the internal/store package, backed by
// modernc.org/sqlite. It suits single-node deployments and tests that need a
// real SQL engine without external services.
//
// Timestamps are stored as INTEGER microseconds since the Unix epoch and
// identifiers as canonical UUID text, so ordering by either column matches
// the PostgreSQL implementation.
package sqlite
