// Package testdb provides helpers for integration tests that need a real
// PostgreSQL database.
//
// Tests using it are built with the integration tag and skip themselves
// when neither DATABASE_URL nor SCRY_TEST_DB_URL is set. The schema is
// brought up to date with the same embedded goose migrations the server
// binary runs.
package testdb
