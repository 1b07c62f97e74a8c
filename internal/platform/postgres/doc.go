// Package postgres provides the PostgreSQL implementation of the review
// storage interface defined in the internal/store package, using the pgx
// driver through database/sql.
//
// Schema changes live in migrations/ as goose SQL files embedded in the
// binary; Migrate applies them.
package postgres
