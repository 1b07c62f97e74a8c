// Package domain contains the core business entities, value objects, and
// domain logic of the application. It represents the heart of the system,
// independent of any specific infrastructure or delivery mechanism.
//
// The scheduling model itself lives in the srs subpackage; this package wraps
// it with ownership, item references and the records exchanged with stores.
package domain
