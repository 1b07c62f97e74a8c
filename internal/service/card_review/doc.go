// Package card_review coordinates review storage with the scheduler.
//
// It is the only writer of scheduling state: every rating is applied under a
// per-item lock inside a storage transaction, so concurrent reviews of the
// same item are never lost and never interleave.
package card_review
