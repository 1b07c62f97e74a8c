// Package srs implements the spaced repetition scheduler.
//
// A Card carries a continuous memory state (stability, difficulty) and a
// discrete learning state (New, Learning, Review, Relearning). Each review
// rating advances the card through a single transition table and yields the
// time the card is next due. Learning and Relearning cards come back within
// minutes; Review cards come back after a whole number of days derived from
// their stability.
//
// The package performs no I/O. All model weights are injected through Params,
// so several parameter sets can coexist in one process.
package srs
