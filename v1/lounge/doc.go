// Package lounge coordinates a shared waiting room: visitors join an ordered
// waiting list, providers pick them up one at a time, and every examination
// runs to completion exactly once.
//
// The coordinator is the only writer allowed to touch queue positions or
// create examinations. Every operation that reads-then-writes ordering or
// provider-busy state runs under a single global distributed lock; completion
// needs no lock because it only compare-and-swaps the examination status.
package lounge
