// Package lock provides a named distributed mutual-exclusion primitive with
// in-memory and Redis implementations. Locks are owned by a random token and
// carry a TTL so a crashed holder can stall other workers for at most the
// lease time; release is token-gated and can therefore never remove a newer
// holder's lock.
package lock
