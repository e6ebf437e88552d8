// Package database implements the PostgreSQL-backed evaluation store.
//
// Single-row operations are atomic per statement; the read-modify-write
// sequences of the evaluation services run inside InTx with row locks and
// per-reviewer advisory locks, so counters cannot drift from the state rows
// under concurrent access. Counter updates are single clamped UPDATE
// statements (GREATEST(count + delta, 0)) rather than separate read and
// write steps.
package database
