// Package evaluation holds the candidate evaluation services: the reaction
// toggle service, the star slot allocator, and the board read model.
//
// Both write services run their read-modify-write sequences inside a single
// store transaction, so the per-candidate aggregate counters stay consistent
// with the underlying per-reviewer rows under concurrent access.
package evaluation
