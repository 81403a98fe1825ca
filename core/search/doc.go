// Package search enumerates station mixes that fit a budget and a grid
// connection, schedules the fleet on each of them and ranks the outcomes.
// Candidate generation is pluggable through the factory registry; the
// built-in "grid" generator is a bounded brute force over station counts.
package search
