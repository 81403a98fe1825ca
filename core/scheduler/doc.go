// Package scheduler books charging sessions for a fleet on a fixed set of
// stations over a two-day planning axis. It runs a deterministic greedy loop
// (earliest deadline first) and keeps the total site draw under a power
// ceiling sampled in fixed buckets.
package scheduler
