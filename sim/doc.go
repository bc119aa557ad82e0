// Package sim provides the discrete-event engine that estimates the
// reliability of erasure-coded storage.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event.go: event kinds (disk failure, disk repair, chunk repair, disk replacement)
//   - queue.go: the time-ordered event queue and same-time batching
//   - simulator.go: the mission loop, event dispatch and data-loss checks
//
// Repair admission lives in repair.go (eager, lazy and follow-up routines)
// with the lazy bookkeeping in lazy.go. network.go holds the bandwidth pools
// a repair claims and releases.
//
// # Architecture
//
// The sim package drives one mission at a time; supporting pieces live in
// sub-packages:
//   - sim/code/: erasure-code schemes (replication, RS, LRC, DRC), loss rules and repair traffic
//   - sim/placement/: random stripe placement across racks and data-loss checks
//   - sim/workload/: failure samplers, failure traces and sweep metadata
//   - sim/trace/: per-mission event and repair recording
//   - sim/runner/: parallel execution of many missions with Prometheus counters
//   - sim/report/: PDL, relative error and NOMDL estimation plus text/CSV/JSON output
//
// A Simulator is not safe for concurrent use. Parallel runs build one per
// goroutine, each seeded from its own SimulationKey stream.
package sim
