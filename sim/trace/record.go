// Package trace records what happened during one simulated mission: every
// processed event batch and every admitted repair.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// EventRecord captures one processed batch of same-time, same-kind events.
type EventRecord struct {
	Time  float64 // hours
	Kind  string
	Disks []int
}

// RepairRecord captures one admitted repair wave.
type RepairRecord struct {
	Time      float64 // admission time, hours
	Disk      int     // trigger disk
	Mode      string  // "eager", "lazy" or "followup"
	Stripes   int     // stripes rebuilt by this wave
	Download  float64 // cross-rack chunks transferred
	Bandwidth float64 // MB/s claimed
	Duration  float64 // hours
	Followers int     // disks piggybacked onto this wave
}

// WaitRecord captures a repair request parked for lack of bandwidth.
type WaitRecord struct {
	Time float64
	Disk int
	Mode string
}
