package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a run. Every random stream of the run
// is derived from it by name, so a key and a configuration fully determine
// the missions that are simulated.
type SimulationKey int64

func NewSimulationKey(seed int64) SimulationKey { return SimulationKey(seed) }

// Derive returns the seed of the named child stream: key XOR fnv1a64(name).
func (k SimulationKey) Derive(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(k) ^ int64(h.Sum64())
}

// Stream names used inside one mission.
const (
	StreamFailures  = "failures"  // time-to-failure draws
	StreamPlacement = "placement" // stripe layouts
)

// StreamWorker names the seed stream of parallel worker id.
func StreamWorker(id int) string { return fmt.Sprintf("worker_%d", id) }

// StreamIteration names the seed stream of mission id of a run.
func StreamIteration(id int) string { return fmt.Sprintf("iteration_%d", id) }

// Streams hands out one generator per stream name, created lazily and seeded
// from the key. Draws on one stream never shift another, so adding a
// placement draw does not change the failure times of a mission.
// Not safe for concurrent use.
type Streams struct {
	key  SimulationKey
	rngs map[string]*rand.Rand
}

func NewStreams(key SimulationKey) *Streams {
	return &Streams{key: key, rngs: make(map[string]*rand.Rand, 2)}
}

// Stream returns the generator for name, the same instance on every call.
func (s *Streams) Stream(name string) *rand.Rand {
	rng, ok := s.rngs[name]
	if !ok {
		rng = rand.New(rand.NewSource(s.key.Derive(name)))
		s.rngs[name] = rng
	}
	return rng
}

func (s *Streams) Key() SimulationKey { return s.key }
