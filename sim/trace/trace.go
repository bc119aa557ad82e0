package trace

// TraceLevel controls how much of a mission is recorded.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelRepairs records repair admissions and waits.
	TraceLevelRepairs TraceLevel = "repairs"
	// TraceLevelEvents records repairs plus every processed event batch.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelRepairs: true,
	TraceLevelEvents:  true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SimulationTrace collects records during one mission.
type SimulationTrace struct {
	Level   TraceLevel
	Events  []EventRecord
	Repairs []RepairRecord
	Waits   []WaitRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	return &SimulationTrace{
		Level:   level,
		Events:  make([]EventRecord, 0),
		Repairs: make([]RepairRecord, 0),
		Waits:   make([]WaitRecord, 0),
	}
}

// RecordEvent appends an event batch record. Only kept at TraceLevelEvents.
func (st *SimulationTrace) RecordEvent(record EventRecord) {
	if st.Level != TraceLevelEvents {
		return
	}
	st.Events = append(st.Events, record)
}

// RecordRepair appends a repair admission record.
func (st *SimulationTrace) RecordRepair(record RepairRecord) {
	if st.Level == TraceLevelNone || st.Level == "" {
		return
	}
	st.Repairs = append(st.Repairs, record)
}

// RecordWait appends a wait-queue record.
func (st *SimulationTrace) RecordWait(record WaitRecord) {
	if st.Level == TraceLevelNone || st.Level == "" {
		return
	}
	st.Waits = append(st.Waits, record)
}

// Reset drops all records, keeping the level.
func (st *SimulationTrace) Reset() {
	st.Events = st.Events[:0]
	st.Repairs = st.Repairs[:0]
	st.Waits = st.Waits[:0]
}
