package trace

import (
	"testing"
)

func TestSimulationTrace_RecordRepair_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for repairs
	st := NewSimulationTrace(TraceLevelRepairs)

	// WHEN a repair record is recorded
	st.RecordRepair(RepairRecord{Time: 12, Disk: 4, Mode: "eager", Stripes: 30, Download: 120, Bandwidth: 125, Duration: 0.07})

	// THEN the trace contains one repair record with correct data
	if len(st.Repairs) != 1 {
		t.Fatalf("expected 1 repair, got %d", len(st.Repairs))
	}
	if st.Repairs[0].Disk != 4 || st.Repairs[0].Mode != "eager" {
		t.Errorf("unexpected record %+v", st.Repairs[0])
	}
}

func TestSimulationTrace_RepairLevelSkipsEvents(t *testing.T) {
	// GIVEN a trace configured for repairs only
	st := NewSimulationTrace(TraceLevelRepairs)

	// WHEN an event batch is recorded
	st.RecordEvent(EventRecord{Time: 1, Kind: "disk failure", Disks: []int{1}})

	// THEN it is dropped
	if len(st.Events) != 0 {
		t.Errorf("expected no events at repairs level, got %d", len(st.Events))
	}
}

func TestSimulationTrace_EventLevelKeepsEverything(t *testing.T) {
	st := NewSimulationTrace(TraceLevelEvents)

	st.RecordEvent(EventRecord{Time: 1, Kind: "disk failure", Disks: []int{1, 2}})
	st.RecordWait(WaitRecord{Time: 1, Disk: 2, Mode: "eager"})
	st.RecordRepair(RepairRecord{Time: 1, Disk: 1, Mode: "eager"})

	if len(st.Events) != 1 || len(st.Waits) != 1 || len(st.Repairs) != 1 {
		t.Errorf("expected one of each record, got events=%d waits=%d repairs=%d",
			len(st.Events), len(st.Waits), len(st.Repairs))
	}
}

func TestSimulationTrace_NoneLevelRecordsNothing(t *testing.T) {
	st := NewSimulationTrace(TraceLevelNone)

	st.RecordEvent(EventRecord{Kind: "disk failure"})
	st.RecordRepair(RepairRecord{Disk: 1})
	st.RecordWait(WaitRecord{Disk: 1})

	if len(st.Events)+len(st.Repairs)+len(st.Waits) != 0 {
		t.Error("expected nothing recorded at none level")
	}
}

func TestSimulationTrace_Reset_KeepsLevel(t *testing.T) {
	st := NewSimulationTrace(TraceLevelEvents)
	st.RecordEvent(EventRecord{Kind: "disk repair", Disks: []int{3}})

	st.Reset()

	if len(st.Events) != 0 {
		t.Errorf("expected events cleared, got %d", len(st.Events))
	}
	if st.Level != TraceLevelEvents {
		t.Errorf("expected level preserved, got %s", st.Level)
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	for _, level := range []string{"", "none", "repairs", "events"} {
		if !IsValidTraceLevel(level) {
			t.Errorf("expected %q to be valid", level)
		}
	}
	if IsValidTraceLevel("decisions") {
		t.Error("expected decisions to be invalid")
	}
}
