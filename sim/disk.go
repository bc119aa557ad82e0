package sim

// DiskState is the health of a single disk.
type DiskState int

const (
	DiskNormal DiskState = iota
	DiskCrashed
)

func (s DiskState) String() string {
	if s == DiskCrashed {
		return "crashed"
	}
	return "normal"
}

// Disk tracks one disk's state and how long it has been unavailable. All
// times are hours of simulated time; id bounds are the caller's concern.
type Disk struct {
	state DiskState

	lastUpdate  float64
	beginTime   float64 // start of the current healthy epoch
	clock       float64 // time elapsed since beginTime
	repairClock float64 // time spent in the current repair

	unavailStart float64 // when the current outage began
	unavailTotal float64 // completed outages
}

// Init resets the disk to Normal with all clocks at zero.
func (d *Disk) Init() {
	*d = Disk{}
}

func (d *Disk) State() DiskState { return d.state }
func (d *Disk) Crashed() bool    { return d.state == DiskCrashed }

// UpdateClock advances the local clocks to now.
func (d *Disk) UpdateClock(now float64) {
	d.clock += now - d.lastUpdate
	if d.state == DiskCrashed {
		d.repairClock += now - d.lastUpdate
	}
	d.lastUpdate = now
}

// Fail marks the disk crashed at now.
func (d *Disk) Fail(now float64) {
	d.UpdateClock(now)
	if d.state == DiskNormal {
		d.unavailStart = now
	}
	d.state = DiskCrashed
	d.repairClock = 0
}

// Repair marks the disk healthy at now and restarts its local clocks.
func (d *Disk) Repair(now float64) {
	d.UpdateClock(now)
	if d.state == DiskCrashed {
		d.unavailTotal += now - d.unavailStart
	}
	d.state = DiskNormal
	d.beginTime = now
	d.clock = 0
	d.repairClock = 0
}

// UnavailableTime is the total time spent crashed up to now, including an
// outage still in progress.
func (d *Disk) UnavailableTime(now float64) float64 {
	if d.state == DiskCrashed {
		return d.unavailTotal + (now - d.unavailStart)
	}
	return d.unavailTotal
}

// RepairTime is the time spent in the current repair as of the last update.
func (d *Disk) RepairTime() float64 { return d.repairClock }

// Clock is the time elapsed since the disk last came back healthy.
func (d *Disk) Clock() float64 { return d.clock }
