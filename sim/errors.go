package sim

import "errors"

var (
	// ErrDiskOutOfRange is returned for disk ids outside [0, num_disks).
	ErrDiskOutOfRange = errors.New("disk id out of range")
	// ErrRackOutOfRange is returned for rack ids outside [0, num_racks).
	ErrRackOutOfRange = errors.New("rack id out of range")
	// ErrBandwidthOutOfRange is returned when an update would leave available
	// bandwidth below zero or above the pool maximum.
	ErrBandwidthOutOfRange = errors.New("bandwidth out of range")
	// ErrUnknownEventKind is returned for event kinds the state machine does not handle.
	ErrUnknownEventKind = errors.New("unknown event kind")
	// ErrMissingTrace is returned when the configuration asks for a failure
	// trace but none was supplied.
	ErrMissingTrace = errors.New("failure trace required but not loaded")
)
