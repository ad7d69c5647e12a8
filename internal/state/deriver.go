// Package state derives the canonical device operating state from a
// location report.
package state

import (
	"fmt"
	"time"

	"telematics/internal/core/model"
	"telematics/internal/protocol"
)

// Default ignition sentinels: the Concox ACC on / ACC off alarm codes.
const (
	DefaultIgnitionOnAlarm  = 0xFE
	DefaultIgnitionOffAlarm = 0xFF
)

// Skip explains why Derive produced no state.
type Skip int

const (
	SkipNone Skip = iota
	SkipNoGPSData
	SkipOfflineRecord
)

func (s Skip) String() string {
	switch s {
	case SkipNone:
		return "none"
	case SkipNoGPSData:
		return "no_gps_data"
	case SkipOfflineRecord:
		return "offline_record"
	default:
		return fmt.Sprintf("skip_%d", int(s))
	}
}

// Options configures the ignition sentinels.
type Options struct {
	IgnitionOnAlarm  int
	IgnitionOffAlarm int
}

// DefaultOptions returns the Concox sentinels.
func DefaultOptions() Options {
	return Options{
		IgnitionOnAlarm:  DefaultIgnitionOnAlarm,
		IgnitionOffAlarm: DefaultIgnitionOffAlarm,
	}
}

// Deriver builds DeviceState snapshots. It holds no per-device state and is
// safe for concurrent use.
type Deriver struct {
	opts Options
	now  func() time.Time
}

// Option customises a Deriver.
type Option func(*Deriver)

// WithClock replaces the clock used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Deriver) { d.now = now }
}

func NewDeriver(opts Options, options ...Option) *Deriver {
	d := &Deriver{opts: opts, now: time.Now}
	for _, o := range options {
		o(d)
	}
	return d
}

// Derive returns the state for a location report. It returns a nil state with
// a Skip reason when the report has no GPS data or is a replayed offline record.
func (d *Deriver) Derive(msg model.Message) (*model.DeviceState, Skip, error) {
	loc, ok := msg.(*model.LocationMessage)
	if !ok {
		return nil, SkipNone, fmt.Errorf("%w: cannot derive state from %s message",
			protocol.ErrUnsupportedMessageType, msg.Kind())
	}

	if loc.GPSStatus == model.GPSNoData {
		return nil, SkipNoGPSData, nil
	}
	if model.IsSet(loc.Flags.OfflineRecord) {
		return nil, SkipOfflineRecord, nil
	}

	now := d.now()
	return &model.DeviceState{
		DeviceID:          model.DeviceIDOf(loc),
		Latitude:          loc.Latitude,
		Longitude:         loc.Longitude,
		Speed:             loc.Speed,
		Direction:         loc.Heading,
		Distance:          loc.Distance,
		CreatedAt:         now,
		UpdatedAt:         now,
		DeviceDate:        loc.Timestamp,
		IgnitionKeyOff:    model.IsSet(loc.Flags.IgnitionKeyOff),
		InvalidDeviceDate: model.IsSet(loc.Flags.InvalidRTC),
		GPSStatus:         loc.GPSStatus,
		Status:            d.Status(loc),
	}, SkipNone, nil
}

// Status applies the status priority: ignition sentinels first, then motion or
// a reported ignition flag, otherwise the connection is considered lost.
func (d *Deriver) Status(loc *model.LocationMessage) model.DeviceStatus {
	switch loc.AlarmCode {
	case d.opts.IgnitionOffAlarm:
		return model.StatusParked
	case d.opts.IgnitionOnAlarm:
		return model.StatusMoving
	}

	keyOff := loc.Flags.IgnitionKeyOff
	if loc.Speed != 0 || keyOff != nil {
		if model.IsSet(keyOff) {
			return model.StatusParked
		}
		return model.StatusMoving
	}
	return model.StatusConnectionLost
}
