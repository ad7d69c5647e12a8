package model

import "time"

// GPSStatus is the fix quality reported with a location.
type GPSStatus string

const (
	GPSValid   GPSStatus = "VALID"
	GPSInvalid GPSStatus = "INVALID"
	GPSNoData  GPSStatus = "NO_DATA"
)

// DeviceFlags are the optional status bits a terminal reports with a location.
// A nil pointer means the terminal did not report the flag at all.
type DeviceFlags struct {
	IgnitionKeyOff *bool `json:"ignitionKeyOff,omitempty"`
	OfflineRecord  *bool `json:"offlineRecord,omitempty"`
	InvalidRTC     *bool `json:"invalidRtc,omitempty"`
}

// Bool returns a pointer to v, for building DeviceFlags.
func Bool(v bool) *bool {
	return &v
}

// IsSet reports whether the flag was reported and true.
func IsSet(flag *bool) bool {
	return flag != nil && *flag
}

// LocationMessage is a position report.
type LocationMessage struct {
	Header
	DeviceID   string
	Timestamp  time.Time
	Latitude   float64
	Longitude  float64
	Speed      float64 // km/h
	Heading    float64
	Distance   float64 // odometer, metres
	Satellites int
	GPSStatus  GPSStatus
	AlarmCode  int
	Sequence   uint16
	Flags      DeviceFlags
}

func (*LocationMessage) Kind() MessageKind { return KindLocation }

// WithDeviceID returns a copy of the message bound to deviceID. Protocols that
// identify the terminal only at login rely on the connection to supply it.
func (m *LocationMessage) WithDeviceID(deviceID string) *LocationMessage {
	out := *m
	out.DeviceID = deviceID
	return &out
}
