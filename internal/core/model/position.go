package model

import (
	"time"

	"telematics/internal/core/util"
)

type Position struct {
	ID         string                 `json:"id"`
	DeviceID   string                 `json:"deviceId"`
	Timestamp  time.Time              `json:"timestamp"`
	Latitude   float64                `json:"latitude"`
	Longitude  float64                `json:"longitude"`
	Speed      float64                `json:"speed"`
	Course     float64                `json:"course"`
	Distance   float64                `json:"distance"`
	Protocol   string                 `json:"protocol"`
	Valid      bool                   `json:"valid"`      // GPS fix validity
	Satellites int                    `json:"satellites"` // Number of satellites used for fix
	AlarmCode  int                    `json:"alarmCode,omitempty"`
	Status     map[string]interface{} `json:"status,omitempty"` // Additional status information
}

func NewPosition(deviceID string, lat, lon float64) *Position {
	return &Position{
		ID:        util.GenerateID(),
		DeviceID:  deviceID,
		Timestamp: time.Now(),
		Latitude:  lat,
		Longitude: lon,
		Protocol:  "unknown",
		Valid:     true,
		Status:    make(map[string]interface{}),
	}
}

// PositionFromLocation converts a decoded location report into a history point.
func PositionFromLocation(msg *LocationMessage) *Position {
	position := NewPosition(msg.DeviceID, msg.Latitude, msg.Longitude)
	position.Timestamp = msg.Timestamp
	position.Speed = msg.Speed
	position.Course = msg.Heading
	position.Distance = msg.Distance
	position.Protocol = msg.Protocol()
	position.Valid = msg.GPSStatus == GPSValid
	position.Satellites = msg.Satellites
	position.AlarmCode = msg.AlarmCode

	for k, v := range msg.Attributes() {
		position.Status[k] = v
	}
	if msg.Flags.IgnitionKeyOff != nil {
		position.Status["ignition"] = !*msg.Flags.IgnitionKeyOff
	}
	if IsSet(msg.Flags.OfflineRecord) {
		position.Status["offline"] = true
	}

	return position
}
