package model

import (
	"time"
)

// DeviceStatus is the computed operating status of a device.
type DeviceStatus string

const (
	StatusMoving         DeviceStatus = "MOVING"
	StatusParked         DeviceStatus = "PARKED"
	StatusConnectionLost DeviceStatus = "CONNECTION_LOST"
)

// Device is the identity a frame carries.
type Device struct {
	ID       string `json:"id"`
	Protocol string `json:"protocol"`
}

// DeviceState is the canonical snapshot of a device built from one location report.
type DeviceState struct {
	DeviceID          string       `json:"deviceId" bson:"deviceid"`
	Latitude          float64      `json:"latitude" bson:"latitude"`
	Longitude         float64      `json:"longitude" bson:"longitude"`
	Speed             float64      `json:"speed" bson:"speed"`
	Direction         float64      `json:"direction" bson:"direction"`
	Distance          float64      `json:"distance" bson:"distance"`
	CreatedAt         time.Time    `json:"createdAt" bson:"createdat"`
	UpdatedAt         time.Time    `json:"updatedAt" bson:"updatedat"`
	DeviceDate        time.Time    `json:"deviceDate" bson:"devicedate"`
	IgnitionKeyOff    bool         `json:"ignitionKeyOff" bson:"ignitionkeyoff"`
	InvalidDeviceDate bool         `json:"invalidDeviceDate" bson:"invaliddevicedate"`
	GPSStatus         GPSStatus    `json:"gpsStatus" bson:"gpsstatus"`
	Status            DeviceStatus `json:"status" bson:"status"`
}
