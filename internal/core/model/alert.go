package model

import "time"

// Alert is raised when a location report carries an alarm code known to the catalog.
type Alert struct {
	ID          string                 `json:"id,omitempty" bson:"id,omitempty"`
	DeviceID    string                 `json:"deviceId" bson:"deviceid"`
	Description string                 `json:"description" bson:"description"`
	Actions     []string               `json:"actions" bson:"actions"`
	EventTime   time.Time              `json:"eventTime" bson:"eventtime"`
	Extra       map[string]interface{} `json:"extra,omitempty" bson:"extra,omitempty"`
}

// Command is an outbound instruction queued for a device until its next report.
type Command struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"deviceId"`
	Type      string    `json:"type,omitempty"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}
