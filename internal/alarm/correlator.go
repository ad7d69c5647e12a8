package alarm

import (
	"telematics/internal/core/model"
)

// Correlate builds the alert for a location report whose alarm code is in the
// catalog. It has no side effects; the alert id is left to persistence.
func Correlate(msg model.Message, catalog *Catalog) (*model.Alert, bool) {
	loc, ok := msg.(*model.LocationMessage)
	if !ok {
		return nil, false
	}

	entry, ok := catalog.Lookup(loc.AlarmCode)
	if !ok {
		return nil, false
	}

	return &model.Alert{
		DeviceID:    model.DeviceIDOf(loc),
		Description: entry.Description,
		Actions:     entry.Actions,
		EventTime:   loc.Timestamp,
		Extra: map[string]interface{}{
			"alarmCode": loc.AlarmCode,
			"distance":  loc.Distance,
			"protocol":  loc.Protocol(),
		},
	}, true
}
