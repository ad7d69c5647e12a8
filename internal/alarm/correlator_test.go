package alarm

import (
	"reflect"
	"testing"
	"time"

	"telematics/internal/core/model"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog([]Entry{
		{Code: 1, Description: "SOS", Actions: []string{"notify", "call"}},
		{Code: 6, Description: "Overspeed", Actions: []string{"notify"}},
	})
	if err != nil {
		t.Fatalf("NewCatalog() unexpected error: %v", err)
	}
	return c
}

func alarmLocation(code int) *model.LocationMessage {
	return &model.LocationMessage{
		Header:    model.NewHeader("xtakip", 1, nil, nil, nil),
		DeviceID:  "dev-1",
		Timestamp: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Distance:  1200,
		GPSStatus: model.GPSValid,
		AlarmCode: code,
	}
}

func TestCorrelate(t *testing.T) {
	c := testCatalog(t)

	alert, ok := Correlate(alarmLocation(1), c)
	if !ok {
		t.Fatal("Correlate() found no alert")
	}

	want := &model.Alert{
		DeviceID:    "dev-1",
		Description: "SOS",
		Actions:     []string{"notify", "call"},
		EventTime:   time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Extra: map[string]interface{}{
			"alarmCode": 1,
			"distance":  1200.0,
			"protocol":  "xtakip",
		},
	}
	if !reflect.DeepEqual(alert, want) {
		t.Errorf("Correlate() = %+v, want %+v", alert, want)
	}

	again, _ := Correlate(alarmLocation(1), c)
	if !reflect.DeepEqual(alert, again) {
		t.Errorf("Correlate() is not repeatable: %+v vs %+v", alert, again)
	}

	alert.Actions[0] = "mutated"
	if e, _ := c.Lookup(1); e.Actions[0] != "notify" {
		t.Errorf("emitted alert shares actions with the catalog")
	}
}

func TestCorrelateCodeZero(t *testing.T) {
	c, err := NewCatalog([]Entry{{Code: 0, Description: "Normal report", Actions: []string{"log"}}})
	if err != nil {
		t.Fatalf("NewCatalog() unexpected error: %v", err)
	}

	alert, ok := Correlate(alarmLocation(0), c)
	if !ok {
		t.Fatal("Correlate() found no alert for catalogued code 0")
	}
	if alert.Description != "Normal report" {
		t.Errorf("Description = %q, want %q", alert.Description, "Normal report")
	}
}

func TestCorrelateNoAlert(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		name    string
		msg     model.Message
		catalog *Catalog
	}{
		{name: "unknown code", msg: alarmLocation(99), catalog: c},
		{name: "no alarm", msg: alarmLocation(0), catalog: c},
		{name: "heartbeat", msg: &model.HeartbeatMessage{Header: model.NewHeader("gt06", 0x13, nil, nil, nil)}, catalog: c},
		{name: "nil catalog", msg: alarmLocation(1), catalog: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if alert, ok := Correlate(tt.msg, tt.catalog); ok || alert != nil {
				t.Errorf("Correlate() = %+v, %v, want nothing", alert, ok)
			}
		})
	}
}

func TestCorrelateOfflineRecord(t *testing.T) {
	msg := alarmLocation(6)
	msg.Flags.OfflineRecord = model.Bool(true)

	if _, ok := Correlate(msg, testCatalog(t)); !ok {
		t.Error("Correlate() skipped an offline record")
	}
}
