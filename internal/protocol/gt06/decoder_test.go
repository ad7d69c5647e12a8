package gt06

import (
	"errors"
	"testing"
	"time"

	"telematics/internal/core/model"
	"telematics/internal/protocol"
)

// gpsBlock is 2023-10-15 12:34:56, 9 satellites, 22.5N 114.25E, 60 km/h, course 180, positioned.
var gpsBlock = []byte{
	0x17, 0x0A, 0x0F, 0x0C, 0x22, 0x38, // Date time
	0xC9,                   // GPS info length / satellites
	0x02, 0x69, 0xFB, 0x20, // Latitude
	0x0C, 0x41, 0xF8, 0x50, // Longitude
	0x3C,       // Speed
	0x14, 0xB4, // Course / status
}

var lbsBlock = []byte{0x01, 0xCC, 0x00, 0x28, 0x7D, 0x00, 0x1F, 0xB8}

func buildPacket(typ byte, content []byte, serial uint16) []byte {
	pkt := []byte{startByte1, startByte2, byte(len(content) + 5), typ}
	pkt = append(pkt, content...)
	pkt = append(pkt, byte(serial>>8), byte(serial))
	crc := CalculateChecksum(pkt[2:])
	return append(pkt, byte(crc>>8), byte(crc), endByte1, endByte2)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestLoginDecoder(t *testing.T) {
	data := []byte{
		0x78, 0x78, // Start bytes
		0x0D,       // Packet length
		0x01,       // Protocol number (login)
		0x01, 0x23, 0x45, 0x67, 0x89, 0x01, 0x23, 0x45, // Terminal ID
		0x00, 0x01, // Serial number
		0x8C, 0xDD, // Checksum
		0x0D, 0x0A, // End bytes
	}

	msg, err := NewLoginDecoder(Options{VerifyChecksum: true}).Decode(data)
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}

	login, ok := msg.(*model.LoginMessage)
	if !ok {
		t.Fatalf("Decode() returned %T, want *model.LoginMessage", msg)
	}
	if login.Serial != "123456789012345" {
		t.Errorf("Serial = %q, want %q", login.Serial, "123456789012345")
	}
	if login.Device() == nil || login.Device().ID != login.Serial {
		t.Errorf("Device() = %v, want id %s", login.Device(), login.Serial)
	}
	if login.Protocol() != ProtocolName || login.Type() != loginMsg {
		t.Errorf("header = %s/0x%02x, want gt06/0x01", login.Protocol(), login.Type())
	}
	if login.Sequence != 1 {
		t.Errorf("Sequence = %d, want 1", login.Sequence)
	}
}

func TestLocationDecoder(t *testing.T) {
	data := []byte{
		0x78, 0x78, 0x1F, 0x12,
		0x17, 0x0A, 0x0F, 0x0C, 0x22, 0x38,
		0xC9,
		0x02, 0x69, 0xFB, 0x20,
		0x0C, 0x41, 0xF8, 0x50,
		0x3C,
		0x14, 0xB4,
		0x01, 0xCC, 0x00, 0x28, 0x7D, 0x00, 0x1F, 0xB8,
		0x00, 0x03,
		0xA8, 0x4A,
		0x0D, 0x0A,
	}

	msg, err := NewLocationDecoder(Options{VerifyChecksum: true}).Decode(data)
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	loc := msg.(*model.LocationMessage)

	want := &model.LocationMessage{
		Timestamp:  time.Date(2023, 10, 15, 12, 34, 56, 0, time.UTC),
		Latitude:   22.5,
		Longitude:  114.25,
		Speed:      60,
		Heading:    180,
		Satellites: 9,
		GPSStatus:  model.GPSValid,
		Sequence:   3,
	}
	compareLocation(t, loc, want)

	if loc.Flags.IgnitionKeyOff != nil || loc.Flags.OfflineRecord != nil {
		t.Errorf("Flags = %+v, want none reported", loc.Flags)
	}
	if got := loc.Attributes()["mcc"]; got != 460 {
		t.Errorf("mcc = %v, want 460", got)
	}
}

func TestLocationDecoderHemispheresAndFix(t *testing.T) {
	gps := append([]byte(nil), gpsBlock...)
	// south, west, not positioned
	gps[16], gps[17] = 0x08, 0xB4
	data := buildPacket(locationMsg, concat(gps, lbsBlock), 7)

	msg, err := NewLocationDecoder(Options{VerifyChecksum: true}).Decode(data)
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	loc := msg.(*model.LocationMessage)
	if !almostEqual(loc.Latitude, -22.5, 0.0001) || !almostEqual(loc.Longitude, -114.25, 0.0001) {
		t.Errorf("position = %v,%v, want -22.5,-114.25", loc.Latitude, loc.Longitude)
	}
	if loc.GPSStatus != model.GPSInvalid {
		t.Errorf("GPSStatus = %s, want %s", loc.GPSStatus, model.GPSInvalid)
	}

	gps[6] = 0x00
	msg, err = NewLocationDecoder(Options{VerifyChecksum: true}).Decode(buildPacket(locationMsg, concat(gps, lbsBlock), 8))
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if got := msg.(*model.LocationMessage).GPSStatus; got != model.GPSNoData {
		t.Errorf("GPSStatus = %s, want %s", got, model.GPSNoData)
	}
}

func TestStatusDecoder(t *testing.T) {
	data := []byte{
		0x78, 0x78, // Start bytes
		0x0A,       // Packet length
		0x13,       // Protocol number (status)
		0x06,       // Terminal info (ACC high, charging)
		0x04,       // Voltage level
		0x04,       // GSM signal
		0x00, 0x02, // Alarm / language
		0x00, 0x05, // Serial number
		0x03, 0x1B, // Checksum
		0x0D, 0x0A, // End bytes
	}

	msg, err := NewStatusDecoder(Options{VerifyChecksum: true}).Decode(data)
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	hb, ok := msg.(*model.HeartbeatMessage)
	if !ok {
		t.Fatalf("Decode() returned %T, want *model.HeartbeatMessage", msg)
	}
	if hb.Sequence != 5 {
		t.Errorf("Sequence = %d, want 5", hb.Sequence)
	}
	if hb.Device() != nil {
		t.Errorf("Device() = %v, want nil", hb.Device())
	}

	attrs := hb.Attributes()
	wantAttrs := map[string]interface{}{
		"ignition":     true,
		"charging":     true,
		"defence":      false,
		"voltageLevel": 4,
		"gsmSignal":    4,
		"alarm":        "none",
	}
	for k, v := range wantAttrs {
		if attrs[k] != v {
			t.Errorf("attribute %s = %v, want %v", k, attrs[k], v)
		}
	}
}

func TestAlarmDecoder(t *testing.T) {
	content := concat(
		gpsBlock,
		[]byte{0x09}, // LBS length
		lbsBlock,
		[]byte{0x04},       // Terminal info: ACC low, charging
		[]byte{0x03, 0x02}, // Voltage, GSM
		[]byte{sosAlarm, 0x02},
	)
	data := buildPacket(alarmMsg, content, 0x0007)

	msg, err := NewAlarmDecoder(Options{VerifyChecksum: true}).Decode(data)
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	loc := msg.(*model.LocationMessage)
	if loc.AlarmCode != sosAlarm {
		t.Errorf("AlarmCode = %d, want %d", loc.AlarmCode, sosAlarm)
	}
	if !model.IsSet(loc.Flags.IgnitionKeyOff) {
		t.Errorf("IgnitionKeyOff = %v, want true", loc.Flags.IgnitionKeyOff)
	}
	if got := loc.Attributes()["alarm"]; got != "sos" {
		t.Errorf("alarm attribute = %v, want sos", got)
	}
	if loc.Type() != alarmMsg {
		t.Errorf("Type() = 0x%02x, want 0x%02x", loc.Type(), alarmMsg)
	}
}

func TestGT100LocationDecoder(t *testing.T) {
	tests := []struct {
		name        string
		acc         byte
		reupload    byte
		wantKeyOff  bool
		wantOffline bool
	}{
		{name: "realtime ignition on", acc: 0x01, reupload: 0x00, wantKeyOff: false, wantOffline: false},
		{name: "buffered ignition off", acc: 0x00, reupload: 0x01, wantKeyOff: true, wantOffline: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := concat(
				gpsBlock,
				lbsBlock,
				[]byte{tt.acc, 0x00, tt.reupload},
				[]byte{0x00, 0x01, 0xE2, 0x40}, // Mileage 123456 m
			)
			msg, err := NewGT100LocationDecoder(Options{VerifyChecksum: true}).Decode(buildPacket(gt100LocMsg, content, 9))
			if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}
			loc := msg.(*model.LocationMessage)
			if loc.Flags.IgnitionKeyOff == nil || *loc.Flags.IgnitionKeyOff != tt.wantKeyOff {
				t.Errorf("IgnitionKeyOff = %v, want %v", loc.Flags.IgnitionKeyOff, tt.wantKeyOff)
			}
			if loc.Flags.OfflineRecord == nil || *loc.Flags.OfflineRecord != tt.wantOffline {
				t.Errorf("OfflineRecord = %v, want %v", loc.Flags.OfflineRecord, tt.wantOffline)
			}
			if loc.Distance != 123456 {
				t.Errorf("Distance = %v, want 123456", loc.Distance)
			}
		})
	}
}

func TestCommandDecoder(t *testing.T) {
	content := concat([]byte{0x06}, []byte{0x00, 0x00, 0x00, 0x2A}, []byte("OK"), []byte{0x00, 0x02})
	msg, err := NewCommandDecoder(Options{VerifyChecksum: true}).Decode(buildPacket(commandReply, content, 2))
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	cmd := msg.(*model.CommandMessage)
	if cmd.CommandID != "42" || cmd.Result != "OK" {
		t.Errorf("command = %s/%q, want 42/\"OK\"", cmd.CommandID, cmd.Result)
	}
}

func TestDecodeErrors(t *testing.T) {
	location := buildPacket(locationMsg, concat(gpsBlock, lbsBlock), 3)

	badStop := append([]byte(nil), location...)
	badStop[len(badStop)-1] = 0x0C

	badChecksum := append([]byte(nil), location...)
	badChecksum[len(badChecksum)-4] ^= 0xFF

	overDeclared := append([]byte(nil), location...)
	overDeclared[2] = 0x40

	badDate := append([]byte(nil), gpsBlock...)
	badDate[1] = 0x13

	tests := []struct {
		name      string
		data      []byte
		wantField string
	}{
		{name: "packet too short", data: []byte{0x78, 0x78, 0x1F, 0x12}, wantField: "length"},
		{name: "truncated location", data: location[:20], wantField: "length"},
		{name: "declared length exceeds buffer", data: overDeclared, wantField: "length"},
		{name: "malformed end bytes", data: badStop, wantField: "stop"},
		{name: "invalid checksum", data: badChecksum, wantField: "checksum"},
		{name: "invalid header", data: append([]byte{0x79, 0x79}, location[2:]...), wantField: "start"},
		{name: "invalid month", data: buildPacket(locationMsg, concat(badDate, lbsBlock), 3), wantField: "datetime"},
	}

	decoder := NewLocationDecoder(Options{VerifyChecksum: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decoder.Decode(tt.data)
			if !errors.Is(err, protocol.ErrMalformedFrame) {
				t.Fatalf("Decode() error = %v, want ErrMalformedFrame", err)
			}
			var fe *protocol.FrameError
			if !errors.As(err, &fe) || fe.Field != tt.wantField {
				t.Errorf("Decode() error field = %v, want %s", err, tt.wantField)
			}
		})
	}
}

func TestChecksumVerificationDisabled(t *testing.T) {
	data := buildPacket(locationMsg, concat(gpsBlock, lbsBlock), 3)
	data[len(data)-3] ^= 0xFF

	if _, err := NewLocationDecoder(Options{}).Decode(data); err != nil {
		t.Errorf("Decode() unexpected error with verification disabled: %v", err)
	}
}

func TestTrailingBytesIgnored(t *testing.T) {
	data := append(buildPacket(loginMsg, []byte{0x08, 0x68, 0x12, 0x01, 0x45, 0x23, 0x35, 0x87}, 0x1A2B), 0xFF, 0xFF)

	msg, err := NewLoginDecoder(Options{VerifyChecksum: true}).Decode(data)
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if got := len(msg.Raw()); got != 18 {
		t.Errorf("len(Raw()) = %d, want 18", got)
	}
}

func TestMatch(t *testing.T) {
	login := NewLoginDecoder(Options{})
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "login", data: []byte{0x78, 0x78, 0x0D, 0x01}, want: true},
		{name: "other type", data: []byte{0x78, 0x78, 0x0D, 0x12}, want: false},
		{name: "other magic", data: []byte{0x79, 0x79, 0x0D, 0x01}, want: false},
		{name: "text frame", data: []byte("*HQ,1,V1#"), want: false},
		{name: "too short", data: []byte{0x78, 0x78, 0x0D}, want: false},
		{name: "empty", data: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := login.Match(tt.data); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShortBuffersNeverPanic(t *testing.T) {
	full := buildPacket(alarmMsg, concat(gpsBlock, []byte{0x09}, lbsBlock, []byte{0x04, 0x03, 0x02, 0x01, 0x02}), 1)
	for _, d := range Family(Options{VerifyChecksum: true}).Decoders {
		for n := 0; n < len(full); n++ {
			if _, err := d.Decode(full[:n]); err == nil {
				t.Errorf("%s: Decode(%d bytes) succeeded", d.Name(), n)
			}
		}
	}
}

func TestCalculateChecksum(t *testing.T) {
	if got := CalculateChecksum([]byte("123456789")); got != 0x906E {
		t.Errorf("CalculateChecksum() = 0x%04x, want 0x906e", got)
	}
	if got := CalculateChecksum([]byte{0x05, 0x01, 0x00, 0x01}); got != 0xD9DC {
		t.Errorf("CalculateChecksum() = 0x%04x, want 0xd9dc", got)
	}
}

func compareLocation(t *testing.T, got, want *model.LocationMessage) {
	t.Helper()
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
	if !almostEqual(got.Latitude, want.Latitude, 0.0001) {
		t.Errorf("Latitude = %v, want %v", got.Latitude, want.Latitude)
	}
	if !almostEqual(got.Longitude, want.Longitude, 0.0001) {
		t.Errorf("Longitude = %v, want %v", got.Longitude, want.Longitude)
	}
	if !almostEqual(got.Speed, want.Speed, 0.1) {
		t.Errorf("Speed = %v, want %v", got.Speed, want.Speed)
	}
	if !almostEqual(got.Heading, want.Heading, 0.1) {
		t.Errorf("Heading = %v, want %v", got.Heading, want.Heading)
	}
	if got.Satellites != want.Satellites {
		t.Errorf("Satellites = %v, want %v", got.Satellites, want.Satellites)
	}
	if got.GPSStatus != want.GPSStatus {
		t.Errorf("GPSStatus = %v, want %v", got.GPSStatus, want.GPSStatus)
	}
	if got.Sequence != want.Sequence {
		t.Errorf("Sequence = %v, want %v", got.Sequence, want.Sequence)
	}
}

// Helper function for floating point comparison
func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
