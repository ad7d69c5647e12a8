// Package h02 implements the H02 text protocol (*HQ,...#).
package h02

import (
	"strconv"
	"strings"
	"time"

	"telematics/internal/core/model"
	"telematics/internal/protocol"
)

// ProtocolName is the family name used in messages and the registry.
const ProtocolName = "h02"

// H02 protocol constants
const (
	startSequence = "*HQ"
	endByte       = '#'

	// H02 protocol message types
	infoReport = "V1"
	heartbeat  = "HTBT"

	infoReportType = 1
	heartbeatType  = 2

	// id, V1, time, validity, lat, N|S, lon, E|W, speed, course, date, status
	infoReportFields = 12

	knotsToKmh = 1.852

	// Status word bits, cleared when active
	statusSOS       = 1 << 1
	statusOverspeed = 1 << 2
	statusPowerCut  = 1 << 3
	statusACCOff    = 1 << 10

	// Alarm codes shared with the GT06 catalog
	sosAlarm       = 0x01
	powerCutAlarm  = 0x02
	overspeedAlarm = 0x06
)

// Decoder decodes one H02 message type.
type Decoder struct {
	tag    string
	typ    int
	decode func(raw []byte, parts []string) (model.Message, error)
}

func NewInfoReportDecoder() *Decoder {
	return &Decoder{tag: infoReport, typ: infoReportType, decode: decodeInfoReport}
}

func NewHeartbeatDecoder() *Decoder {
	return &Decoder{tag: heartbeat, typ: heartbeatType, decode: decodeHeartbeat}
}

// Family returns the H02 decoders with their reply encoder.
func Family() protocol.Family {
	return protocol.Family{
		Name:     ProtocolName,
		Decoders: []protocol.Decoder{NewInfoReportDecoder(), NewHeartbeatDecoder()},
		Replies:  NewReplyEncoder(),
	}
}

func (d *Decoder) Protocol() string { return ProtocolName }

func (d *Decoder) Name() string { return ProtocolName + "/" + d.tag }

func (d *Decoder) Type() int { return d.typ }

// Match checks the *HQ header and the message type token after the device id.
func (d *Decoder) Match(data []byte) bool {
	s := string(data)
	if !strings.HasPrefix(s, startSequence+",") {
		return false
	}
	rest := s[len(startSequence)+1:]
	i := strings.IndexByte(rest, ',')
	if i < 0 {
		return false
	}
	rest = rest[i+1:]
	return strings.HasPrefix(rest, d.tag+",") || strings.HasPrefix(rest, d.tag+string(endByte))
}

func (d *Decoder) Decode(data []byte) (model.Message, error) {
	s := strings.TrimRight(string(data), "\r\n")
	if !strings.HasPrefix(s, startSequence+",") {
		return nil, protocol.Malformed(ProtocolName, "start", "frame does not start with %q", startSequence)
	}
	if len(s) == 0 || s[len(s)-1] != endByte {
		return nil, protocol.Malformed(ProtocolName, "terminator", "frame does not end with %q", endByte)
	}

	// Convert to fields, dropping the header and terminator
	parts := strings.Split(s[len(startSequence)+1:len(s)-1], ",")
	if len(parts) < 2 {
		return nil, protocol.Malformed(ProtocolName, "arity", "got %d fields", len(parts))
	}
	if parts[0] == "" {
		return nil, protocol.Malformed(ProtocolName, "deviceId", "empty device id")
	}
	if parts[1] != d.tag {
		return nil, protocol.Malformed(ProtocolName, "type", "expected %s, got %s", d.tag, parts[1])
	}
	return d.decode(data, parts)
}

func decodeInfoReport(raw []byte, parts []string) (model.Message, error) {
	if len(parts) < infoReportFields {
		return nil, protocol.Malformed(ProtocolName, "arity",
			"V1 report has %d fields, want at least %d", len(parts), infoReportFields)
	}
	deviceID := parts[0]

	ts, err := time.ParseInLocation("020106150405", parts[10]+parts[2], time.UTC)
	if err != nil {
		return nil, protocol.Malformed(ProtocolName, "datetime", "invalid date %q time %q", parts[10], parts[2])
	}

	lat, err := parseCoordinate("latitude", parts[4], 2, 90)
	if err != nil {
		return nil, err
	}
	switch parts[5] {
	case "N":
	case "S":
		lat = -lat
	default:
		return nil, protocol.Malformed(ProtocolName, "latitudeHemisphere", "invalid hemisphere %q", parts[5])
	}

	lon, err := parseCoordinate("longitude", parts[6], 3, 180)
	if err != nil {
		return nil, err
	}
	switch parts[7] {
	case "E":
	case "W":
		lon = -lon
	default:
		return nil, protocol.Malformed(ProtocolName, "longitudeHemisphere", "invalid hemisphere %q", parts[7])
	}

	speed, ok := protocol.ParseFixedPoint(parts[8])
	if !ok {
		return nil, protocol.Malformed(ProtocolName, "speed", "invalid speed %q", parts[8])
	}
	course, ok := protocol.ParseFixedPoint(parts[9])
	if !ok {
		return nil, protocol.Malformed(ProtocolName, "course", "invalid course %q", parts[9])
	}

	status, err := strconv.ParseUint(parts[11], 16, 32)
	if err != nil || len(parts[11]) != 8 {
		return nil, protocol.Malformed(ProtocolName, "status", "invalid status word %q", parts[11])
	}

	var gps model.GPSStatus
	switch {
	case parts[3] == "A":
		gps = model.GPSValid
	case parts[3] == "V" && lat == 0 && lon == 0:
		gps = model.GPSNoData
	case parts[3] == "V":
		gps = model.GPSInvalid
	default:
		return nil, protocol.Malformed(ProtocolName, "validity", "invalid flag %q", parts[3])
	}

	device := &model.Device{ID: deviceID, Protocol: ProtocolName}
	attrs := map[string]interface{}{"status": parts[11]}

	msg := &model.LocationMessage{
		Header:    model.NewHeader(ProtocolName, infoReportType, raw, device, attrs),
		DeviceID:  deviceID,
		Timestamp: ts,
		Latitude:  lat,
		Longitude: lon,
		Speed:     speed * knotsToKmh,
		Heading:   course,
		GPSStatus: gps,
		AlarmCode: alarmCode(uint32(status)),
	}
	msg.Flags.IgnitionKeyOff = model.Bool(status&statusACCOff != 0)
	return msg, nil
}

func decodeHeartbeat(raw []byte, parts []string) (model.Message, error) {
	device := &model.Device{ID: parts[0], Protocol: ProtocolName}
	return &model.HeartbeatMessage{
		Header:   model.NewHeader(ProtocolName, heartbeatType, raw, device, nil),
		DeviceID: parts[0],
	}, nil
}

// alarmCode maps the negative-logic status word to a single alarm code.
func alarmCode(status uint32) int {
	switch {
	case status&statusSOS == 0:
		return sosAlarm
	case status&statusOverspeed == 0:
		return overspeedAlarm
	case status&statusPowerCut == 0:
		return powerCutAlarm
	default:
		return 0
	}
}

// parseCoordinate converts DDMM.MMMM (degLen 2) or DDDMM.MMMM (degLen 3) to decimal degrees
func parseCoordinate(field, coord string, degLen int, limit float64) (float64, error) {
	if len(coord) < degLen+2 {
		return 0, protocol.Malformed(ProtocolName, field, "coordinate %q too short", coord)
	}

	degrees, err := strconv.ParseUint(coord[:degLen], 10, 8)
	if err != nil {
		return 0, protocol.Malformed(ProtocolName, field, "invalid degrees in %q", coord)
	}

	minutes, ok := protocol.ParseFixedPoint(coord[degLen:])
	if !ok || minutes >= 60 {
		return 0, protocol.Malformed(ProtocolName, field, "invalid minutes in %q", coord)
	}

	v := float64(degrees) + (minutes / 60.0)
	if v > limit {
		return 0, protocol.Malformed(ProtocolName, field, "coordinate %.6f out of range", v)
	}
	return v, nil
}
