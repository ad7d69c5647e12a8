package gt06

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"telematics/internal/core/model"
	"telematics/internal/protocol"
)

// frame is a validated GT06 packet: magic, length, type, terminator and
// (optionally) checksum have been checked against the actual buffer.
type frame struct {
	raw     []byte // whole packet, trimmed to the declared length
	typ     byte
	content []byte
	serial  uint16
}

// parseFrame validates the envelope of data. minContent is the content length
// the message type needs; every later read stays within content.
func parseFrame(data []byte, typ byte, minContent int, verify bool) (*frame, error) {
	minLength := minContent + frameOverhead
	if len(data) < minLength {
		return nil, protocol.Malformed(ProtocolName, "length",
			"got %d bytes, need at least %d", len(data), minLength)
	}
	if data[0] != startByte1 || data[1] != startByte2 {
		return nil, protocol.Malformed(ProtocolName, "start",
			"expected 0x%02x%02x, got 0x%02x%02x", startByte1, startByte2, data[0], data[1])
	}
	if data[3] != typ {
		return nil, protocol.Malformed(ProtocolName, "type",
			"expected 0x%02x, got 0x%02x", typ, data[3])
	}

	// start(2) + len(1) + content(length) + end(2)
	total := int(data[2]) + 5
	if total > len(data) {
		return nil, protocol.Malformed(ProtocolName, "length",
			"declared %d bytes, got %d", total, len(data))
	}
	if total < minLength {
		return nil, protocol.Malformed(ProtocolName, "length",
			"declared %d bytes, need at least %d", total, minLength)
	}
	data = data[:total]

	if data[total-2] != endByte1 || data[total-1] != endByte2 {
		return nil, protocol.Malformed(ProtocolName, "stop",
			"invalid end bytes 0x%02x%02x", data[total-2], data[total-1])
	}

	if verify {
		calc := CalculateChecksum(data[2 : total-4])
		recv := binary.BigEndian.Uint16(data[total-4 : total-2])
		if calc != recv {
			return nil, protocol.Malformed(ProtocolName, "checksum",
				"calc=0x%04x, recv=0x%04x", calc, recv)
		}
	}

	return &frame{
		raw:     data,
		typ:     typ,
		content: data[4 : total-6],
		serial:  binary.BigEndian.Uint16(data[total-6 : total-4]),
	}, nil
}

// CalculateChecksum computes the CRC-ITU (X.25) checksum GT06 packets carry
// over the bytes from the length field through the serial number.
func CalculateChecksum(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return ^crc
}

// parseTimestamp reads the binary YY MM DD hh mm ss block at the start of b.
func parseTimestamp(b []byte) (time.Time, error) {
	if len(b) < 6 {
		return time.Time{}, protocol.Malformed(ProtocolName, "datetime", "need 6 bytes, got %d", len(b))
	}
	year := 2000 + int(b[0])
	month, day := int(b[1]), int(b[2])
	hour, minute, second := int(b[3]), int(b[4]), int(b[5])

	if month < 1 || month > 12 || day < 1 || day > 31 ||
		hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, protocol.Malformed(ProtocolName, "datetime",
			"invalid timestamp values % x", b[:6])
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

// parseTerminalID converts the 8 byte BCD terminal id into the IMEI string.
func parseTerminalID(b []byte) string {
	id := hex.EncodeToString(b)
	if len(id) > 15 && id[0] == '0' {
		id = id[1:]
	}
	return id
}

// position holds the GPS block shared by location, alarm and GT100 reports.
type position struct {
	timestamp  time.Time
	satellites int
	status     model.GPSStatus
	latitude   float64
	longitude  float64
	speed      float64
	course     float64
}

// gpsBlockLen is datetime(6) + gps info(1) + lat(4) + lon(4) + speed(1) + course(2).
const gpsBlockLen = 18

func parsePosition(b []byte) (*position, error) {
	if len(b) < gpsBlockLen {
		return nil, protocol.Malformed(ProtocolName, "gps", "need %d bytes, got %d", gpsBlockLen, len(b))
	}

	ts, err := parseTimestamp(b[0:6])
	if err != nil {
		return nil, err
	}

	p := &position{timestamp: ts}

	gpsInfo := b[6]
	p.satellites = int(gpsInfo & 0x0F)

	p.latitude = float64(binary.BigEndian.Uint32(b[7:11])) / 1800000.0
	p.longitude = float64(binary.BigEndian.Uint32(b[11:15])) / 1800000.0
	p.speed = float64(b[15])

	flags := binary.BigEndian.Uint16(b[16:18])
	p.course = float64(flags & 0x03FF)
	if flags&(1<<10) == 0 {
		p.latitude = -p.latitude
	}
	if flags&(1<<11) != 0 {
		p.longitude = -p.longitude
	}

	switch {
	case gpsInfo>>4 == 0:
		p.status = model.GPSNoData
	case flags&(1<<12) != 0:
		p.status = model.GPSValid
	default:
		p.status = model.GPSInvalid
	}

	if p.latitude < -90 || p.latitude > 90 || p.longitude < -180 || p.longitude > 180 {
		return nil, protocol.Malformed(ProtocolName, "gps",
			"coordinates out of range: lat=%.6f, lon=%.6f", p.latitude, p.longitude)
	}

	return p, nil
}

// GetMessageTypeName returns a human-readable name for message types
func GetMessageTypeName(protocolNumber byte) string {
	switch protocolNumber {
	case loginMsg:
		return "login"
	case locationMsg:
		return "location"
	case statusMsg:
		return "status"
	case alarmMsg:
		return "alarm"
	case gt100LocMsg:
		return "gt100_location"
	case commandReply:
		return "command"
	default:
		return fmt.Sprintf("unknown_0x%02x", protocolNumber)
	}
}

// GetAlarmName returns a human-readable name for alarm types
func GetAlarmName(alarmType byte) string {
	switch alarmType {
	case 0x00:
		return "none"
	case sosAlarm:
		return "sos"
	case powerCutAlarm:
		return "powerCut"
	case vibrationAlarm:
		return "vibration"
	case fenceInAlarm:
		return "geofenceEnter"
	case fenceOutAlarm:
		return "geofenceExit"
	case overspeedAlarm:
		return "overspeed"
	case lowBatteryAlarm:
		return "lowBattery"
	case AccOnAlarm:
		return "accOn"
	case AccOffAlarm:
		return "accOff"
	default:
		return fmt.Sprintf("unknown_%02x", alarmType)
	}
}

func messageName(typ byte) string {
	return ProtocolName + "/" + GetMessageTypeName(typ)
}
