// Package xtakip implements the XTakip text protocol: comma separated
// fields wrapped as $$TAG,f1,...,fn##.
package xtakip

import (
	"strconv"
	"strings"
	"time"

	"telematics/internal/core/model"
	"telematics/internal/protocol"
)

// ProtocolName is the family name used in messages and the registry.
const ProtocolName = "xtakip"

const (
	frameStart = "$$"
	frameEnd   = "##"
	delimiter  = ","

	// Message tags
	locationTag      = "L"
	heartbeatTag     = "HX"
	commandResultTag = "OX"
	commandTag       = "CM"

	// Numeric type codes reported by Message.Type
	locationType      = 1
	heartbeatType     = 2
	commandResultType = 3

	dateTimeLayout = "020106150405" // ddMMyyHHmmss
)

// splitFrame validates the envelope and returns the fields after the tag.
// When joinTail is set the last field keeps any embedded delimiters.
func splitFrame(data []byte, tag string, arity int, joinTail bool) ([]string, error) {
	s := strings.TrimRight(string(data), "\r\n")

	if !strings.HasPrefix(s, frameStart) {
		return nil, protocol.Malformed(ProtocolName, "start", "frame does not start with %q", frameStart)
	}
	if !strings.HasSuffix(s, frameEnd) || len(s) < len(frameStart)+len(frameEnd) {
		return nil, protocol.Malformed(ProtocolName, "terminator", "frame does not end with %q", frameEnd)
	}
	body := s[len(frameStart) : len(s)-len(frameEnd)]

	var parts []string
	if joinTail {
		parts = strings.SplitN(body, delimiter, arity+1)
	} else {
		parts = strings.Split(body, delimiter)
	}
	if parts[0] != tag {
		return nil, protocol.Malformed(ProtocolName, "tag", "expected %q, got %q", tag, parts[0])
	}
	if len(parts)-1 != arity {
		return nil, protocol.Malformed(ProtocolName, "arity",
			"%s frame has %d fields, want %d", tag, len(parts)-1, arity)
	}
	return parts[1:], nil
}

func parseDeviceID(s string) (string, error) {
	if s == "" {
		return "", protocol.Malformed(ProtocolName, "deviceId", "empty device id")
	}
	return s, nil
}

func parseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, protocol.Malformed(ProtocolName, "datetime", "invalid value %q", s)
	}
	return t, nil
}

func parseInt(field, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, protocol.Malformed(ProtocolName, field, "invalid integer %q", s)
	}
	return v, nil
}

// parseCoordinate converts D(D)DMM.MMMM into decimal degrees. degLen is 2 for
// latitude and 3 for longitude; hemi is the hemisphere letter that follows.
func parseCoordinate(field, s string, degLen int, hemi, positive, negative string, limit float64) (float64, error) {
	if len(s) < degLen+2 {
		return 0, protocol.Malformed(ProtocolName, field, "value %q too short", s)
	}
	deg, err := strconv.Atoi(s[:degLen])
	if err != nil || deg < 0 {
		return 0, protocol.Malformed(ProtocolName, field, "invalid degrees in %q", s)
	}
	minutes, ok := protocol.ParseFixedPoint(s[degLen:])
	if !ok || minutes >= 60 {
		return 0, protocol.Malformed(ProtocolName, field, "invalid minutes in %q", s)
	}

	v := float64(deg) + minutes/60.0
	if v > limit {
		return 0, protocol.Malformed(ProtocolName, field, "value %.6f out of range", v)
	}

	switch hemi {
	case positive:
	case negative:
		v = -v
	default:
		return 0, protocol.Malformed(ProtocolName, field+"Hemisphere", "invalid hemisphere %q", hemi)
	}
	return v, nil
}

func parseGPSStatus(s string) (model.GPSStatus, error) {
	switch s {
	case "A":
		return model.GPSValid, nil
	case "V":
		return model.GPSInvalid, nil
	case "N":
		return model.GPSNoData, nil
	default:
		return "", protocol.Malformed(ProtocolName, "gpsStatus", "invalid status %q", s)
	}
}

// parseFlags reads the three state characters [ignitionKeyOff, offlineRecord,
// invalidRTC]; '-' leaves the flag unreported.
func parseFlags(s string) (model.DeviceFlags, error) {
	var flags model.DeviceFlags
	if len(s) != 3 {
		return flags, protocol.Malformed(ProtocolName, "state", "want 3 characters, got %q", s)
	}

	targets := []**bool{&flags.IgnitionKeyOff, &flags.OfflineRecord, &flags.InvalidRTC}
	for i, target := range targets {
		switch s[i] {
		case '1':
			*target = model.Bool(true)
		case '0':
			*target = model.Bool(false)
		case '-':
		default:
			return model.DeviceFlags{}, protocol.Malformed(ProtocolName, "state", "invalid flag %q at %d", s[i], i)
		}
	}
	return flags, nil
}
