package xtakip

import (
	"strings"

	"telematics/internal/core/model"
	"telematics/internal/protocol"
)

// Decoder decodes one XTakip message tag.
type Decoder struct {
	tag      string
	typ      int
	arity    int
	joinTail bool
	decode   func(raw []byte, fields []string) (model.Message, error)
}

// NewLocationDecoder decodes $$L location reports.
func NewLocationDecoder() *Decoder {
	return &Decoder{tag: locationTag, typ: locationType, arity: 12, decode: decodeLocation}
}

// NewHeartbeatDecoder decodes $$HX keep-alive frames.
func NewHeartbeatDecoder() *Decoder {
	return &Decoder{tag: heartbeatTag, typ: heartbeatType, arity: 2, decode: decodeHeartbeat}
}

// NewCommandResultDecoder decodes $$OX command answers. The result field may
// itself contain commas.
func NewCommandResultDecoder() *Decoder {
	return &Decoder{tag: commandResultTag, typ: commandResultType, arity: 3, joinTail: true, decode: decodeCommandResult}
}

// Family returns the XTakip decoders with their reply encoder.
func Family() protocol.Family {
	return protocol.Family{
		Name: ProtocolName,
		Decoders: []protocol.Decoder{
			NewLocationDecoder(),
			NewHeartbeatDecoder(),
			NewCommandResultDecoder(),
		},
		Replies: NewReplyEncoder(),
	}
}

func (d *Decoder) Protocol() string { return ProtocolName }

func (d *Decoder) Name() string { return ProtocolName + "/" + d.tag }

func (d *Decoder) Type() int { return d.typ }

// Match inspects the leading token only: $$ followed by the tag and a delimiter.
func (d *Decoder) Match(data []byte) bool {
	prefix := frameStart + d.tag + delimiter
	return len(data) >= len(prefix) && string(data[:len(prefix)]) == prefix
}

func (d *Decoder) Decode(data []byte) (model.Message, error) {
	fields, err := splitFrame(data, d.tag, d.arity, d.joinTail)
	if err != nil {
		return nil, err
	}
	return d.decode(data, fields)
}

func decodeLocation(raw []byte, f []string) (model.Message, error) {
	deviceID, err := parseDeviceID(f[0])
	if err != nil {
		return nil, err
	}
	ts, err := parseDateTime(f[1])
	if err != nil {
		return nil, err
	}
	lat, err := parseCoordinate("latitude", f[2], 2, f[3], "N", "S", 90)
	if err != nil {
		return nil, err
	}
	lon, err := parseCoordinate("longitude", f[4], 3, f[5], "E", "W", 180)
	if err != nil {
		return nil, err
	}
	speed, err := parseInt("speed", f[6])
	if err != nil {
		return nil, err
	}
	heading, err := parseInt("heading", f[7])
	if err != nil {
		return nil, err
	}
	distance, err := parseInt("distance", f[8])
	if err != nil {
		return nil, err
	}
	status, err := parseGPSStatus(f[9])
	if err != nil {
		return nil, err
	}
	alarm, err := parseInt("alarm", f[10])
	if err != nil {
		return nil, err
	}
	flags, err := parseFlags(f[11])
	if err != nil {
		return nil, err
	}

	device := &model.Device{ID: deviceID, Protocol: ProtocolName}
	return &model.LocationMessage{
		Header:    model.NewHeader(ProtocolName, locationType, raw, device, nil),
		DeviceID:  deviceID,
		Timestamp: ts,
		Latitude:  lat,
		Longitude: lon,
		Speed:     float64(speed),
		Heading:   float64(heading),
		Distance:  float64(distance),
		GPSStatus: status,
		AlarmCode: alarm,
		Flags:     flags,
	}, nil
}

func decodeHeartbeat(raw []byte, f []string) (model.Message, error) {
	deviceID, err := parseDeviceID(f[0])
	if err != nil {
		return nil, err
	}
	ts, err := parseDateTime(f[1])
	if err != nil {
		return nil, err
	}

	device := &model.Device{ID: deviceID, Protocol: ProtocolName}
	return &model.HeartbeatMessage{
		Header:   model.NewHeader(ProtocolName, heartbeatType, raw, device, map[string]interface{}{"deviceTime": ts}),
		DeviceID: deviceID,
	}, nil
}

func decodeCommandResult(raw []byte, f []string) (model.Message, error) {
	deviceID, err := parseDeviceID(f[0])
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(f[1]) == "" {
		return nil, protocol.Malformed(ProtocolName, "commandId", "empty command id")
	}

	device := &model.Device{ID: deviceID, Protocol: ProtocolName}
	return &model.CommandMessage{
		Header:    model.NewHeader(ProtocolName, commandResultType, raw, device, nil),
		DeviceID:  deviceID,
		CommandID: f[1],
		Result:    f[2],
	}, nil
}
