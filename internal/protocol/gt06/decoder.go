package gt06

import (
	"encoding/binary"
	"strconv"

	"telematics/internal/core/model"
	"telematics/internal/protocol"
)

// Options tune the GT06 decoders.
type Options struct {
	// VerifyChecksum rejects frames whose CRC-ITU does not match. Login
	// frames are never checked: the acknowledgement is fixed.
	VerifyChecksum bool
}

// Decoder decodes one GT06 message type.
type Decoder struct {
	typ        byte
	minContent int
	verify     bool
	decode     func(f *frame) (model.Message, error)
}

func newDecoder(typ byte, minContent int, opts Options, decode func(f *frame) (model.Message, error)) *Decoder {
	return &Decoder{
		typ:        typ,
		minContent: minContent,
		verify:     opts.VerifyChecksum,
		decode:     decode,
	}
}

func NewLoginDecoder(opts Options) *Decoder {
	opts.VerifyChecksum = false
	return newDecoder(loginMsg, loginContentLen, opts, decodeLoginMessage)
}

func NewLocationDecoder(opts Options) *Decoder {
	return newDecoder(locationMsg, locationContentLen, opts, decodeLocationMessage)
}

func NewStatusDecoder(opts Options) *Decoder {
	return newDecoder(statusMsg, statusContentLen, opts, decodeStatusMessage)
}

func NewAlarmDecoder(opts Options) *Decoder {
	return newDecoder(alarmMsg, alarmContentLen, opts, decodeAlarmMessage)
}

func NewGT100LocationDecoder(opts Options) *Decoder {
	return newDecoder(gt100LocMsg, gt100ContentLen, opts, decodeGT100LocationMessage)
}

func NewCommandDecoder(opts Options) *Decoder {
	return newDecoder(commandReply, commandContentLen, opts, decodeCommandMessage)
}

// Family returns the GT06 decoders in classification order with their reply encoder.
func Family(opts Options) protocol.Family {
	return protocol.Family{
		Name: ProtocolName,
		Decoders: []protocol.Decoder{
			NewLoginDecoder(opts),
			NewLocationDecoder(opts),
			NewStatusDecoder(opts),
			NewAlarmDecoder(opts),
			NewGT100LocationDecoder(opts),
			NewCommandDecoder(opts),
		},
		Replies: NewReplyEncoder(),
	}
}

func (d *Decoder) Protocol() string { return ProtocolName }

func (d *Decoder) Name() string { return messageName(d.typ) }

func (d *Decoder) Type() int { return int(d.typ) }

func (d *Decoder) Signature() protocol.Signature {
	return protocol.Signature{Magic: magic, Type: d.typ}
}

// Match checks the start bytes and the protocol number only.
func (d *Decoder) Match(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == startByte1 && data[1] == startByte2 &&
		data[3] == d.typ
}

func (d *Decoder) Decode(data []byte) (model.Message, error) {
	f, err := parseFrame(data, d.typ, d.minContent, d.verify)
	if err != nil {
		return nil, err
	}
	return d.decode(f)
}

func decodeLoginMessage(f *frame) (model.Message, error) {
	imei := parseTerminalID(f.content[:8])
	device := &model.Device{ID: imei, Protocol: ProtocolName}

	return &model.LoginMessage{
		Header:   model.NewHeader(ProtocolName, loginMsg, f.raw, device, map[string]interface{}{"imei": imei}),
		Serial:   imei,
		Sequence: f.serial,
	}, nil
}

func decodeStatusMessage(f *frame) (model.Message, error) {
	c := f.content
	info := c[0]
	voltage := int(c[1])
	gsm := int(c[2])

	if voltage > 6 {
		return nil, protocol.Malformed(ProtocolName, "voltage", "invalid voltage level %d", voltage)
	}
	if gsm > 4 {
		return nil, protocol.Malformed(ProtocolName, "gsm", "invalid gsm signal %d", gsm)
	}

	attrs := map[string]interface{}{
		"defence":      info&0x01 != 0,
		"ignition":     info&0x02 != 0,
		"charging":     info&0x04 != 0,
		"voltageLevel": voltage,
		"gsmSignal":    gsm,
		"alarm":        GetAlarmName(c[3]),
	}

	return &model.HeartbeatMessage{
		Header:   model.NewHeader(ProtocolName, statusMsg, f.raw, nil, attrs),
		Sequence: f.serial,
	}, nil
}

func decodeLocationMessage(f *frame) (model.Message, error) {
	c := f.content
	p, err := parsePosition(c[0:gpsBlockLen])
	if err != nil {
		return nil, err
	}

	attrs := lbsAttributes(c[18:26])
	return newLocation(f, p, attrs), nil
}

func decodeAlarmMessage(f *frame) (model.Message, error) {
	c := f.content
	p, err := parsePosition(c[0:gpsBlockLen])
	if err != nil {
		return nil, err
	}

	// c[18] is the LBS length byte, the LBS block follows at a fixed offset.
	attrs := lbsAttributes(c[19:27])
	info := c[27]
	attrs["voltageLevel"] = int(c[28])
	attrs["gsmSignal"] = int(c[29])
	attrs["charging"] = info&0x04 != 0
	attrs["alarm"] = GetAlarmName(c[30])

	msg := newLocation(f, p, attrs)
	msg.AlarmCode = int(c[30])
	msg.Flags.IgnitionKeyOff = model.Bool(info&0x02 == 0)
	return msg, nil
}

func decodeGT100LocationMessage(f *frame) (model.Message, error) {
	c := f.content
	p, err := parsePosition(c[0:gpsBlockLen])
	if err != nil {
		return nil, err
	}

	attrs := lbsAttributes(c[18:26])
	acc := c[26]
	attrs["uploadMode"] = int(c[27])

	msg := newLocation(f, p, attrs)
	msg.Flags.IgnitionKeyOff = model.Bool(acc == 0x00)
	msg.Flags.OfflineRecord = model.Bool(c[28] == 0x01)
	msg.Distance = float64(binary.BigEndian.Uint32(c[29:33]))
	return msg, nil
}

func decodeCommandMessage(f *frame) (model.Message, error) {
	c := f.content
	cmdLen := int(c[0])
	if cmdLen < 4 || 1+cmdLen > len(c) {
		return nil, protocol.Malformed(ProtocolName, "command",
			"command length %d does not fit %d content bytes", cmdLen, len(c))
	}

	flag := binary.BigEndian.Uint32(c[1:5])
	return &model.CommandMessage{
		Header:    model.NewHeader(ProtocolName, commandReply, f.raw, nil, nil),
		CommandID: strconv.FormatUint(uint64(flag), 10),
		Result:    string(c[5 : 1+cmdLen]),
	}, nil
}

func newLocation(f *frame, p *position, attrs map[string]interface{}) *model.LocationMessage {
	return &model.LocationMessage{
		Header:     model.NewHeader(ProtocolName, int(f.typ), f.raw, nil, attrs),
		Timestamp:  p.timestamp,
		Latitude:   p.latitude,
		Longitude:  p.longitude,
		Speed:      p.speed,
		Heading:    p.course,
		Satellites: p.satellites,
		GPSStatus:  p.status,
		Sequence:   f.serial,
	}
}

// lbsAttributes reads MCC(2) MNC(1) LAC(2) CellID(3).
func lbsAttributes(b []byte) map[string]interface{} {
	return map[string]interface{}{
		"mcc":    int(binary.BigEndian.Uint16(b[0:2])),
		"mnc":    int(b[2]),
		"lac":    int(binary.BigEndian.Uint16(b[3:5])),
		"cellId": int(b[5])<<16 | int(binary.BigEndian.Uint16(b[6:8])),
	}
}
