package gt06

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"telematics/internal/core/model"
	"telematics/internal/protocol"
)

// loginResponse is the fixed login acknowledgement; devices accept it whatever
// serial number the login carried.
var loginResponse = []byte{
	startByte1, startByte2, // Start bytes
	0x05,                   // Packet length
	loginMsg,               // Protocol number (login)
	0x00, 0x01,             // Serial number
	0xD9, 0xDC,             // Checksum
	endByte1, endByte2,     // End bytes
}

// maxCommandContent keeps the packet length within one byte.
const maxCommandContent = 0xFF - 10

// ReplyEncoder builds GT06 acknowledgements and online command packets.
type ReplyEncoder struct{}

func NewReplyEncoder() *ReplyEncoder {
	return &ReplyEncoder{}
}

// Reply acknowledges login, status and alarm packets.
func (e *ReplyEncoder) Reply(msg model.Message) ([]byte, error) {
	if msg.Protocol() != ProtocolName {
		return nil, fmt.Errorf("%w: %s message", protocol.ErrUnsupportedReplyType, msg.Protocol())
	}

	switch m := msg.(type) {
	case *model.LoginMessage:
		return append([]byte(nil), loginResponse...), nil
	case *model.HeartbeatMessage:
		return buildResponse(statusMsg, m.Sequence), nil
	case *model.LocationMessage:
		if m.Type() == alarmMsg {
			return buildResponse(alarmMsg, m.Sequence), nil
		}
	}

	return nil, fmt.Errorf("%w: %s", protocol.ErrUnsupportedReplyType, GetMessageTypeName(byte(msg.Type())))
}

// EncodeCommand builds a 0x80 online command packet.
func (e *ReplyEncoder) EncodeCommand(cmd model.Command, seq int) ([]byte, error) {
	content := []byte(cmd.Payload)
	if len(content) == 0 {
		return nil, fmt.Errorf("gt06: empty command payload")
	}
	if len(content) > maxCommandContent {
		return nil, fmt.Errorf("gt06: command payload too long: %d bytes", len(content))
	}

	resp := make([]byte, 0, len(content)+15)
	resp = append(resp, startByte1, startByte2)
	// proto(1) + cmdLen(1) + flag(4) + content + serial(2) + crc(2)
	resp = append(resp, byte(len(content)+10))
	resp = append(resp, onlineCommand)
	resp = append(resp, byte(len(content)+4))
	resp = binary.BigEndian.AppendUint32(resp, ServerFlag(cmd.ID))
	resp = append(resp, content...)
	resp = binary.BigEndian.AppendUint16(resp, uint16(seq))

	crc := CalculateChecksum(resp[2:])
	resp = binary.BigEndian.AppendUint16(resp, crc)
	resp = append(resp, endByte1, endByte2)
	return resp, nil
}

// ServerFlag derives the 4 byte server flag a device echoes in its 0x15 answer.
func ServerFlag(commandID string) uint32 {
	return crc32.ChecksumIEEE([]byte(commandID))
}

func buildResponse(typ byte, serial uint16) []byte {
	resp := []byte{startByte1, startByte2, 0x05, typ, byte(serial >> 8), byte(serial)}
	crc := CalculateChecksum(resp[2:])
	return append(resp, byte(crc>>8), byte(crc), endByte1, endByte2)
}
