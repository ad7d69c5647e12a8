package xtakip

import (
	"fmt"
	"strings"

	"telematics/internal/core/model"
	"telematics/internal/protocol"
)

// ReplyEncoder renders queued commands as $$CM frames. XTakip terminals do
// not expect acknowledgements.
type ReplyEncoder struct{}

func NewReplyEncoder() *ReplyEncoder {
	return &ReplyEncoder{}
}

func (e *ReplyEncoder) Reply(msg model.Message) ([]byte, error) {
	return nil, fmt.Errorf("%w: %s %s", protocol.ErrUnsupportedReplyType, ProtocolName, msg.Kind())
}

// EncodeCommand returns $$CM,deviceId,commandId,payload##. Sequence numbers
// are not part of the XTakip wire form.
func (e *ReplyEncoder) EncodeCommand(cmd model.Command, _ int) ([]byte, error) {
	for name, v := range map[string]string{"deviceId": cmd.DeviceID, "commandId": cmd.ID} {
		if v == "" || strings.ContainsAny(v, delimiter+"#$\r\n") {
			return nil, fmt.Errorf("xtakip: invalid %s %q", name, v)
		}
	}
	if cmd.Payload == "" || strings.ContainsAny(cmd.Payload, "#\r\n") {
		return nil, fmt.Errorf("xtakip: invalid command payload %q", cmd.Payload)
	}

	return []byte(frameStart + commandTag + delimiter +
		cmd.DeviceID + delimiter + cmd.ID + delimiter + cmd.Payload + frameEnd), nil
}
