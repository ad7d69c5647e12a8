package h02

import (
	"fmt"
	"strings"
	"time"

	"telematics/internal/core/model"
	"telematics/internal/protocol"
)

// ReplyEncoder renders queued commands as *HQ server frames. H02 reports are
// not acknowledged.
type ReplyEncoder struct {
	now func() time.Time
}

func NewReplyEncoder() *ReplyEncoder {
	return &ReplyEncoder{now: time.Now}
}

func (e *ReplyEncoder) Reply(msg model.Message) ([]byte, error) {
	return nil, fmt.Errorf("%w: %s %s", protocol.ErrUnsupportedReplyType, ProtocolName, msg.Kind())
}

// EncodeCommand returns *HQ,deviceId,payload,hhmmss#.
func (e *ReplyEncoder) EncodeCommand(cmd model.Command, _ int) ([]byte, error) {
	if cmd.DeviceID == "" || strings.ContainsAny(cmd.DeviceID, ",#") {
		return nil, fmt.Errorf("h02: invalid device id %q", cmd.DeviceID)
	}
	if cmd.Payload == "" || strings.ContainsRune(cmd.Payload, endByte) {
		return nil, fmt.Errorf("h02: invalid command payload %q", cmd.Payload)
	}

	stamp := e.now().UTC().Format("150405")
	return []byte(fmt.Sprintf("%s,%s,%s,%s%c", startSequence, cmd.DeviceID, cmd.Payload, stamp, endByte)), nil
}
