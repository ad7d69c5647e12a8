package model

import "fmt"

// MessageKind identifies the variant of a decoded Message.
type MessageKind int

const (
	KindLogin MessageKind = iota + 1
	KindHeartbeat
	KindLocation
	KindCommand
)

func (k MessageKind) String() string {
	switch k {
	case KindLogin:
		return "login"
	case KindHeartbeat:
		return "heartbeat"
	case KindLocation:
		return "location"
	case KindCommand:
		return "command"
	default:
		return fmt.Sprintf("unknown_%d", int(k))
	}
}

// Message is a decoded device frame. The set of implementations is closed:
// *LoginMessage, *HeartbeatMessage, *LocationMessage and *CommandMessage.
type Message interface {
	Kind() MessageKind
	Protocol() string
	Type() int
	Raw() []byte
	Attributes() map[string]interface{}
	Device() *Device
	message()
}

// Header carries the fields shared by every message variant. Protocol name and
// type code are fixed by NewHeader.
type Header struct {
	protocol   string
	typ        int
	raw        []byte
	attributes map[string]interface{}
	device     *Device
}

// NewHeader copies raw and attrs so the caller keeps ownership of its buffers.
func NewHeader(protocol string, typ int, raw []byte, device *Device, attrs map[string]interface{}) Header {
	h := Header{
		protocol: protocol,
		typ:      typ,
		raw:      append([]byte(nil), raw...),
	}
	if device != nil {
		d := *device
		h.device = &d
	}
	if len(attrs) > 0 {
		h.attributes = make(map[string]interface{}, len(attrs))
		for k, v := range attrs {
			h.attributes[k] = v
		}
	}
	return h
}

func (h Header) Protocol() string { return h.protocol }

func (h Header) Type() int { return h.typ }

// Raw returns a copy of the frame the message was decoded from.
func (h Header) Raw() []byte { return append([]byte(nil), h.raw...) }

// Attributes returns a copy of the protocol specific attributes, or nil.
func (h Header) Attributes() map[string]interface{} {
	if h.attributes == nil {
		return nil
	}
	out := make(map[string]interface{}, len(h.attributes))
	for k, v := range h.attributes {
		out[k] = v
	}
	return out
}

// Device returns the identity carried by the frame, or nil when the frame has none.
func (h Header) Device() *Device {
	if h.device == nil {
		return nil
	}
	d := *h.device
	return &d
}

func (h Header) message() {}

// LoginMessage is sent once per connection to identify the terminal.
type LoginMessage struct {
	Header
	Serial   string
	Sequence uint16
}

func (*LoginMessage) Kind() MessageKind { return KindLogin }

// HeartbeatMessage keeps the connection alive and may report terminal status.
type HeartbeatMessage struct {
	Header
	DeviceID string
	Sequence uint16
}

func (*HeartbeatMessage) Kind() MessageKind { return KindHeartbeat }

// CommandMessage is a device's answer to a previously sent command.
type CommandMessage struct {
	Header
	DeviceID  string
	CommandID string
	Result    string
}

func (*CommandMessage) Kind() MessageKind { return KindCommand }

// DeviceIDOf returns the device id a message refers to, if it carries one.
func DeviceIDOf(msg Message) string {
	switch m := msg.(type) {
	case *LocationMessage:
		if m.DeviceID != "" {
			return m.DeviceID
		}
	case *HeartbeatMessage:
		if m.DeviceID != "" {
			return m.DeviceID
		}
	case *CommandMessage:
		if m.DeviceID != "" {
			return m.DeviceID
		}
	}
	if d := msg.Device(); d != nil {
		return d.ID
	}
	return ""
}
