package protocol

import (
	"fmt"

	"telematics/internal/core/model"
)

// Decoder turns one complete frame of a device family into a Message.
type Decoder interface {
	// Protocol returns the device family name, e.g. "gt06".
	Protocol() string
	// Name identifies the decoder within the registry, e.g. "gt06/login".
	Name() string
	// Type returns the numeric message type code the decoder produces.
	Type() int
	// Match reports whether frame carries this decoder's structural signature.
	Match(frame []byte) bool
	Decode(frame []byte) (model.Message, error)
}

// Signature is the (magic, type) pair a binary decoder claims.
type Signature struct {
	Magic uint16
	Type  byte
}

func (s Signature) String() string {
	return fmt.Sprintf("magic=0x%04x type=0x%02x", s.Magic, s.Type)
}

// BinaryDecoder is a Decoder whose frames are identified by a fixed signature.
type BinaryDecoder interface {
	Decoder
	Signature() Signature
}

// ReplyEncoder builds the bytes a device family expects in return.
type ReplyEncoder interface {
	// Reply returns the acknowledgement for msg, or ErrUnsupportedReplyType.
	Reply(msg model.Message) ([]byte, error)
	// EncodeCommand returns the wire form of one queued command; seq starts at 1.
	EncodeCommand(cmd model.Command, seq int) ([]byte, error)
}

// Family groups the decoders and the reply encoder of one device family.
type Family struct {
	Name     string
	Decoders []Decoder
	Replies  ReplyEncoder
}

// Match is the result of a successful classification.
type Match struct {
	Decoder Decoder
	Type    int
}

// Registry is the fixed-priority decoder table. It is built once and never
// modified, so it can be shared between connections without locking.
type Registry struct {
	decoders []Decoder
	replies  map[string]ReplyEncoder
}

// NewRegistry registers families in priority order. It fails when two binary
// decoders claim the same signature or when names collide.
func NewRegistry(families ...Family) (*Registry, error) {
	r := &Registry{
		replies: make(map[string]ReplyEncoder, len(families)),
	}
	names := make(map[string]bool)
	signatures := make(map[Signature]string)

	for _, f := range families {
		if f.Name == "" {
			return nil, fmt.Errorf("protocol family without name")
		}
		if _, exists := r.replies[f.Name]; exists {
			return nil, fmt.Errorf("protocol family %q registered twice", f.Name)
		}
		r.replies[f.Name] = f.Replies

		for _, d := range f.Decoders {
			if names[d.Name()] {
				return nil, fmt.Errorf("decoder %q registered twice", d.Name())
			}
			names[d.Name()] = true

			if bd, ok := d.(BinaryDecoder); ok {
				sig := bd.Signature()
				if owner, taken := signatures[sig]; taken {
					return nil, fmt.Errorf("%w: %s claimed by %s and %s",
						ErrOverlappingSignature, sig, owner, d.Name())
				}
				signatures[sig] = d.Name()
			}
			r.decoders = append(r.decoders, d)
		}
	}

	return r, nil
}

// Classify returns the first decoder, in priority order, whose signature matches.
func (r *Registry) Classify(frame []byte) (Match, bool) {
	for _, d := range r.decoders {
		if d.Match(frame) {
			return Match{Decoder: d, Type: d.Type()}, true
		}
	}
	return Match{}, false
}

// Decode classifies and decodes frame.
func (r *Registry) Decode(frame []byte) (model.Message, error) {
	m, ok := r.Classify(frame)
	if !ok {
		return nil, fmt.Errorf("%w: %d bytes", ErrUnrecognizedFrame, len(frame))
	}
	return m.Decoder.Decode(frame)
}

// Reply returns the acknowledgement msg requires.
func (r *Registry) Reply(msg model.Message) ([]byte, error) {
	enc := r.replies[msg.Protocol()]
	if enc == nil {
		return nil, fmt.Errorf("%w: no encoder for %s", ErrUnsupportedReplyType, msg.Protocol())
	}
	return enc.Reply(msg)
}

// Commands maps the queued commands to their wire form and concatenates them in
// queue order. An empty queue yields no reply (ok == false), never an empty frame.
func (r *Registry) Commands(protocol string, queue []model.Command) (reply []byte, ok bool, err error) {
	if len(queue) == 0 {
		return nil, false, nil
	}
	enc := r.replies[protocol]
	if enc == nil {
		return nil, false, fmt.Errorf("%w: no encoder for %s", ErrUnsupportedReplyType, protocol)
	}

	for i, cmd := range queue {
		wire, err := enc.EncodeCommand(cmd, i+1)
		if err != nil {
			return nil, false, fmt.Errorf("encode command %s: %w", cmd.ID, err)
		}
		reply = append(reply, wire...)
	}
	return reply, true, nil
}

// Decoders returns the registered decoders in priority order.
func (r *Registry) Decoders() []Decoder {
	return append([]Decoder(nil), r.decoders...)
}
