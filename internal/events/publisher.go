// Package events publishes tracking events to NATS for downstream consumers.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"telematics/internal/core/model"
)

// Event names, appended to the subject prefix.
const (
	EventLocation      = "location"
	EventState         = "state"
	EventAlert         = "alert"
	EventCommandResult = "command_result"

	commandsSubject = "commands"
)

// Publisher sends JSON events on <prefix>.<event>. A Publisher without a
// connection drops every event.
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// Connect dials url. An empty url yields a disconnected Publisher.
func Connect(url, prefix string) (*Publisher, error) {
	if url == "" {
		log.Info().Msg("NATS URL not provided, event publishing disabled")
		return NewPublisher(nil, prefix), nil
	}

	conn, err := nats.Connect(url, nats.Name("telematics"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	log.Info().Str("url", conn.ConnectedUrl()).Msg("connected to NATS")
	return NewPublisher(conn, prefix), nil
}

func NewPublisher(conn *nats.Conn, prefix string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix}
}

func (p *Publisher) Subject(event string) string {
	if p.prefix == "" {
		return event
	}
	return p.prefix + "." + event
}

func (p *Publisher) Publish(event string, v interface{}) error {
	if p == nil || p.conn == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	return p.conn.Publish(p.Subject(event), data)
}

// SubscribeCommands delivers commands published on <prefix>.commands to fn.
// Malformed messages are logged and dropped.
func (p *Publisher) SubscribeCommands(fn func(model.Command)) (*nats.Subscription, error) {
	if p == nil || p.conn == nil {
		return nil, nil
	}

	return p.conn.Subscribe(p.Subject(commandsSubject), func(msg *nats.Msg) {
		var cmd model.Command
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("failed to decode command")
			return
		}
		if cmd.DeviceID == "" || cmd.Payload == "" {
			log.Warn().Str("subject", msg.Subject).Msg("command without device or payload")
			return
		}
		fn(cmd)
	})
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
