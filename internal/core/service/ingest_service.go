package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telematics/internal/alarm"
	"telematics/internal/cache"
	"telematics/internal/core/model"
	"telematics/internal/core/repository"
	"telematics/internal/events"
	"telematics/internal/protocol"
	"telematics/internal/state"
)

// ErrUnidentifiedDevice is returned for a location report that neither carries
// a device id nor arrives on a connection that has logged in.
var ErrUnidentifiedDevice = errors.New("location report from unidentified device")

type CommandQueue interface {
	PushCommand(ctx context.Context, cmd model.Command) error
	DrainCommands(ctx context.Context, deviceID string) ([]model.Command, error)
}

type StateCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

type EventPublisher interface {
	Publish(event string, v interface{}) error
}

// IngestDeps are the collaborators of the ingest pipeline. Cache, Queue and
// Events are optional.
type IngestDeps struct {
	Registry  *protocol.Registry
	Deriver   *state.Deriver
	Catalog   *alarm.Catalog
	Positions repository.PositionRepository
	States    repository.StateRepository
	Alerts    repository.AlertRepository
	Cache     StateCache
	StateTTL  time.Duration
	Queue     CommandQueue
	Events    EventPublisher
}

// Result describes what one frame produced.
type Result struct {
	Message  model.Message
	DeviceID string
	// Reply is the acknowledgement followed by any queued commands; nil when
	// nothing must be written back.
	Reply    []byte
	Position *model.Position
	State    *model.DeviceState
	Skip     state.Skip
	Alert    *model.Alert
}

type IngestService interface {
	// Process decodes one frame. deviceID is the identity already bound to the
	// connection, if any. A non-nil Result may accompany an error when the
	// frame decoded but a sink failed.
	Process(ctx context.Context, deviceID string, frame []byte) (*Result, error)
}

type ingestService struct {
	deps IngestDeps
}

func NewIngestService(deps IngestDeps) (IngestService, error) {
	if deps.Registry == nil || deps.Deriver == nil {
		return nil, errors.New("ingest: registry and deriver are required")
	}
	if deps.Positions == nil || deps.States == nil || deps.Alerts == nil {
		return nil, errors.New("ingest: repositories are required")
	}
	return &ingestService{deps: deps}, nil
}

func (s *ingestService) Process(ctx context.Context, deviceID string, frame []byte) (*Result, error) {
	msg, err := s.deps.Registry.Decode(frame)
	if err != nil {
		return nil, err
	}

	res := &Result{Message: msg, DeviceID: deviceID}
	if id := model.DeviceIDOf(msg); id != "" {
		res.DeviceID = id
	}

	reply, err := s.deps.Registry.Reply(msg)
	switch {
	case err == nil:
		res.Reply = reply
	case errors.Is(err, protocol.ErrUnsupportedReplyType):
	default:
		return res, fmt.Errorf("build reply: %w", err)
	}

	var errs []error
	switch m := msg.(type) {
	case *model.LocationMessage:
		if res.DeviceID == "" {
			return res, ErrUnidentifiedDevice
		}
		loc := m.WithDeviceID(res.DeviceID)
		res.Message = loc
		errs = s.processLocation(ctx, loc, res)
	case *model.CommandMessage:
		if err := s.publish(events.EventCommandResult, m); err != nil {
			errs = append(errs, err)
		}
	}

	if res.DeviceID != "" {
		if err := s.appendCommands(ctx, msg.Protocol(), res); err != nil {
			errs = append(errs, err)
		}
	}

	return res, errors.Join(errs...)
}

func (s *ingestService) processLocation(ctx context.Context, loc *model.LocationMessage, res *Result) []error {
	var errs []error

	// reports without GPS data carry no usable coordinates for the history
	if loc.GPSStatus != model.GPSNoData {
		position := model.PositionFromLocation(loc)
		if err := s.deps.Positions.Create(position); err != nil {
			errs = append(errs, fmt.Errorf("save position: %w", err))
		} else {
			res.Position = position
			if err := s.publish(events.EventLocation, position); err != nil {
				errs = append(errs, err)
			}
		}
	}

	st, skip, err := s.deps.Deriver.Derive(loc)
	if err != nil {
		errs = append(errs, err)
	}
	res.Skip = skip
	if st != nil {
		res.State = st
		if err := s.deps.States.Save(st); err != nil {
			errs = append(errs, fmt.Errorf("save state: %w", err))
		}
		if s.deps.Cache != nil {
			if err := s.deps.Cache.Set(ctx, cache.StateKey(st.DeviceID), st, s.deps.StateTTL); err != nil {
				errs = append(errs, fmt.Errorf("cache state: %w", err))
			}
		}
		if err := s.publish(events.EventState, st); err != nil {
			errs = append(errs, err)
		}
	}

	if alert, ok := alarm.Correlate(loc, s.deps.Catalog); ok {
		if err := s.deps.Alerts.Create(alert); err != nil {
			errs = append(errs, fmt.Errorf("save alert: %w", err))
		} else if err := s.publish(events.EventAlert, alert); err != nil {
			errs = append(errs, err)
		}
		res.Alert = alert
	}

	return errs
}

// appendCommands drains the device's queue and appends the encoded batch to
// the reply. Commands that fail to encode are dropped with the error.
func (s *ingestService) appendCommands(ctx context.Context, protocolName string, res *Result) error {
	if s.deps.Queue == nil {
		return nil
	}

	queue, err := s.deps.Queue.DrainCommands(ctx, res.DeviceID)
	if err != nil {
		return fmt.Errorf("drain commands: %w", err)
	}

	batch, ok, err := s.deps.Registry.Commands(protocolName, queue)
	if err != nil {
		return fmt.Errorf("dropped %d commands for %s: %w", len(queue), res.DeviceID, err)
	}
	if ok {
		res.Reply = append(res.Reply, batch...)
	}
	return nil
}

func (s *ingestService) publish(event string, v interface{}) error {
	if s.deps.Events == nil {
		return nil
	}
	if err := s.deps.Events.Publish(event, v); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}
