package service

import (
	"context"
	"errors"
	"time"

	"telematics/internal/cache"
	"telematics/internal/core/model"
	"telematics/internal/core/repository"
	"telematics/internal/core/util"
)

var ErrEmptyCommand = errors.New("command payload is empty")

type DeviceService interface {
	// GetState returns the latest state, or nil when the device never
	// produced one.
	GetState(ctx context.Context, deviceID string) (*model.DeviceState, error)
	GetAllStates() ([]*model.DeviceState, error)
	EnqueueCommand(ctx context.Context, deviceID, commandType, payload string) (*model.Command, error)
	GetAlerts(deviceID string, limit int) ([]*model.Alert, error)
}

type deviceService struct {
	stateRepo repository.StateRepository
	alertRepo repository.AlertRepository
	cache     StateCache
	queue     CommandQueue
	now       func() time.Time
}

func NewDeviceService(stateRepo repository.StateRepository, alertRepo repository.AlertRepository, stateCache StateCache, queue CommandQueue) DeviceService {
	return &deviceService{
		stateRepo: stateRepo,
		alertRepo: alertRepo,
		cache:     stateCache,
		queue:     queue,
		now:       time.Now,
	}
}

func (s *deviceService) GetState(ctx context.Context, deviceID string) (*model.DeviceState, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}

	if s.cache != nil {
		// misses and cache errors both fall back to the repository
		var cached model.DeviceState
		if err := s.cache.Get(ctx, cache.StateKey(deviceID), &cached); err == nil {
			return &cached, nil
		}
	}
	return s.stateRepo.FindByDeviceID(deviceID)
}

func (s *deviceService) GetAllStates() ([]*model.DeviceState, error) {
	return s.stateRepo.FindAll()
}

func (s *deviceService) EnqueueCommand(ctx context.Context, deviceID, commandType, payload string) (*model.Command, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}
	if payload == "" {
		return nil, ErrEmptyCommand
	}

	cmd := model.Command{
		ID:        util.GenerateID(),
		DeviceID:  deviceID,
		Type:      commandType,
		Payload:   payload,
		CreatedAt: s.now().UTC(),
	}
	if err := s.queue.PushCommand(ctx, cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

func (s *deviceService) GetAlerts(deviceID string, limit int) ([]*model.Alert, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}
	return s.alertRepo.FindByDeviceID(deviceID, clampLimit(limit))
}
