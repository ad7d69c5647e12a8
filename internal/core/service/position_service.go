package service

import (
	"errors"

	"telematics/internal/core/model"
	"telematics/internal/core/repository"
	"telematics/internal/track"
)

const (
	DefaultTrackLimit = 100
	MaxTrackLimit     = 1000
)

var ErrInvalidDeviceID = errors.New("invalid device ID")

type PositionService interface {
	GetLatestPosition(deviceID string) (*model.Position, error)
	// GetRecentPositions returns up to limit positions, newest first. A limit
	// outside 1..MaxTrackLimit is clamped.
	GetRecentPositions(deviceID string, limit int) ([]*model.Position, error)
	GetTrack(deviceID string, limit int) (track.FeatureCollection, error)
}

type positionService struct {
	positionRepo repository.PositionRepository
}

func NewPositionService(positionRepo repository.PositionRepository) PositionService {
	return &positionService{
		positionRepo: positionRepo,
	}
}

func (s *positionService) GetLatestPosition(deviceID string) (*model.Position, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}
	return s.positionRepo.FindLatestByDeviceID(deviceID)
}

func (s *positionService) GetRecentPositions(deviceID string, limit int) ([]*model.Position, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}
	return s.positionRepo.FindRecentByDeviceID(deviceID, clampLimit(limit))
}

// GetTrack renders the device's recent positions. A device without history
// yields track.ErrEmptyTrack.
func (s *positionService) GetTrack(deviceID string, limit int) (track.FeatureCollection, error) {
	positions, err := s.GetRecentPositions(deviceID, limit)
	if err != nil {
		return track.FeatureCollection{}, err
	}

	points := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		points = append(points, *p)
	}
	return track.Render(points)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultTrackLimit
	case limit > MaxTrackLimit:
		return MaxTrackLimit
	default:
		return limit
	}
}
