package repository

import (
	"sort"
	"sync"

	"telematics/internal/core/model"
)

type inMemoryPositionRepository struct {
	positions map[string][]*model.Position
	mutex     sync.RWMutex
}

func NewInMemoryPositionRepository() PositionRepository {
	return &inMemoryPositionRepository{
		positions: make(map[string][]*model.Position),
	}
}

func (r *inMemoryPositionRepository) Create(position *model.Position) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p := *position
	r.positions[p.DeviceID] = append(r.positions[p.DeviceID], &p)
	return nil
}

func (r *inMemoryPositionRepository) FindLatestByDeviceID(deviceID string) (*model.Position, error) {
	recent, err := r.FindRecentByDeviceID(deviceID, 1)
	if err != nil || len(recent) == 0 {
		return nil, err
	}
	return recent[0], nil
}

func (r *inMemoryPositionRepository) FindRecentByDeviceID(deviceID string, limit int) ([]*model.Position, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored := r.positions[deviceID]
	result := make([]*model.Position, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		p := *stored[i]
		result = append(result, &p)
	}

	// newest first; equal timestamps keep the latest arrival first
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
