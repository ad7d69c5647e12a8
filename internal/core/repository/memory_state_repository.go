package repository

import (
	"sort"
	"sync"

	"telematics/internal/core/model"
)

type inMemoryStateRepository struct {
	states map[string]model.DeviceState
	mutex  sync.RWMutex
}

func NewInMemoryStateRepository() StateRepository {
	return &inMemoryStateRepository{
		states: make(map[string]model.DeviceState),
	}
}

func (r *inMemoryStateRepository) Save(state *model.DeviceState) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.states[state.DeviceID] = *state
	return nil
}

func (r *inMemoryStateRepository) FindByDeviceID(deviceID string) (*model.DeviceState, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if state, exists := r.states[deviceID]; exists {
		return &state, nil
	}
	return nil, nil
}

// FindAll returns the states ordered by device id.
func (r *inMemoryStateRepository) FindAll() ([]*model.DeviceState, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	states := make([]*model.DeviceState, 0, len(r.states))
	for _, state := range r.states {
		s := state
		states = append(states, &s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].DeviceID < states[j].DeviceID })
	return states, nil
}
