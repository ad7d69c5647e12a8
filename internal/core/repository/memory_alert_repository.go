package repository

import (
	"sort"
	"sync"

	"telematics/internal/core/model"
	"telematics/internal/core/util"
)

type inMemoryAlertRepository struct {
	alerts map[string][]*model.Alert
	mutex  sync.RWMutex
}

func NewInMemoryAlertRepository() AlertRepository {
	return &inMemoryAlertRepository{
		alerts: make(map[string][]*model.Alert),
	}
}

func (r *inMemoryAlertRepository) Create(alert *model.Alert) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if alert.ID == "" {
		alert.ID = util.GenerateID()
	}
	a := *alert
	a.Actions = append([]string(nil), alert.Actions...)
	r.alerts[a.DeviceID] = append(r.alerts[a.DeviceID], &a)
	return nil
}

func (r *inMemoryAlertRepository) FindByDeviceID(deviceID string, limit int) ([]*model.Alert, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored := r.alerts[deviceID]
	result := make([]*model.Alert, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		a := *stored[i]
		result = append(result, &a)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].EventTime.After(result[j].EventTime)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
