package repository

import (
	"testing"
	"time"

	"telematics/internal/core/model"
)

func at(minute int) time.Time {
	return time.Date(2024, 1, 1, 12, minute, 0, 0, time.UTC)
}

func TestInMemoryStateRepository(t *testing.T) {
	repo := NewInMemoryStateRepository()

	got, err := repo.FindByDeviceID("missing")
	if err != nil || got != nil {
		t.Fatalf("FindByDeviceID(missing) = %v, %v; want nil, nil", got, err)
	}

	state := &model.DeviceState{DeviceID: "b", Speed: 10, Status: model.StatusMoving}
	if err := repo.Save(state); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	state.Speed = 99 // caller mutation must not leak into the store

	if err := repo.Save(&model.DeviceState{DeviceID: "a", Status: model.StatusParked}); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	got, _ = repo.FindByDeviceID("b")
	if got == nil || got.Speed != 10 {
		t.Fatalf("FindByDeviceID(b) = %+v, want speed 10", got)
	}

	if err := repo.Save(&model.DeviceState{DeviceID: "b", Speed: 0, Status: model.StatusParked}); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	got, _ = repo.FindByDeviceID("b")
	if got.Status != model.StatusParked {
		t.Errorf("Status = %s after replace, want PARKED", got.Status)
	}

	all, _ := repo.FindAll()
	if len(all) != 2 || all[0].DeviceID != "a" || all[1].DeviceID != "b" {
		t.Errorf("FindAll() = %+v, want a then b", all)
	}
}

func TestInMemoryPositionRepository(t *testing.T) {
	repo := NewInMemoryPositionRepository()

	latest, err := repo.FindLatestByDeviceID("dev")
	if err != nil || latest != nil {
		t.Fatalf("FindLatestByDeviceID() on empty = %v, %v", latest, err)
	}

	for i, minute := range []int{1, 3, 2} {
		p := &model.Position{ID: string(rune('a' + i)), DeviceID: "dev", Timestamp: at(minute)}
		if err := repo.Create(p); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
	}
	_ = repo.Create(&model.Position{ID: "other", DeviceID: "other", Timestamp: at(9)})

	latest, _ = repo.FindLatestByDeviceID("dev")
	if latest == nil || !latest.Timestamp.Equal(at(3)) {
		t.Errorf("FindLatestByDeviceID() = %+v, want minute 3", latest)
	}

	tests := []struct {
		name  string
		limit int
		want  []int
	}{
		{name: "all", limit: 0, want: []int{3, 2, 1}},
		{name: "limited", limit: 2, want: []int{3, 2}},
		{name: "over", limit: 10, want: []int{3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindRecentByDeviceID("dev", tt.limit)
			if err != nil {
				t.Fatalf("FindRecentByDeviceID() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, minute := range tt.want {
				if !got[i].Timestamp.Equal(at(minute)) {
					t.Errorf("[%d] = %v, want minute %d", i, got[i].Timestamp, minute)
				}
			}
		})
	}
}

func TestInMemoryAlertRepository(t *testing.T) {
	repo := NewInMemoryAlertRepository()

	first := &model.Alert{DeviceID: "dev", Description: "SOS", EventTime: at(1)}
	second := &model.Alert{ID: "fixed", DeviceID: "dev", Description: "Power cut", EventTime: at(2)}
	for _, a := range []*model.Alert{first, second} {
		if err := repo.Create(a); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
	}

	if first.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if second.ID != "fixed" {
		t.Errorf("Create() replaced existing ID with %q", second.ID)
	}

	got, _ := repo.FindByDeviceID("dev", 0)
	if len(got) != 2 || got[0].Description != "Power cut" || got[1].Description != "SOS" {
		t.Errorf("FindByDeviceID() = %+v, want newest first", got)
	}

	got, _ = repo.FindByDeviceID("dev", 1)
	if len(got) != 1 {
		t.Errorf("FindByDeviceID(limit 1) returned %d alerts", len(got))
	}

	got, _ = repo.FindByDeviceID("nobody", 5)
	if len(got) != 0 {
		t.Errorf("FindByDeviceID(nobody) = %+v, want empty", got)
	}
}
