package cache

import (
	"context"
	"sync"

	"telematics/internal/core/model"
)

// MemoryQueue is a process local command queue for running without Redis.
type MemoryQueue struct {
	mu       sync.Mutex
	commands map[string][]model.Command
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{commands: make(map[string][]model.Command)}
}

func (q *MemoryQueue) PushCommand(_ context.Context, cmd model.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands[cmd.DeviceID] = append(q.commands[cmd.DeviceID], cmd)
	return nil
}

func (q *MemoryQueue) DrainCommands(_ context.Context, deviceID string) ([]model.Command, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	commands := q.commands[deviceID]
	delete(q.commands, deviceID)
	return commands, nil
}
