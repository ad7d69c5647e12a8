package cache

import (
	"context"
	"testing"

	"telematics/internal/core/model"
)

func TestMemoryQueue(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	for _, payload := range []string{"first", "second"} {
		if err := q.PushCommand(ctx, model.Command{DeviceID: "a", Payload: payload}); err != nil {
			t.Fatalf("PushCommand() unexpected error: %v", err)
		}
	}
	_ = q.PushCommand(ctx, model.Command{DeviceID: "b", Payload: "other"})

	got, err := q.DrainCommands(ctx, "a")
	if err != nil {
		t.Fatalf("DrainCommands() unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Payload != "first" || got[1].Payload != "second" {
		t.Errorf("DrainCommands(a) = %+v, want first then second", got)
	}

	if again, _ := q.DrainCommands(ctx, "a"); len(again) != 0 {
		t.Errorf("second drain returned %+v, want empty", again)
	}
	if other, _ := q.DrainCommands(ctx, "b"); len(other) != 1 {
		t.Errorf("DrainCommands(b) = %+v, want one command", other)
	}
}
