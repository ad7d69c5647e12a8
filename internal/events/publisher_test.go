package events

import (
	"testing"

	"telematics/internal/core/model"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix string
		event  string
		want   string
	}{
		{prefix: "telematics", event: EventLocation, want: "telematics.location"},
		{prefix: "fleet.eu", event: EventAlert, want: "fleet.eu.alert"},
		{prefix: "", event: EventState, want: "state"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := NewPublisher(nil, tt.prefix).Subject(tt.event); got != tt.want {
				t.Errorf("Subject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisconnectedPublisher(t *testing.T) {
	p, err := Connect("", "telematics")
	if err != nil {
		t.Fatalf("Connect(\"\") unexpected error: %v", err)
	}

	if err := p.Publish(EventLocation, map[string]int{"x": 1}); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
	sub, err := p.SubscribeCommands(func(model.Command) { t.Error("unexpected command") })
	if err != nil || sub != nil {
		t.Errorf("SubscribeCommands() = %v, %v", sub, err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	var nilPublisher *Publisher
	if err := nilPublisher.Publish(EventAlert, nil); err != nil {
		t.Errorf("nil Publish() error = %v", err)
	}
}
