package protocol_test

import (
	"testing"

	"telematics/internal/protocol"
)

func TestParseFixedPoint(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{in: "12.5", want: 12.5, wantOK: true},
		{in: "0530.1234", want: 530.1234, wantOK: true},
		{in: "42", want: 42, wantOK: true},
		{in: "", wantOK: false},
		{in: "NaN", wantOK: false},
		{in: "nan", wantOK: false},
		{in: "Inf", wantOK: false},
		{in: "+Inf", wantOK: false},
		{in: "-1.5", wantOK: false},
		{in: "1e3", wantOK: false},
		{in: "0x1p4", wantOK: false},
		{in: ".5", wantOK: false},
		{in: "5.", wantOK: false},
		{in: "1.2.3", wantOK: false},
		{in: "1_000", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := protocol.ParseFixedPoint(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseFixedPoint(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseFixedPoint(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
