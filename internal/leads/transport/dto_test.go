package transport

import (
	"testing"

	"leadtrack_backend/platform/validator"
)

func TestRecordEngagementRequestValueBounds(t *testing.T) {
	val := validator.New()

	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"zero", 0, false},
		{"upper bound", 100, false},
		{"negative", -1, true},
		{"over upper bound", 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := RecordEngagementRequest{
				EngagementType: "email_opened",
				Value:          tt.value,
			}
			err := val.Struct(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
