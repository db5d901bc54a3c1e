package validate

import (
	"strings"
	"testing"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Count int    `yaml:"count" validate:"min=1,max=5"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		wantErr string
	}{
		{"valid", &sample{Name: "a", Count: 2}, ""},
		{"missing name", &sample{Count: 2}, "sample.name required"},
		{"count too big", sample{Name: "a", Count: 9}, "sample.count max=5"},
		{"nil", nil, "is nil"},
		{"not a struct", 5, "not a struct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Struct() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Struct() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
