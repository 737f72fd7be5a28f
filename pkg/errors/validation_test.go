package errors

import (
	"strings"
	"testing"
)

func TestValidateEnvironmentPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid absolute", "/home/user/project/.venv", false},
		{"valid relative", ".venv", false},
		{"empty", "", true},
		{"null byte", "/tmp/env\x00", true},
		{"newline", "/tmp/env\n/etc", true},
		{"too long", "/" + strings.Repeat("a", 4096), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnvironmentPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEnvironmentPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateCustomName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "my-project", false},
		{"with spaces", "Data Science 2024", false},
		{"empty", "", true},
		{"tab", "a\tb", true},
		{"newline", "a\nb", true},
		{"too long", strings.Repeat("x", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCustomName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCustomName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
