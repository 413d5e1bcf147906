package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"removes null bytes", "he\x00llo", "hello"},
		{"keeps newlines and tabs", "a\nb\tc", "a\nb\tc"},
		{"strips control characters", "a\x01b\x1fc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeString(tt.input))
		})
	}
}

func TestValidateMachineCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"typical code", "M14860", false},
		{"low variant code", "L47181", false},
		{"with hyphen", "H-200", false},
		{"empty", "", true},
		{"too short", "M", true},
		{"lowercase prefix", "m14860", true},
		{"starts with digit", "14860M", true},
		{"contains space", "M 14860", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMachineCode(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Str0ng!pass"))
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword("alllowercase1!"))
	assert.Error(t, ValidatePassword("NoNumbers!!"))
	assert.Error(t, ValidatePassword("NoSpecial123"))
}
