package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass12!@", false},
		{"Exactly Min Length", "Abcdefghij1!", false},
		{"Exactly Max Length", "A" + strings.Repeat("b", 125) + "1!", false},
		{"Too Short", "Small1!", true},
		{"Too Long", "A" + strings.Repeat("b", 126) + "1!", true},
		{"No Upper", "securepass12!", true},
		{"No Lower", "SECUREPASS12!", true},
		{"No Digit", "SecurePass!!", true},
		{"No Special", "SecurePass123", true},
		{"Unicode Characters", "ÅngstromPass12!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "test@example.com", false},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"Multiple At Symbols", "user@@example.com", true},
		{"Space In Local Part", "user @example.com", true},
		{"Trailing Dot In Domain", "user@example.com.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTelephone(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateTelephone(""))
	assert.NoError(t, ValidateTelephone("+79991234567"))
	assert.Error(t, ValidateTelephone("89991234567"))
	assert.Error(t, ValidateTelephone("+0123456789"))
	assert.Error(t, ValidateTelephone("+7 999 123"))
}

func TestValidateScore(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateScore("creativity", nil))
	assert.NoError(t, ValidateScore("creativity", intPtr(1)))
	assert.NoError(t, ValidateScore("creativity", intPtr(6)))
	assert.Error(t, ValidateScore("creativity", intPtr(0)))
	assert.Error(t, ValidateScore("creativity", intPtr(7)))
}

func TestValidateRequiredAndLength(t *testing.T) {
	t.Parallel()
	assert.Error(t, ValidateRequired("name", "", 255))
	assert.NoError(t, ValidateRequired("name", "Run a marathon", 255))
	assert.Error(t, ValidateLength("who_am_i_extra_1", strings.Repeat("я", 51), 50))
	assert.NoError(t, ValidateLength("who_am_i_extra_1", strings.Repeat("я", 50), 50))
}

func TestValidateSlug(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateSlug("abcdefghij0123456789"))
	assert.Error(t, ValidateSlug("short"))
	assert.Error(t, ValidateSlug("ABCDEFGHIJ0123456789"))
}
