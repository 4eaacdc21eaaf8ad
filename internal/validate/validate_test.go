package validate

import (
	"testing"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	FullName string `form:"full_name" validate:"required,max=10"`
	Email    string `json:"email" validate:"omitempty,email"`
	Stock    int    `form:"stock" validate:"gte=0"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      form
		wantFields map[string]string
	}{
		{
			name:  "valid",
			input: form{FullName: "Amani", Email: "a@example.com"},
		},
		{
			name:  "missing and malformed",
			input: form{Email: "nope", Stock: -1},
			wantFields: map[string]string{
				"full_name": "This field is required",
				"email":     "Enter a valid email address",
				"stock":     "Must be 0 or more",
			},
		},
		{
			name:       "too long",
			input:      form{FullName: "Amani Mwamba Kalala"},
			wantFields: map[string]string{"full_name": "Must be at most 10 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct("test.op", tt.input)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err))
			assert.Equal(t, tt.wantFields, domain.GetValidationFields(err))
		})
	}
}
