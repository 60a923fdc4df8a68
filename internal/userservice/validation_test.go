package userservice

import (
	"testing"

	"github.com/hazelbrook/bloglist/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	testCases := []struct {
		name     string
		username string
		wantErrs map[string]string
	}{
		{
			name:     "valid",
			username: "bloguser",
			wantErrs: map[string]string{},
		},
		{
			name:     "empty",
			username: "",
			wantErrs: map[string]string{"username": "must be provided"},
		},
		{
			name:     "too short",
			username: "ab",
			wantErrs: map[string]string{"username": "must be between 3 and 72 characters long"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validateUsername(v, tc.username)
			assert.Equal(t, tc.wantErrs, v.Errors)
		})
	}
}

func TestValidateInt(t *testing.T) {
	v := common.NewValidator()
	validateInt(v, 1, "id")
	assert.True(t, v.Valid())

	v = common.NewValidator()
	validateInt(v, 0, "id")
	assert.Equal(t, map[string]string{"id": "must be greater than zero"}, v.Errors)
}
