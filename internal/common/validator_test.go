package common

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorCheck(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.Valid())

	v.Check(true, "title", "must be provided")
	assert.True(t, v.Valid())

	v.Check(false, "title", "must be provided")
	assert.False(t, v.Valid())
	assert.Equal(t, "must be provided", v.Errors["title"])

	// first message for a field wins
	v.Check(false, "title", "another message")
	assert.Equal(t, "must be provided", v.Errors["title"])
}

func TestValidatorCheckStringLength(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.CheckStringLength("abc", 3, 5))
	assert.False(t, v.CheckStringLength("ab", 3, 5))
	assert.False(t, v.CheckStringLength("abcdef", 3, 5))
}

func TestValidatorMatches(t *testing.T) {
	v := NewValidator()
	rx := regexp.MustCompile("^[a-z]+$")

	assert.True(t, v.Matches("abc", rx))
	assert.False(t, v.Matches("abc1", rx))
}

func TestValidationError(t *testing.T) {
	v := NewValidator()
	v.AddError("url", "must be provided")

	err := v.ValidationError()

	var validationErr ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, map[string]string{"url": "must be provided"}, validationErr.Errors)
}
