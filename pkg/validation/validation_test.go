package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testInner struct {
	Token        string `json:"token" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type testOuter struct {
	ID    string     `json:"id" validate:"required"`
	Email string     `json:"email" validate:"required,email"`
	Token *testInner `json:"token" validate:"required"`
}

func TestValidateStruct_Valid(t *testing.T) {
	errs := ValidateStruct(testOuter{
		ID:    "abc",
		Email: "alice@example.com",
		Token: &testInner{Token: "t", RefreshToken: "r"},
	})
	assert.Nil(t, errs)
}

func TestValidateStruct_CollectsAllViolations(t *testing.T) {
	errs := ValidateStruct(testOuter{
		Token: &testInner{},
	})

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}

	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "token.token")
	assert.Contains(t, fields, "token.refreshToken")
	assert.Len(t, errs, 4)
}

func TestValidateStruct_EmailFormat(t *testing.T) {
	errs := ValidateStruct(testOuter{
		ID:    "abc",
		Email: "not-an-email",
		Token: &testInner{Token: "t", RefreshToken: "r"},
	})
	assert.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].Field)
	assert.Equal(t, "must be a valid email address", errs[0].Message)
}

func TestMessages(t *testing.T) {
	msg := Messages([]FieldError{
		{Field: "id", Message: "is required"},
		{Field: "email", Message: "must be a valid email address"},
	})
	assert.Equal(t, "id: is required; email: must be a valid email address", msg)
}
