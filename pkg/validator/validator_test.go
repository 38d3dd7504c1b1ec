package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type registrationPayload struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
}

func TestValidateStructSuccess(t *testing.T) {
	err := ValidateStruct(registrationPayload{
		Username: "alice",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
}

func TestValidateStructReportsFieldFailures(t *testing.T) {
	err := ValidateStruct(registrationPayload{Email: "not-an-email"})
	require.Error(t, err)

	failures, ok := err.(FieldErrors)
	require.True(t, ok)
	require.Len(t, failures, 2)
	require.ErrorContains(t, err, "username failed on required")
	require.ErrorContains(t, err, "email failed on email")
}
