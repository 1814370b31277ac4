package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("ada@example.com"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("a b@example.com"))
	assert.False(t, IsValidEmail("ada@example"))
}

func TestIsValidBookingMonth(t *testing.T) {
	assert.True(t, IsValidBookingMonth("2025-08"))
	assert.False(t, IsValidBookingMonth("2025-13"))
	assert.False(t, IsValidBookingMonth("2025-8"))
	assert.False(t, IsValidBookingMonth("August"))
}

type sample struct {
	Name  string  `json:"client_name" validate:"required"`
	Email string  `json:"client_email" validate:"required,email_address"`
	Month *string `json:"booking_month" validate:"omitempty,booking_month"`
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Email: "ada@example.com"})
	require.Error(t, err)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "client_name", fe.Field)
	assert.Equal(t, "Missing required field: client_name", fe.Error())

	bad := "2025/08"
	err = Struct(sample{Name: "Ada", Email: "ada@example.com", Month: &bad})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "booking_month", fe.Field)

	err = Struct(sample{Name: "Ada", Email: "nope"})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Invalid email format", fe.Error())

	assert.NoError(t, Struct(sample{Name: "Ada", Email: "ada@example.com"}))
}
