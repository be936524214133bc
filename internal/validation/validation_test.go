package validation_test

import (
	"testing"

	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/jrsteele09/go-inventory-console/internal/validation"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string `validate:"required,max=5"`
	Email    string `validate:"omitempty,email"`
	Quantity int    `validate:"gte=0"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, validation.Struct(sample{Name: "desk", Email: "a@b.co"}))

	err := validation.Struct(sample{Email: "nope", Quantity: -1})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.ErrorContains(t, err, "name is required")
	require.ErrorContains(t, err, "email must be a valid email address")
	require.ErrorContains(t, err, "quantity must be 0 or more")

	err = validation.Struct(sample{Name: "toolong"})
	require.ErrorContains(t, err, "name must be at most 5 characters")
}
