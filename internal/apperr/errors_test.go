package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"validation", Validation("rating must be between 1 and 5"), ErrValidation},
		{"not found", NotFound("book"), ErrNotFound},
		{"wrapped forbidden", fmt.Errorf("delete book: %w", Forbidden("not allowed")), ErrForbidden},
		{"already exists", AlreadyExists("dup"), ErrAlreadyExists},
		{"unauthorized", Unauthorized("no token"), ErrUnauthorized},
		{"plain error", errors.New("boom"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "book not found", Message(NotFound("book"), "x"))
	assert.Equal(t, "book not found", Message(fmt.Errorf("wrap: %w", NotFound("book")), "x"))
	assert.Equal(t, "fallback", Message(errors.New("db down"), "fallback"))
}

func TestSentinelIdentity(t *testing.T) {
	errDup := AlreadyExists("user with this email already exists")
	wrapped := fmt.Errorf("signup: %w", errDup)

	assert.ErrorIs(t, wrapped, errDup)
	assert.ErrorIs(t, wrapped, ErrAlreadyExists)
	assert.NotErrorIs(t, wrapped, ErrNotFound)
}
