package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", NotFound("url not found by code: %s", "ABCDE"), http.StatusNotFound},
		{"already exists", AlreadyExists("email taken"), http.StatusConflict},
		{"unauthorized", Unauthorized("bad credentials"), http.StatusUnauthorized},
		{"gone", Gone("link expired"), http.StatusGone},
		{"insufficient capacity", InsufficientCapacity("code space full"), http.StatusInsufficientStorage},
		{"bad request", BadRequest("malformed input"), http.StatusBadRequest},
		{"outside the taxonomy", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestKindMatchingThroughWraps(t *testing.T) {
	err := fmt.Errorf("allocating: %w", InsufficientCapacity("code space full"))

	assert.True(t, IsKind(err, KindInsufficientCapacity))
	assert.False(t, IsKind(err, KindNotFound))
	assert.True(t, errors.Is(err, &Error{Kind: KindInsufficientCapacity}))
	assert.Equal(t, http.StatusInsufficientStorage, Status(err))
	assert.Equal(t, "code space full", Detail(err))
}

func TestDetailFallback(t *testing.T) {
	assert.Equal(t, "boom", Detail(errors.New("boom")))
}
