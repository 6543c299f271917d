package apperrors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Duplicate("dup"), http.StatusBadRequest},
		{Unauthenticated("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Internal("oops", assert.AnError), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Kind.HTTPStatus())
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Fish not found", NotFound("Fish not found").Error())
	assert.Equal(t, "Server error: "+assert.AnError.Error(), Internal("Server error", assert.AnError).Error())
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", Forbidden("Admin access required"))

	assert.Equal(t, KindForbidden, KindOf(err))
	assert.True(t, Is(err, KindForbidden))
	assert.False(t, Is(nil, KindInternal))
	assert.Equal(t, KindInternal, KindOf(assert.AnError))

	e, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "Admin access required", e.Message)
}

func TestInternalUnwraps(t *testing.T) {
	assert.ErrorIs(t, Internal("Server error", ErrNotFound), ErrNotFound)
}

func TestFromStatus(t *testing.T) {
	assert.Equal(t, KindValidation, FromStatus(http.StatusBadRequest, "x").Kind)
	assert.Equal(t, KindUnauthenticated, FromStatus(http.StatusUnauthorized, "x").Kind)
	assert.Equal(t, KindForbidden, FromStatus(http.StatusForbidden, "x").Kind)
	assert.Equal(t, KindNotFound, FromStatus(http.StatusNotFound, "x").Kind)
	assert.Equal(t, KindInternal, FromStatus(http.StatusTooManyRequests, "x").Kind)
	assert.Equal(t, "x", FromStatus(http.StatusBadGateway, "x").Message)
}
