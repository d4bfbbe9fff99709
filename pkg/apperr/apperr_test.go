package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(http.StatusNotFound, StatusOf(NotFound("application '%s' not found", "my-app")))
	assert.Equal(http.StatusUnauthorized, StatusOf(Unauthorized("no token")))
	assert.Equal(http.StatusInternalServerError, StatusOf(Upstream("api call failed")))
	assert.Equal(http.StatusBadRequest, StatusOf(Invalid("bad version")))
	assert.Equal(http.StatusUnprocessableEntity, StatusOf(ContentInvalid("no packages")))

	// Errors without a status default to 500
	assert.Equal(http.StatusInternalServerError, StatusOf(errors.New("boom")))
}

func TestWrapping(t *testing.T) {
	assert := assert.New(t)

	wrapped := fmt.Errorf("failed resolving release: %w", NotFound("application not found"))
	assert.Equal(http.StatusNotFound, StatusOf(wrapped))
	assert.True(HasStatus(wrapped, http.StatusNotFound))
	assert.False(HasStatus(wrapped, http.StatusInternalServerError))
}

func TestMessage(t *testing.T) {
	assert := assert.New(t)

	err := NotFound("application '%s' not found", "my-app")
	assert.Equal("application 'my-app' not found", err.Error())
}
