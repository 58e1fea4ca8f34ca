package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Is_MatchesByCode(t *testing.T) {
	err := BadUserInput("wrong credentials")
	assert.ErrorIs(t, err, ErrBadUserInput)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestError_Wrapping(t *testing.T) {
	cause := fmt.Errorf("index conflict")
	err := Wrap(cause, CodeBadUserInput, "username already taken")

	assert.ErrorIs(t, err, ErrBadUserInput)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "username already taken")
	assert.Contains(t, err.Error(), "index conflict")
}

func TestError_Extensions(t *testing.T) {
	err := BadUserInput("invalid book").WithDetails(map[string]any{
		"title": "",
	})

	ext := err.Extensions()
	assert.Equal(t, "BAD_USER_INPUT", ext["code"])
	require.Contains(t, ext, "invalidArgs")
}

func TestError_Extensions_NoDetails(t *testing.T) {
	ext := Unauthenticated("not authenticated").Extensions()
	assert.Equal(t, "UNAUTHENTICATED", ext["code"])
	assert.NotContains(t, ext, "invalidArgs")
}

func TestCode_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, CodeUnauthenticated.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, CodeBadUserInput.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, CodeNotFound.HTTPStatus())
	assert.Equal(t, http.StatusConflict, CodeConflict.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, CodeInternal.HTTPStatus())
}
