package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{Validation("content is required"), http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{Forbidden("only the owner may revert"), http.StatusForbidden},
		{NotFound("document"), http.StatusNotFound},
		{fmt.Errorf("join: %w", NotFound("document")), http.StatusNotFound},
		{Infra("insert version", errors.New("connection refused")), http.StatusInternalServerError},
		{errors.New("something odd"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, _ := HTTPStatus(tc.err)
		assert.Equal(t, tc.code, code, "error %v", tc.err)
	}
}

func TestInfraDoesNotLeakCause(t *testing.T) {
	cause := errors.New("mongo: server selection timeout at 10.0.0.5")
	err := Infra("load participants", cause)
	require.ErrorIs(t, err, ErrInfrastructure)
	require.ErrorIs(t, err, cause)

	code, msg := HTTPStatus(err)
	require.Equal(t, http.StatusInternalServerError, code)
	require.NotContains(t, msg, "10.0.0.5")
}

func TestStatusUnavailableIsGeneric(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrStatusUnavailable, Infra("evict locks", errors.New("boom")))
	code, msg := HTTPStatus(err)
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "status unavailable", msg)
}
