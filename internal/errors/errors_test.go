package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  NotFound("target not found"),
			want: "target not found",
		},
		{
			name: "error with cause",
			err:  Wrap(errors.New("dial tcp: refused"), ErrCodeUnavailable, "list targets"),
			want: "list targets: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}

func TestCodeChecks_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", Validationf("page %d out of range", 9))

	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, ErrCodeValidation, GetCode(err))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, "ra", GetField(ValidationField("ra", "out of range")))
}

func TestFromStatus(t *testing.T) {
	tests := map[int]ErrorCode{
		http.StatusBadRequest:          ErrCodeValidation,
		http.StatusUnauthorized:        ErrCodeUnauthorized,
		http.StatusForbidden:           ErrCodeForbidden,
		http.StatusNotFound:            ErrCodeNotFound,
		http.StatusConflict:            ErrCodeConflict,
		http.StatusBadGateway:          ErrCodeUnavailable,
		http.StatusGatewayTimeout:      ErrCodeTimeout,
		http.StatusInternalServerError: ErrCodeInternal,
		http.StatusTeapot:              ErrCodeInternal,
	}
	for status, want := range tests {
		assert.Equal(t, want, FromStatus(status), "status %d", status)
	}
}

func TestFromTransport(t *testing.T) {
	assert.Equal(t, ErrCodeCanceled, FromTransport(fmt.Errorf("get: %w", context.Canceled)))
	assert.Equal(t, ErrCodeTimeout, FromTransport(context.DeadlineExceeded))
	assert.Equal(t, ErrCodeUnavailable, FromTransport(errors.New("connection refused")))
}

func TestHTTPStatus_RoundTripsUpstreamClientErrors(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 409} {
		assert.Equal(t, status, HTTPStatus(FromStatus(status)))
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("something-else"))
}
