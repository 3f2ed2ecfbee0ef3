package errors

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{
			"auth error",
			fmt.Errorf("refresh: %w", domainauth.NewAuthError(domainauth.KindUnauthorized, 401, nil)),
			"auth_unauthorized",
		},
		{"app error", apperrors.NotFound("target 4"), "not_found"},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), "timeout"},
		{"concrete type", &net.DNSError{Err: "no such host"}, "net_dnserror"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
