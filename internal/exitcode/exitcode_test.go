package exitcode

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/internal/service"
	"taskflow/internal/session"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"no session", fmt.Errorf("load: %w", session.ErrNoSession), AuthError},
		{"unauthenticated", service.NewUnauthenticated(nil), AuthError},
		{"not configured", service.NewNotConfigured("missing oauth_client.json", nil), AuthError},
		{"not found", service.NewNotFound("task t1"), UserError},
		{"rejected", service.NewRemoteRejected(500, "boom", "", nil), BackendError},
		{"cancelled", context.Canceled, BackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, For(tt.err))
		})
	}
}

func TestIsAuth(t *testing.T) {
	require.True(t, IsAuth(service.NewUnauthenticated(nil)))
	require.False(t, IsAuth(session.ErrNoSession))
	require.False(t, IsAuth(service.NewTransportUnavailable(context.DeadlineExceeded)))
}
