package authservice

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/usersvc"
	"github.com/ichigozero/todokit/usersvc/pkg/userendpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueRequiresUserInContext(t *testing.T) {
	svc := New(NewTokenizer(testSecret, time.Minute), log.NewNopLogger())

	_, err := svc.Login(context.Background(), "a@x.io", "pw1")
	assert.ErrorIs(t, err, authsvc.ErrUserIDContextMissing)
}

func TestProxingMiddleware(t *testing.T) {
	tk := NewTokenizer(testSecret, time.Minute)

	register := func(_ context.Context, request interface{}) (interface{}, error) {
		req := request.(userendpoint.RegisterRequest)
		if req.Email == "taken@x.io" {
			return userendpoint.RegisterResponse{Err: usersvc.ErrDuplicateEmail}, nil
		}
		return userendpoint.RegisterResponse{ID: 3}, nil
	}
	verify := func(_ context.Context, request interface{}) (interface{}, error) {
		req := request.(userendpoint.VerifyRequest)
		if req.Password != "pw1" {
			return userendpoint.VerifyResponse{Err: usersvc.ErrInvalidCredentials}, nil
		}
		return userendpoint.VerifyResponse{ID: 5}, nil
	}

	svc := ProxingMiddleware(register, verify)(New(tk, log.NewNopLogger()))
	ctx := context.Background()

	token, err := svc.Register(ctx, "Alice", "a@x.io", "pw1")
	require.NoError(t, err)
	userID, err := tk.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), userID)

	_, err = svc.Register(ctx, "Alice", "taken@x.io", "pw1")
	assert.ErrorIs(t, err, usersvc.ErrDuplicateEmail)

	token, err = svc.Login(ctx, "a@x.io", "pw1")
	require.NoError(t, err)
	userID, err = tk.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), userID)

	_, err = svc.Login(ctx, "a@x.io", "wrong")
	assert.ErrorIs(t, err, usersvc.ErrInvalidCredentials)
}

func TestLoggingOmitsEmail(t *testing.T) {
	var buf bytes.Buffer
	verify := func(context.Context, interface{}) (interface{}, error) {
		return userendpoint.VerifyResponse{ID: 5}, nil
	}
	register := func(context.Context, interface{}) (interface{}, error) {
		return userendpoint.RegisterResponse{ID: 5}, nil
	}

	svc := LoggingMiddleware(log.NewLogfmtLogger(&buf))(
		ProxingMiddleware(register, verify)(NewBasicService(NewTokenizer(testSecret, time.Minute))),
	)

	_, err := svc.Register(context.Background(), "Alice", "a@x.io", "pw1")
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), "a@x.io", "pw1")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "method=Login")
	assert.NotContains(t, buf.String(), "a@x.io")
}
