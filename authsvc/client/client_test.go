package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/authsvc/client"
	"github.com/ichigozero/todokit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/ichigozero/todokit/authsvc/pkg/authtransport"
	"github.com/ichigozero/todokit/db"
	"github.com/ichigozero/todokit/usersvc"
	usergorm "github.com/ichigozero/todokit/usersvc/db/gorm"
	"github.com/ichigozero/todokit/usersvc/pkg/userendpoint"
	"github.com/ichigozero/todokit/usersvc/pkg/userservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestClient(t *testing.T) {
	database, err := db.Open(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	defer func() {
		sqlDB, _ := database.DB()
		sqlDB.Close()
	}()

	logger := log.NewNopLogger()
	tokenizer := authservice.NewTokenizer([]byte("test-secret"), time.Minute)

	users := userendpoint.New(
		userservice.New(usergorm.NewUserRepository(database), bcrypt.MinCost, logger),
		logger,
	)
	svc := authservice.ProxingMiddleware(users.RegisterEndpoint, users.VerifyEndpoint)(
		authservice.New(tokenizer, logger),
	)

	srv := httptest.NewServer(authtransport.NewHTTPHandler(authendpoint.New(svc, logger), logger))
	defer srv.Close()

	c, err := client.New([]string{srv.URL}, logger, 3, time.Second)
	require.NoError(t, err)

	var auth authservice.Service = c
	ctx := context.Background()

	token, err := auth.Register(ctx, "Alice", "a@x.io", "pw1")
	require.NoError(t, err)
	registered, err := tokenizer.Resolve(token)
	require.NoError(t, err)

	_, err = auth.Register(ctx, "Alice", "a@x.io", "pw1")
	assert.ErrorIs(t, err, usersvc.ErrDuplicateEmail)

	token, err = auth.Login(ctx, "a@x.io", "pw1")
	require.NoError(t, err)
	loggedIn, err := tokenizer.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, registered, loggedIn)

	_, err = auth.Login(ctx, "a@x.io", "nope")
	assert.ErrorIs(t, err, usersvc.ErrInvalidCredentials)
}
