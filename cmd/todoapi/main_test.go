package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/ichigozero/todokit/db"
	"github.com/ichigozero/todokit/todosvc/pkg/todoservice"
	"github.com/ichigozero/todokit/usersvc/pkg/userservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))

	h := newHTTPHandler(
		database,
		authservice.NewTokenizer([]byte("test-secret"), time.Minute),
		bcrypt.MinCost,
		userservice.InstrumentingMiddleware(discard.NewCounter(), discard.NewHistogram()),
		todoservice.InstrumentingMiddleware(discard.NewCounter(), discard.NewHistogram()),
		log.NewNopLogger(),
	)

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		sqlDB, _ := database.DB()
		sqlDB.Close()
	})

	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, token, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(b)
}

func login(t *testing.T, srv *httptest.Server, name, email string) string {
	t.Helper()

	code, body := do(t, srv, "POST", "/register", "",
		fmt.Sprintf(`{"name":%q,"email":%q,"password":"pw1"}`, name, email))
	require.Equal(t, http.StatusCreated, code, body)

	var registered struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &registered))
	require.NotEmpty(t, registered.Token)

	code, body = do(t, srv, "POST", "/login", "", fmt.Sprintf(`{"email":%q,"password":"pw1"}`, email))
	require.Equal(t, http.StatusOK, code, body)

	var loggedIn struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &loggedIn))
	require.NotEmpty(t, loggedIn.AccessToken)

	return loggedIn.AccessToken
}

type todoBody struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func TestTodoLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Alice", "a@x.io")

	code, body := do(t, srv, "POST", "/todos", token, `{"title":"Buy milk","description":"2 liters"}`)
	require.Equal(t, http.StatusCreated, code, body)

	var created todoBody
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "2 liters", created.Description)

	path := fmt.Sprintf("/todos/%d", created.ID)

	code, body = do(t, srv, "PUT", path, token, `{"title":"Updated"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"title":"Updated","description":"2 liters"}`, created.ID), body)

	code, body = do(t, srv, "GET", path, token, "")
	require.Equal(t, http.StatusOK, code, body)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"title":"Updated","description":"2 liters"}`, created.ID), body)

	code, body = do(t, srv, "GET", "/todos", token, "")
	require.Equal(t, http.StatusOK, code, body)
	assert.JSONEq(t, fmt.Sprintf(
		`{"data":[{"id":%d,"title":"Updated","description":"2 liters"}],"page":1,"limit":10,"total":1}`,
		created.ID,
	), body)

	code, body = do(t, srv, "DELETE", path, token, "")
	assert.Equal(t, http.StatusNoContent, code)
	assert.Empty(t, body)

	code, body = do(t, srv, "GET", path, token, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.JSONEq(t, `{"error":"forbidden"}`, body)
}

func TestCreateTodoValidation(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Alice", "a@x.io")

	for _, body := range []string{`{"title":"Buy milk"}`, `{"description":"2 liters"}`, `not json`} {
		code, resp := do(t, srv, "POST", "/todos", token, body)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.JSONEq(t, `{"error":"missing required fields"}`, resp)
	}
}

func TestTodosRequireToken(t *testing.T) {
	srv := newTestServer(t)

	requests := []struct {
		method, path, token string
	}{
		{"GET", "/todos", ""},
		{"POST", "/todos", ""},
		{"GET", "/todos/1", ""},
		{"PUT", "/todos/1", ""},
		{"DELETE", "/todos/1", ""},
		{"GET", "/todos", "not-a-token"},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			// A malformed body must not win over the missing token.
			code, body := do(t, srv, r.method, r.path, r.token, "{")
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.JSONEq(t, `{"message":"Unauthorized"}`, body)
		})
	}
}

func TestTodosAreOwnerScoped(t *testing.T) {
	srv := newTestServer(t)
	alice := login(t, srv, "Alice", "a@x.io")
	bob := login(t, srv, "Bob", "b@x.io")

	code, body := do(t, srv, "POST", "/todos", alice, `{"title":"Secret","description":"plans"}`)
	require.Equal(t, http.StatusCreated, code, body)

	var created todoBody
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	path := fmt.Sprintf("/todos/%d", created.ID)

	for _, method := range []string{"GET", "PUT", "DELETE"} {
		code, body := do(t, srv, method, path, bob, `{"title":"Hijacked"}`)
		assert.Equal(t, http.StatusForbidden, code, method)
		assert.JSONEq(t, `{"error":"forbidden"}`, body)
	}

	code, body = do(t, srv, "GET", "/todos", bob, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"data":[],"page":1,"limit":10,"total":0}`, body)

	code, body = do(t, srv, "GET", path, alice, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"title":"Secret","description":"plans"}`, created.ID), body)
}

func TestTodosPagination(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Alice", "a@x.io")

	for i := 1; i <= 15; i++ {
		code, body := do(t, srv, "POST", "/todos", token,
			fmt.Sprintf(`{"title":"Todo %d","description":"Description %d"}`, i, i))
		require.Equal(t, http.StatusCreated, code, body)
	}

	list := func(query string) (ids []uint64, page, limit int, total int64) {
		code, body := do(t, srv, "GET", "/todos?"+query, token, "")
		require.Equal(t, http.StatusOK, code, body)

		var resp struct {
			Data  []todoBody `json:"data"`
			Page  int        `json:"page"`
			Limit int        `json:"limit"`
			Total int64      `json:"total"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &resp))
		for _, todo := range resp.Data {
			ids = append(ids, todo.ID)
		}
		return ids, resp.Page, resp.Limit, resp.Total
	}

	ids, page, limit, total := list("page=2&limit=5")
	assert.Equal(t, []uint64{6, 7, 8, 9, 10}, ids)
	assert.Equal(t, 2, page)
	assert.Equal(t, 5, limit)
	assert.Equal(t, int64(15), total)

	ids, _, _, total = list("search=todo%207")
	assert.Equal(t, []uint64{7}, ids)
	assert.Equal(t, int64(1), total)

	_, _, limit, _ = list("limit=0")
	assert.Equal(t, 1, limit)

	_, _, limit, _ = list("limit=1000")
	assert.Equal(t, 100, limit)

	_, page, limit, _ = list("page=abc&limit=xyz")
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
}

func TestUpdateTodoRequiresAField(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Alice", "a@x.io")

	code, body := do(t, srv, "POST", "/todos", token, `{"title":"Buy milk","description":"2 liters"}`)
	require.Equal(t, http.StatusCreated, code, body)

	var created todoBody
	require.NoError(t, json.Unmarshal([]byte(body), &created))

	code, body = do(t, srv, "PUT", fmt.Sprintf("/todos/%d", created.ID), token, `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"missing required fields"}`, body)
}

func TestRegisterAndLoginErrors(t *testing.T) {
	srv := newTestServer(t)
	login(t, srv, "Alice", "a@x.io")

	code, body := do(t, srv, "POST", "/register", "", `{"name":"Alice","email":"a@x.io","password":"pw2"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"email already exists"}`, body)

	code, body = do(t, srv, "POST", "/login", "", `{"email":"a@x.io","password":"pw1"}`)
	assert.Equal(t, http.StatusOK, code, body)

	code, body = do(t, srv, "POST", "/login", "", `{"email":"a@x.io","password":"pw2"}`)
	assert.Equal(t, http.StatusUnauthorized, code, body)

	code, body = do(t, srv, "POST", "/register", "", `{"name":"Alice","email":"c@x.io"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"missing required fields"}`, body)

	wrongCode, wrongBody := do(t, srv, "POST", "/login", "", `{"email":"a@x.io","password":"nope"}`)
	unknownCode, unknownBody := do(t, srv, "POST", "/login", "", `{"email":"nobody@x.io","password":"pw1"}`)
	assert.Equal(t, http.StatusUnauthorized, wrongCode)
	assert.Equal(t, wrongCode, unknownCode)
	assert.Equal(t, wrongBody, unknownBody)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, wrongBody)
}
