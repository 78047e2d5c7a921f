package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/zenplan-api/internal/apitest"
	"github.com/oksasatya/zenplan-api/pkg/forms"
)

func newClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := New(srv.URL+"/", opts...)
	require.NoError(t, err)
	return c
}

func signup(t *testing.T, c *Client, name, email string) {
	t.Helper()
	ctx := context.Background()
	reg := c.Register(ctx, forms.SignupForm{Name: name, Email: email, Password: "secret1", ConfirmPassword: "secret1"})
	require.True(t, reg.OK(), reg.Message)
	assert.Equal(t, http.StatusCreated, reg.StatusCode)
	assert.Equal(t, "User registered successfully", reg.Message)

	login := c.Login(ctx, forms.LoginForm{Email: email, Password: "secret1"})
	require.True(t, login.OK(), login.Message)
	assert.Equal(t, name, login.Data.Name)
}

func TestHooksAgainstServer(t *testing.T) {
	env := apitest.New(t)
	srv := httptest.NewServer(env.Engine)
	t.Cleanup(srv.Close)

	var (
		mu     sync.Mutex
		states []State
	)
	c := newClient(t, srv, WithStateListener(func(op string, s State) {
		if op == "toggle" {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		}
	}))
	ctx := context.Background()
	assert.Equal(t, StateIdle, c.State("toggle"))
	signup(t, c, "Ana", "ana@example.com")

	empty := c.Activities(ctx)
	require.True(t, empty.OK())
	assert.Empty(t, empty.Data)

	created := c.Create(ctx, forms.ActivityForm{Title: "Walk", Category: "Exercise", Time: "2024-05-01T08:00:00Z"})
	require.True(t, created.OK(), created.Message)
	assert.Equal(t, "Exercise", created.Data.Category)

	toggled := c.Toggle(ctx, created.Data.ID)
	require.True(t, toggled.OK())
	assert.True(t, toggled.Data.Completed)
	assert.Equal(t, []State{StateLoading, StateSuccess}, states)
	assert.Equal(t, StateSuccess, c.State("toggle"))

	edited := c.Edit(ctx, created.Data.ID, forms.ActivityForm{Title: "Long walk", Category: "Stress Management", Time: "2024-05-01T09:00:00Z", Note: "park"})
	require.True(t, edited.OK(), edited.Message)
	assert.Equal(t, "Stress Management", edited.Data.Category)
	assert.Equal(t, "park", edited.Data.Note)
	assert.True(t, edited.Data.Completed, "edit does not touch completion")

	c.Create(ctx, forms.ActivityForm{Title: "Water", Category: "Hydration", Time: "2024-05-01T10:00:00Z"})
	done := c.CompleteAll(ctx)
	require.True(t, done.OK())
	assert.Equal(t, 1, done.Data.Count)

	found := c.Search(ctx, "walk", 5)
	require.True(t, found.OK())
	require.Len(t, found.Data, 1)

	del := c.Delete(ctx, created.Data.ID)
	require.True(t, del.OK())
	assert.Equal(t, created.Data.ID, del.Data.ID)

	missing := c.Delete(ctx, created.Data.ID)
	assert.Equal(t, StateError, missing.State)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.Equal(t, "activity not found", missing.Message)
	assert.Equal(t, StateError, c.State("delete"))
	assert.Equal(t, StateIdle, c.State("refresh"))

	out := c.Logout(ctx)
	require.True(t, out.OK())
	after := c.Activities(ctx)
	assert.Equal(t, http.StatusUnauthorized, after.StatusCode)
}

func TestClientSideValidationSkipsNetwork(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	t.Cleanup(srv.Close)
	c := newClient(t, srv)
	ctx := context.Background()

	res := c.Create(ctx, forms.ActivityForm{Title: "", Category: "Sleep", Time: "x"})
	assert.Equal(t, StateError, res.State)
	assert.Equal(t, forms.MsgTitleEmpty, res.Fields["title"])
	assert.Equal(t, forms.MsgCategoryInvalid, res.Fields["category"])
	assert.Equal(t, forms.MsgTimeInvalid, res.Fields["time"])
	assert.Zero(t, res.StatusCode)

	reg := c.Register(ctx, forms.SignupForm{Name: "Ana", Email: "ana@example.com", Password: "secret1", ConfirmPassword: "secret2"})
	assert.Equal(t, forms.MsgPasswordsDiffer, reg.Fields["confirm_password"])

	assert.Zero(t, hits)
}

func TestServerFieldErrorsAndFallbackMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list/get":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"message":"validation failed","error":{"title":"cannot be empty"}}`))
		case "/list/complete":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success":false}`))
		}
	}))
	t.Cleanup(srv.Close)
	c := newClient(t, srv)
	ctx := context.Background()

	res := c.Activities(ctx)
	assert.Equal(t, "validation failed", res.Message)
	assert.Equal(t, map[string]string{"title": "cannot be empty"}, res.Fields)

	gw := c.CompleteAll(ctx)
	assert.Equal(t, http.StatusBadGateway, gw.StatusCode)
	assert.Equal(t, "Bad Gateway", gw.Message)

	ise := c.Toggle(ctx, "x")
	assert.Equal(t, "Internal Server Error", ise.Message)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)
	res := c.Activities(context.Background())
	assert.Equal(t, StateError, res.State)
	assert.Zero(t, res.StatusCode)
	assert.NotEmpty(t, res.Message)
}
