package router_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/zenplan-api/internal/apitest"
	"github.com/oksasatya/zenplan-api/pkg/helpers"
)

type envelope struct {
	Status    int             `json:"status"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Error     json.RawMessage `json:"error"`
}

type activity struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Completed bool   `json:"completed"`
}

type api struct {
	t   *testing.T
	env *apitest.Env
}

func newAPI(t *testing.T) *api {
	return &api{t: t, env: apitest.New(t)}
}

func (a *api) call(method, path string, body any, cookies []*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.env.Engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

// signup registers and logs in, returning the session cookies.
func (a *api) signup(name, email string) []*http.Cookie {
	a.t.Helper()
	rec, env := a.call(http.MethodPost, "/user/register", map[string]string{"name": name, "email": email, "password": "secret1"}, nil)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(a.t, "User registered successfully", env.Message)

	rec, _ = a.call(http.MethodPost, "/user/login", map[string]string{"email": email, "password": "secret1"}, nil)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(a.t, cookies, 2)
	return cookies
}

func (a *api) create(cookies []*http.Cookie, title, category string) activity {
	a.t.Helper()
	rec, env := a.call(http.MethodPost, "/list/create", map[string]string{"title": title, "category": category, "time": "2024-05-01T08:00:00Z"}, cookies)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out activity
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	return out
}

func decodeList(t *testing.T, env envelope) []activity {
	t.Helper()
	var out []activity
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestRegisterLoginEmptyList(t *testing.T) {
	a := newAPI(t)
	cookies := a.signup("Ana", "ana@example.com")

	names := []string{cookies[0].Name, cookies[1].Name}
	assert.ElementsMatch(t, []string{helpers.AccessCookie, helpers.RefreshCookie}, names)
	for _, c := range cookies {
		assert.True(t, c.HttpOnly)
	}

	rec, env := a.call(http.MethodGet, "/list/get", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "[]", string(env.Data))
	assert.NotEmpty(t, env.RequestID)
}

func TestRegisterDuplicateAndInvalid(t *testing.T) {
	a := newAPI(t)
	a.signup("Ana", "ana@example.com")

	rec, env := a.call(http.MethodPost, "/user/register", map[string]string{"name": "Ana", "email": "ANA@example.com", "password": "secret1"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)

	rec, env = a.call(http.MethodPost, "/user/register", map[string]string{"name": "Ana", "email": "nope", "password": "123"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(env.Error, &fields))
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Equal(t, "must be at least 6 characters long", fields["password"])

	rec, _ = a.call(http.MethodPost, "/user/login", map[string]string{"email": "ana@example.com", "password": "wrong-one"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterMultibytePasswordTooLong(t *testing.T) {
	a := newAPI(t)

	rec, env := a.call(http.MethodPost, "/user/register", map[string]string{
		"name": "Élodie", "email": "elodie@example.com", "password": strings.Repeat("é", 40),
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "validation failed", env.Message)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(env.Error, &fields))
	assert.Equal(t, "must be at most 72 bytes long", fields["password"])

	rec, _ = a.call(http.MethodPost, "/user/login", map[string]string{"email": "elodie@example.com", "password": strings.Repeat("é", 40)}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "nothing was stored")
}

func TestListRequiresSession(t *testing.T) {
	a := newAPI(t)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/list/get"},
		{http.MethodPost, "/list/create"},
		{http.MethodPut, "/list/edit/x"},
		{http.MethodDelete, "/list/delete/x"},
		{http.MethodPatch, "/list/toggle/x"},
		{http.MethodPatch, "/list/complete"},
		{http.MethodGet, "/list/search?q=x"},
	}
	for _, r := range routes {
		rec, env := a.call(r.method, r.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.path)
		assert.False(t, env.Success, r.path)
	}
	assert.Zero(t, a.env.Activities.Count())
}

func TestToggleWalkTwice(t *testing.T) {
	a := newAPI(t)
	cookies := a.signup("Ana", "ana@example.com")
	walk := a.create(cookies, "Walk", "Exercise")
	assert.False(t, walk.Completed)

	_, env := a.call(http.MethodPatch, "/list/toggle/"+walk.ID, nil, cookies)
	var got activity
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Completed)

	_, env = a.call(http.MethodPatch, "/list/toggle/"+walk.ID, nil, cookies)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.False(t, got.Completed)
}

func TestForeignDeleteLooksMissing(t *testing.T) {
	a := newAPI(t)
	ana := a.signup("Ana", "ana@example.com")
	ben := a.signup("Ben", "ben@example.com")
	item := a.create(ana, "Walk", "Exercise")

	foreign, foreignEnv := a.call(http.MethodDelete, "/list/delete/"+item.ID, nil, ben)
	missing, missingEnv := a.call(http.MethodDelete, "/list/delete/00000000-0000-0000-0000-000000000000", nil, ben)
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	assert.Equal(t, missing.Code, foreign.Code)
	assert.Equal(t, "activity not found", foreignEnv.Message)
	assert.Equal(t, missingEnv.Message, foreignEnv.Message)

	for _, path := range []string{"/list/toggle/" + item.ID, "/list/toggle/not-a-uuid"} {
		rec, env := a.call(http.MethodPatch, path, nil, ben)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "activity not found", env.Message)
	}
	rec, _ := a.call(http.MethodPut, "/list/edit/"+item.ID, map[string]string{"title": "Stolen"}, ben)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, env := a.call(http.MethodGet, "/list/get", nil, ana)
	list := decodeList(t, env)
	require.Len(t, list, 1)
	assert.Equal(t, "Walk", list[0].Title)

	_, env = a.call(http.MethodGet, "/list/get", nil, ben)
	assert.Empty(t, decodeList(t, env))
}

func TestCreateValidation(t *testing.T) {
	a := newAPI(t)
	cookies := a.signup("Ana", "ana@example.com")

	cases := []map[string]string{
		{"title": "  ", "category": "Exercise", "time": "2024-05-01T08:00:00Z"},
		{"title": "Walk", "category": "Sleeping", "time": "2024-05-01T08:00:00Z"},
		{"title": "Walk", "category": "Exercise", "time": "soon"},
		{"category": "Exercise", "time": "2024-05-01T08:00:00Z"},
	}
	for _, body := range cases {
		rec, env := a.call(http.MethodPost, "/list/create", body, cookies)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.False(t, env.Success)
	}
	assert.Zero(t, a.env.Activities.Count())

	item := a.create(cookies, "Breathe", "Stress_Management")
	assert.Equal(t, "Stress Management", item.Category)
}

func TestEditAndCompleteAll(t *testing.T) {
	a := newAPI(t)
	ana := a.signup("Ana", "ana@example.com")
	ben := a.signup("Ben", "ben@example.com")
	first := a.create(ana, "Walk", "Exercise")
	a.create(ana, "Water", "Hydration")
	a.create(ben, "Read", "Hobbies")

	rec, env := a.call(http.MethodPut, "/list/edit/"+first.ID, map[string]string{"title": "Long walk", "category": "Health"}, ana)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var edited activity
	require.NoError(t, json.Unmarshal(env.Data, &edited))
	assert.Equal(t, "Long walk", edited.Title)
	assert.Equal(t, "Health", edited.Category)

	rec, _ = a.call(http.MethodPut, "/list/edit/"+first.ID, map[string]string{}, ana)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = a.call(http.MethodPatch, "/list/complete", nil, ana)
	require.Equal(t, http.StatusOK, rec.Code)
	var done struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, 2, done.Count)

	_, env = a.call(http.MethodGet, "/list/get", nil, ana)
	for _, it := range decodeList(t, env) {
		assert.True(t, it.Completed)
	}
	_, env = a.call(http.MethodGet, "/list/get", nil, ben)
	for _, it := range decodeList(t, env) {
		assert.False(t, it.Completed)
	}
}

func TestSearchRoute(t *testing.T) {
	a := newAPI(t)
	ana := a.signup("Ana", "ana@example.com")
	ben := a.signup("Ben", "ben@example.com")
	mine := a.create(ana, "Morning walk", "Exercise")
	a.create(ben, "Evening walk", "Exercise")

	rec, env := a.call(http.MethodGet, "/list/search?q=walk", nil, ana)
	require.Equal(t, http.StatusOK, rec.Code)
	hits := decodeList(t, env)
	require.Len(t, hits, 1)
	assert.Equal(t, mine.ID, hits[0].ID)

	rec, _ = a.call(http.MethodGet, "/list/search", nil, ana)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	a := newAPI(t)
	cookies := a.signup("Ana", "ana@example.com")

	rec, _ := a.call(http.MethodPost, "/user/logout", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = a.call(http.MethodGet, "/list/get", nil, cookies)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "old access token no longer has a session")
}

func TestRefreshRotatesCookies(t *testing.T) {
	a := newAPI(t)
	cookies := a.signup("Ana", "ana@example.com")

	rec, _ := a.call(http.MethodPost, "/user/refresh", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := rec.Result().Cookies()
	require.Len(t, rotated, 2)

	rec, _ = a.call(http.MethodGet, "/list/get", nil, rotated)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = a.call(http.MethodGet, "/list/get", nil, cookies)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = a.call(http.MethodPost, "/user/refresh", nil, cookies)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileAndAvatar(t *testing.T) {
	a := newAPI(t)
	cookies := a.signup("Ana", "ana@example.com")

	rec, env := a.call(http.MethodPut, "/user/profile", map[string]string{"name": "Ana Maria"}, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"name":"Ana Maria"`)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="me.png"`}
	h["Content-Type"] = []string{"image/png"}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/user/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	out := httptest.NewRecorder()
	a.env.Engine.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())
	assert.Contains(t, out.Body.String(), "https://storage.test/avatars/")
	assert.Len(t, a.env.Avatars.Objects, 1)
}

func TestDebugRoutes(t *testing.T) {
	a := newAPI(t)

	rec, _ := a.call(http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello ZenPlan!", rec.Body.String())

	rec, _ = a.call(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, "ok", rec.Body.String())

	rec, _ = a.call(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zenplan_http_requests_total")

	rec, _ = a.call(http.MethodGet, "/debug/vars", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := a.call(http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route not found", env.Message)
}
