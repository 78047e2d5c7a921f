// Package client is a Go client for the ZenPlan API. Every call returns a
// Result instead of an error so callers can render it directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/zenplan-api/pkg/forms"
)

// State is the status of one request.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Result is the normalized outcome of a call. StatusCode is 0 when no
// response was received.
type Result[T any] struct {
	State      State
	Data       T
	Message    string
	Fields     map[string]string
	StatusCode int
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.State == StateSuccess }

// StateListener observes state changes of the named operation.
type StateListener func(op string, state State)

type Option func(*Client)

// WithHTTPClient replaces the transport. Its Jar, when nil, is set to a fresh cookie jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithStateListener(fn StateListener) Option {
	return func(c *Client) { c.listener = fn }
}

// Client talks to one API base URL and keeps the session cookies between calls.
type Client struct {
	baseURL  string
	http     *http.Client
	listener StateListener

	mu     sync.Mutex
	states map[string]State
}

func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		states:  make(map[string]State),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// User is an account as returned by the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Activity is a list item as returned by the API.
type Activity struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Time        time.Time `json:"time"`
	Description string    `json:"description"`
	Note        string    `json:"note"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Deleted struct {
	ID string `json:"id"`
}

type Completed struct {
	Count      int        `json:"count"`
	Activities []Activity `json:"activities"`
}

func (c *Client) Register(ctx context.Context, f forms.SignupForm) Result[User] {
	if r, bad := invalid[User](c, "register", f); bad {
		return r
	}
	body := map[string]string{"name": f.Name, "email": f.Email, "password": f.Password}
	return do[User](ctx, c, "register", http.MethodPost, "/user/register", body)
}

func (c *Client) Login(ctx context.Context, f forms.LoginForm) Result[User] {
	if r, bad := invalid[User](c, "login", f); bad {
		return r
	}
	return do[User](ctx, c, "login", http.MethodPost, "/user/login", f)
}

func (c *Client) Logout(ctx context.Context) Result[struct{}] {
	return do[struct{}](ctx, c, "logout", http.MethodPost, "/user/logout", nil)
}

// Activities fetches the caller's list.
func (c *Client) Activities(ctx context.Context) Result[[]Activity] {
	return do[[]Activity](ctx, c, "activities", http.MethodGet, "/list/get", nil)
}

func (c *Client) Create(ctx context.Context, f forms.ActivityForm) Result[Activity] {
	if r, bad := invalid[Activity](c, "create", f); bad {
		return r
	}
	return do[Activity](ctx, c, "create", http.MethodPost, "/list/create", f)
}

// Edit replaces the editable fields of id with the form values.
func (c *Client) Edit(ctx context.Context, id string, f forms.ActivityForm) Result[Activity] {
	if r, bad := invalid[Activity](c, "edit", f); bad {
		return r
	}
	body := map[string]string{
		"title":       f.Title,
		"category":    f.Category,
		"time":        f.Time,
		"description": f.Description,
		"note":        f.Note,
	}
	return do[Activity](ctx, c, "edit", http.MethodPut, "/list/edit/"+url.PathEscape(id), body)
}

func (c *Client) Delete(ctx context.Context, id string) Result[Deleted] {
	return do[Deleted](ctx, c, "delete", http.MethodDelete, "/list/delete/"+url.PathEscape(id), nil)
}

func (c *Client) Toggle(ctx context.Context, id string) Result[Activity] {
	return do[Activity](ctx, c, "toggle", http.MethodPatch, "/list/toggle/"+url.PathEscape(id), nil)
}

func (c *Client) CompleteAll(ctx context.Context) Result[Completed] {
	return do[Completed](ctx, c, "complete", http.MethodPatch, "/list/complete", nil)
}

func (c *Client) Search(ctx context.Context, query string, size int) Result[[]Activity] {
	q := url.Values{"q": {query}}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	return do[[]Activity](ctx, c, "search", http.MethodGet, "/list/search?"+q.Encode(), nil)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// State returns the last state of op, StateIdle when it never ran.
func (c *Client) State(op string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.states[op]; ok {
		return s
	}
	return StateIdle
}

func (c *Client) emit(op string, s State) {
	c.mu.Lock()
	c.states[op] = s
	c.mu.Unlock()
	if c.listener != nil {
		c.listener(op, s)
	}
}

// invalid runs the form schema; a failing form never reaches the network.
func invalid[T any](c *Client, op string, form any) (Result[T], bool) {
	errs := forms.Validate(form)
	if errs == nil {
		return Result[T]{}, false
	}
	c.emit(op, StateError)
	return Result[T]{State: StateError, Message: "validation failed", Fields: errs}, true
}

func do[T any](ctx context.Context, c *Client, op, method, path string, body any) Result[T] {
	c.emit(op, StateLoading)
	res := send[T](ctx, c, method, path, body)
	c.emit(op, res.State)
	return res
}

func send[T any](ctx context.Context, c *Client, method, path string, body any) Result[T] {
	fail := func(status int, msg string) Result[T] {
		return Result[T]{State: StateError, Message: msg, StatusCode: status}
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fail(0, err.Error())
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fail(0, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, err.Error())
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// not an envelope (proxy error page, plain text)
		msg := strings.TrimSpace(string(raw))
		if msg == "" || resp.StatusCode >= 400 {
			msg = http.StatusText(resp.StatusCode)
		}
		return fail(resp.StatusCode, msg)
	}
	msg := env.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode >= 400 || !env.Success {
		out := fail(resp.StatusCode, msg)
		var fields map[string]string
		if len(env.Error) > 0 && json.Unmarshal(env.Error, &fields) == nil {
			out.Fields = fields
		}
		return out
	}

	out := Result[T]{State: StateSuccess, Message: msg, StatusCode: resp.StatusCode}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &out.Data); err != nil {
			return fail(resp.StatusCode, "unexpected response: "+err.Error())
		}
	}
	return out
}
