// Package client talks to the activities API over HTTP.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/edwinbf09/daily-activities/internal/activity"
	"github.com/edwinbf09/daily-activities/internal/auth"
	"github.com/edwinbf09/daily-activities/internal/httputil"
	"github.com/edwinbf09/daily-activities/internal/report"
)

// ErrUnauthorized is matched by API errors with status 401.
var ErrUnauthorized = errors.New("not signed in or session expired")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Is maps statuses onto the domain sentinels so callers can use errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case activity.ErrNotFound:
		return e.Status == http.StatusNotFound && e.Code == httputil.CodeActivityNotFound
	case activity.ErrDuplicateID:
		return e.Status == http.StatusConflict
	case report.ErrNoData:
		return e.Status == http.StatusNotFound && e.Code == httputil.CodeNoData
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// Permanent reports whether the request was rejected as invalid.
func (e *APIError) Permanent() bool {
	return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the bearer token of the current session.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Register(ctx context.Context, email, password, name string) (*auth.SessionResponse, error) {
	var out auth.SessionResponse
	req := auth.RegisterRequest{Email: email, Password: password, Name: name}
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*auth.SessionResponse, error) {
	var out auth.SessionResponse
	req := auth.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Logout revokes the session server-side and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (*auth.MeResponse, error) {
	var out auth.MeResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var out httputil.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/reset-password", auth.ResetRequest{Email: email}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, token, newPassword string) (string, error) {
	var out httputil.MessageResponse
	req := auth.ConfirmResetRequest{Token: token, NewPassword: newPassword}
	if err := c.do(ctx, http.MethodPost, "/auth/reset-password/confirm", req, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) List(ctx context.Context) ([]activity.Activity, error) {
	var out []activity.Activity
	if err := c.do(ctx, http.MethodGet, "/activities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListByCategory(ctx context.Context, category activity.Category) ([]activity.Activity, error) {
	var out []activity.Activity
	path := "/activities?category=" + url.QueryEscape(string(category))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create sends a new activity. A non-nil ID is kept by the server.
func (c *Client) Create(ctx context.Context, a activity.Activity) (activity.Activity, error) {
	req := activity.CreateActivityRequest{
		Name:        a.Name,
		Description: a.Description,
		Date:        a.Date.String(),
		Amount:      &a.Amount,
		Category:    string(a.Category),
		IsPaid:      a.IsPaid,
	}
	if a.ID != uuid.Nil {
		req.ID = a.ID.String()
	}

	var out activity.Activity
	if err := c.do(ctx, http.MethodPost, "/activities", req, &out); err != nil {
		return activity.Activity{}, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, id uuid.UUID, patch activity.Patch) (activity.Activity, error) {
	var out activity.Activity
	if err := c.do(ctx, http.MethodPatch, "/activities/"+id.String(), patch, &out); err != nil {
		return activity.Activity{}, err
	}
	return out, nil
}

func (c *Client) TogglePaid(ctx context.Context, id uuid.UUID) (activity.Activity, error) {
	var out activity.Activity
	if err := c.do(ctx, http.MethodPost, "/activities/"+id.String()+"/toggle-paid", nil, &out); err != nil {
		return activity.Activity{}, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/activities/"+id.String(), nil, nil)
}

// Report downloads a PDF report. An empty category selects the complete one.
func (c *Client) Report(ctx context.Context, category activity.Category) (*report.Document, error) {
	path := "/reports"
	if category != "" {
		path += "/" + url.PathEscape(string(category))
	}

	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	filename := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	if filename == "" {
		slug := report.CompleteSlug
		if category != "" {
			slug = category.Slug()
		}
		filename = report.Filename(slug, time.Now())
	}

	return &report.Document{Filename: filename, Content: content}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// send performs the request and turns non-2xx answers into *APIError. The
// caller owns the body of a successful response.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, application/pdf")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var payload httputil.ErrorResponse
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
		}
		apiErr.Code = payload.Code
	}
	return nil, apiErr
}
