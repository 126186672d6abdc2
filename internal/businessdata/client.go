// Package businessdata calls the dashboard service that owns the business copy
// of accounts and organizations.
package businessdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

type AccountPayload struct {
	ExternalID *string `json:"externalId,omitempty"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	AvatarURL  *string `json:"avatarUrl,omitempty"`
	Role       string  `json:"role"`
	IsActive   bool    `json:"isActive"`
}

type OrganizationPayload struct {
	ExternalID  string     `json:"externalId"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Plan        string     `json:"plan"`
	TrialEndsAt *time.Time `json:"trialEndsAt,omitempty"`
	CreatedBy   *string    `json:"createdBy,omitempty"`
}

// Client mirrors identity state into the business-data service.
type Client interface {
	SyncAccount(ctx context.Context, account AccountPayload) error
	CreateOrganization(ctx context.Context, org OrganizationPayload) error
}

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type httpClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(opts Options) Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &httpClient{baseURL: baseURL, apiKey: opts.APIKey, httpClient: hc}
}

// strategy is one way of writing an account; the next strategy is only tried
// when the previous one reported a conflict.
type strategy struct {
	name   string
	method string
	path   func(AccountPayload) string
}

var accountStrategies = []strategy{
	{
		name:   "create",
		method: http.MethodPost,
		path:   func(AccountPayload) string { return "/api/users" },
	},
	{
		name:   "update-by-email",
		method: http.MethodPut,
		path:   func(a AccountPayload) string { return "/api/users/by-email/" + url.PathEscape(a.Email) },
	},
}

func (c *httpClient) SyncAccount(ctx context.Context, account AccountPayload) error {
	var lastErr error
	for _, s := range accountStrategies {
		err := c.do(ctx, "sync account ("+s.name+")", s.method, s.path(account), account)
		if err == nil {
			return nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
			continue
		}
		return err
	}
	return lastErr
}

// CreateOrganization treats 409 as success: the organization already exists.
func (c *httpClient) CreateOrganization(ctx context.Context, org OrganizationPayload) error {
	err := c.do(ctx, "create organization", http.MethodPost, "/api/organizations", org)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
		return nil
	}
	return err
}

func (c *httpClient) do(ctx context.Context, op, method, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encoding payload: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
}

// IsTransient reports whether err is a connection failure or timeout worth retrying.
// HTTP status errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
