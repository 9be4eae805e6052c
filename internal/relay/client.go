package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"axolotl/internal/domain"
)

var (
	// ErrUnauthorized is returned for a missing, expired or foreign token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when the relay has no such account or bundle.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when registering an address that is taken.
	ErrConflict = errors.New("conflict")
)

// Client talks JSON over HTTP to a relay server. It carries the bearer
// token issued at registration and sends it on every call that needs it.
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token string
}

// New returns a Client for the relay at base. A nil httpClient means
// http.DefaultClient.
func New(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpClient}
}

// SetToken sets the bearer token, typically one loaded from an account profile.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Register claims addr on the relay and keeps the returned token.
func (c *Client) Register(ctx context.Context, addr domain.Address) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", addr, &out); err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

// PublishBundle uploads our bundle. The relay replaces the signed pre-key and
// appends the one-time pre-keys to those it still holds.
func (c *Client) PublishBundle(ctx context.Context, bundle domain.PublishedBundle) error {
	addr := domain.Address{Name: bundle.Username, DeviceID: bundle.DeviceID}
	return c.do(ctx, http.MethodPut, "/v1/bundles/"+addrPath(addr), bundle, nil)
}

// FetchBundle returns addr's bundle with at most one one-time pre-key.
func (c *Client) FetchBundle(ctx context.Context, addr domain.Address) (domain.PreKeyBundle, error) {
	var out domain.PreKeyBundle
	if err := c.do(ctx, http.MethodGet, "/v1/bundles/"+addrPath(addr), nil, &out); err != nil {
		return domain.PreKeyBundle{}, err
	}
	return out, nil
}

// SendMessage queues env for env.To and returns the id the relay assigned.
func (c *Client) SendMessage(ctx context.Context, env domain.Envelope) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/messages/"+addrPath(env.To), env, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// FetchMessages returns up to limit queued envelopes for addr, oldest first.
// They stay queued until acknowledged.
func (c *Client) FetchMessages(ctx context.Context, addr domain.Address, limit int) ([]domain.Envelope, error) {
	path := "/v1/messages/" + addrPath(addr)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var envs []domain.Envelope
	if err := c.do(ctx, http.MethodGet, path, nil, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

// AckMessages removes the envelopes with the given ids from addr's mailbox.
func (c *Client) AckMessages(ctx context.Context, addr domain.Address, ids []string) error {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	return c.do(ctx, http.MethodPost, "/v1/messages/"+addrPath(addr)+"/ack", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay %s %s: %w", method, path, statusError(resp))
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload)

	var base error
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		base = ErrUnauthorized
	case http.StatusNotFound:
		base = ErrNotFound
	case http.StatusConflict:
		base = ErrConflict
	default:
		base = errors.New(resp.Status)
	}
	if payload.Error != "" {
		return fmt.Errorf("%w: %s", base, payload.Error)
	}
	return base
}

func addrPath(a domain.Address) string {
	return url.PathEscape(string(a.Name)) + "/" + strconv.FormatUint(uint64(a.DeviceID), 10)
}

var _ domain.RelayClient = (*Client)(nil)
