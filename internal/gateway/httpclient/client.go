// Package httpclient implements the storage Gateway against a remote
// NoteVault server. It is the client-side end of the JSON API: it ships
// ciphertext and account metadata over the wire and never sees a key.
//
// The session token returned by the login endpoint is captured on
// GetAccount and attached to subsequent record calls.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avolkov/notevault/internal/common"
	"github.com/avolkov/notevault/internal/gateway"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Salt               []byte   `json:"salt"`
	RecoveryCodeHashes []string `json:"recoveryCodeHashes"`
	Token              string   `json:"token"`
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) getToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends a JSON request and decodes a JSON response into out (if out is
// non-nil). Transport failures and 5xx answers map to ErrorStorage so
// callers can treat them as retryable.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token := c.getToken()
		if token == "" {
			return common.ErrorUnauthorized
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return mapStatus(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func mapStatus(resp *http.Response) error {
	var msg errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&msg)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrorValidation, msg.Message)
	case http.StatusUnauthorized:
		return common.ErrorAuthentication
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusConflict:
		return common.ErrorAlreadyExists
	default:
		return fmt.Errorf("%w: server answered %d: %s", common.ErrorStorage, resp.StatusCode, msg.Message)
	}
}

func (c *Client) GetAccount(ctx context.Context, email string) (*gateway.Account, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email}, &resp, false)
	if err != nil {
		if errors.Is(err, common.ErrorAuthentication) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	c.setToken(resp.Token)
	return &gateway.Account{
		Email:              email,
		Salt:               resp.Salt,
		RecoveryCodeHashes: resp.RecoveryCodeHashes,
	}, nil
}

func (c *Client) CreateAccount(ctx context.Context, email string, salt []byte) error {
	body := map[string]any{"email": email, "salt": salt}
	return c.do(ctx, http.MethodPost, "/api/auth/register", body, nil, false)
}

func (c *Client) SetRecoveryHashes(ctx context.Context, email string, hashes []string) error {
	body := map[string]any{"hashes": hashes}
	return c.do(ctx, http.MethodPost, "/api/auth/recovery", body, nil, true)
}

func (c *Client) ListRecords(ctx context.Context, email string) ([]gateway.Record, error) {
	var records []gateway.Record
	if err := c.do(ctx, http.MethodGet, "/api/notes", nil, &records, true); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) CreateRecord(ctx context.Context, email string, r gateway.Record) (*gateway.Record, error) {
	created := &gateway.Record{}
	if err := c.do(ctx, http.MethodPost, "/api/notes", r, created, true); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) UpdateRecord(ctx context.Context, email, id string, upd gateway.RecordUpdate) (*gateway.Record, error) {
	updated := &gateway.Record{}
	if err := c.do(ctx, http.MethodPut, "/api/notes/"+id, upd, updated, true); err != nil {
		return nil, err
	}
	return updated, nil
}

var _ gateway.Gateway = (*Client)(nil)
