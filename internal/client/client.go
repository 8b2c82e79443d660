// Package client is a typed HTTP client for the token queue API, used by the
// display and counter terminal binaries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/token-queue-service/internal/api/dto"
)

// Client talks to the token queue service.
type Client struct {
	baseURL    string
	bearer     string
	httpClient *http.Client
}

// New builds a client. bearer may be empty for the public endpoints.
func New(baseURL, bearer string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bearer:     bearer,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetBearer replaces the bearer token, e.g. after Login.
func (c *Client) SetBearer(token string) {
	c.bearer = token
}

// Login authenticates and returns the access token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp dto.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// CreateToken books a new token.
func (c *Client) CreateToken(ctx context.Context, req dto.CreateTokenRequest) (*dto.TokenView, error) {
	var resp dto.TokenEnvelope
	if err := c.do(ctx, http.MethodPost, "/token/create", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Token == nil {
		return nil, fmt.Errorf("token creation rejected")
	}
	return resp.Token, nil
}

// GetToken fetches a token by id.
func (c *Client) GetToken(ctx context.Context, guid string) (*dto.TokenView, error) {
	var resp dto.TokenEnvelope
	if err := c.do(ctx, http.MethodGet, "/token/by-guid/"+url.PathEscape(guid), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Token == nil {
		return nil, fmt.Errorf("token %s not found", guid)
	}
	return resp.Token, nil
}

// DisplayStatus fetches the display board snapshot.
func (c *Client) DisplayStatus(ctx context.Context) (*dto.DisplayStatusResponse, error) {
	var resp dto.DisplayStatusResponse
	if err := c.do(ctx, http.MethodGet, "/token/display-status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search resolves a token number or name/mobile fragment to a token id.
// An empty string is returned when nothing matches.
func (c *Client) Search(ctx context.Context, term string) (string, error) {
	var resp dto.SearchResponse
	if err := c.do(ctx, http.MethodPost, "/token/search", dto.SearchRequest{SearchTerm: term}, &resp); err != nil {
		return "", err
	}
	return resp.TokenGuid, nil
}

// ListTokens fetches an admin listing page.
func (c *Client) ListTokens(ctx context.Context, page, pageSize int, search, status string) (*dto.TokenListResponse, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))
	if search != "" {
		query.Set("search", search)
	}
	if status != "" {
		query.Set("status", status)
	}

	var resp dto.TokenListResponse
	if err := c.do(ctx, http.MethodGet, "/admin/tokens?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CallNext claims the next pending token for the counter.
func (c *Client) CallNext(ctx context.Context, counterName string) (*dto.CallNextResponse, error) {
	var resp dto.CallNextResponse
	if err := c.do(ctx, http.MethodPost, "/handler/call-next", dto.CallNextRequest{CounterName: counterName}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateStatus moves a token along its lifecycle.
func (c *Client) UpdateStatus(ctx context.Context, guid, status, counterName string) error {
	var resp dto.StatusResponse
	return c.do(ctx, http.MethodPost, "/handler/update-status", dto.UpdateStatusRequest{
		TokenGuid:   guid,
		Status:      status,
		CounterName: counterName,
	}, &resp)
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var envelope errorEnvelope
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Code != "" {
			return fmt.Errorf("%s: %s", envelope.Error.Code, envelope.Error.Message)
		}
		// Not-found style endpoints answer with a success:false envelope
		// that callers inspect; anything else is a transport failure.
		if out != nil && json.Unmarshal(data, out) == nil && resp.StatusCode < 500 {
			return nil
		}
		return fmt.Errorf("http %d from %s %s", resp.StatusCode, method, path)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
