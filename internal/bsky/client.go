// Package bsky is a minimal AT Protocol client: just the XRPC calls the
// mailbox relay needs (session management, handle resolution, posting).
package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultHost is the public PDS entryway.
const DefaultHost = "https://bsky.social"

// Error is an XRPC error body returned by the network.
type Error struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("xrpc %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("xrpc error %s (status %d)", e.Code, e.StatusCode)
}

// IsErrorCode reports whether err is an XRPC error with the given code.
func IsErrorCode(err error, code string) bool {
	var xe *Error
	return errors.As(err, &xe) && xe.Code == code
}

// Client speaks XRPC against one AT Protocol host. Authentication is per
// call: pass the bearer token (or "" for public endpoints).
type Client struct {
	Host string
	HTTP *http.Client
}

// NewClient builds a client against the given host (DefaultHost if empty).
func NewClient(host string) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		Host: host,
		HTTP: &http.Client{Timeout: 30 * time.Second},
	}
}

// Query performs an XRPC query (HTTP GET) for the given method NSID.
func (c *Client) Query(ctx context.Context, nsid string, params url.Values, token string, out any) error {
	u := c.Host + "/xrpc/" + nsid
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, token, out)
}

// Procedure performs an XRPC procedure (HTTP POST) for the given method NSID.
func (c *Client) Procedure(ctx context.Context, nsid, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/xrpc/"+nsid, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, token, out)
}

func (c *Client) do(req *http.Request, token string, out any) error {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("xrpc %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		xe := &Error{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(xe); err != nil || xe.Code == "" {
			xe.Code = resp.Status
		}
		return xe
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode xrpc response: %w", err)
		}
	}
	return nil
}
