// Package mailclient is the recipient-side client for the mailbox relay
// HTTP API.
package mailclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Message is a mailbox entry as the relay serves it.
type Message struct {
	ID         string `json:"id"`
	UserDid    string `json:"userDid"`
	UserHandle string `json:"userHandle"`
	Message    string `json:"message"`
	IndexedAt  string `json:"indexedAt"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ErrUnauthorized means the relay rejected the bearer token.
var ErrUnauthorized = errors.New("relay rejected the session token")

// Client talks to one mailbox relay.
type Client struct {
	Base string
	HTTP *http.Client
}

// New builds a client for the relay at base.
func New(base string) *Client {
	return &Client{
		Base: strings.TrimSuffix(base, "/"),
		HTTP: &http.Client{Timeout: 15 * time.Second},
	}
}

// Inbox fetches the caller's messages, newest first.
func (c *Client) Inbox(ctx context.Context, accessJwt string) ([]Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+"/", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(req, accessJwt)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var messages []Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("decode inbox: %w", err)
	}
	return messages, nil
}

// Send submits an anonymous message to the given handle. A soft failure
// from the relay ("User not found", "Message is empty", ...) comes back
// as an error carrying the relay's message.
func (c *Client) Send(ctx context.Context, accessJwt, handle, message string) error {
	body, err := json.Marshal(struct {
		User    string `json:"user"`
		Message string `json:"message"`
	}{User: handle, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send(req, accessJwt)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeStatus(resp)
}

// Delete removes one of the caller's messages by id.
func (c *Client) Delete(ctx context.Context, accessJwt, id string) error {
	u := c.Base + "/?id=" + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.send(req, accessJwt)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeStatus(resp)
}

func (c *Client) send(req *http.Request, accessJwt string) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+accessJwt)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, ErrUnauthorized
	}
	if resp.StatusCode/100 != 2 && resp.StatusCode != http.StatusForbidden {
		resp.Body.Close()
		return nil, fmt.Errorf("relay %s: %s", req.URL.Path, resp.Status)
	}
	return resp, nil
}

func decodeStatus(resp *http.Response) error {
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode relay response: %w", err)
	}
	if !status.Success {
		if status.Error == "" {
			return errors.New("relay reported failure")
		}
		return errors.New(status.Error)
	}
	return nil
}
