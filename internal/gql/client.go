// Package gql is a minimal GraphQL-over-HTTP client for the folder/document API.
package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	Endpoint string
	HTTP     *http.Client
}

func New(endpoint string) *Client {
	return &Client{
		Endpoint: strings.TrimSpace(endpoint),
		HTTP:     &http.Client{Timeout: 15 * time.Second},
	}
}

type request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// TransportError means the request never produced a GraphQL response.
type TransportError struct {
	Op  string
	Err error
}

func (e TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e TransportError) Unwrap() error { return e.Err }

// ServerError carries the GraphQL errors array of a response.
type ServerError struct {
	Op       string
	Messages []string
}

func (e ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, strings.Join(e.Messages, "; "))
}

// Do posts one operation and decodes its data into out (which may be nil).
func (c *Client) Do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	if c.Endpoint == "" {
		return TransportError{Op: op, Err: fmt.Errorf("no endpoint configured")}
	}
	body, err := json.Marshal(request{Query: query, Variables: vars, OperationName: op})
	if err != nil {
		return TransportError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return TransportError{Op: op, Err: err}
	}
	var res response
	if err := json.Unmarshal(raw, &res); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return TransportError{Op: op, Err: fmt.Errorf("http %d", resp.StatusCode)}
		}
		return TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(res.Errors) > 0 {
		msgs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			msgs = append(msgs, e.Message)
		}
		return ServerError{Op: op, Messages: msgs}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TransportError{Op: op, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}
	if out == nil || len(res.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		return TransportError{Op: op, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}
