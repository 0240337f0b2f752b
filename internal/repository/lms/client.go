package lms

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/machinebox/graphql"
)

// Client makes queries against the LMS GraphQL API
type Client struct {
	client    *graphql.Client
	endpoint  string
	authToken string
}

// NewClient creates a client for the endpoint.  The token is optional; public courses can be read without one.
func NewClient(endpoint, authToken string, timeout time.Duration) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("LMS endpoint is empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	c := &Client{
		client:    graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient)),
		endpoint:  endpoint,
		authToken: authToken,
	}
	c.client.Log = func(s string) { log.Trace("graphql", "message", s) }
	return c, nil
}

// Query runs a GraphQL query and decodes its data into result
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, result any) error {
	req := graphql.NewRequest(query)

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	for key, value := range variables {
		req.Var(key, value)
	}

	if err := c.client.Run(ctx, req, result); err != nil {
		if isNetworkError(err) {
			return NetworkError{Err: err}
		}
		return err
	}
	return nil
}

// NetworkError means the LMS could not be reached at all, as opposed to rejecting the query
type NetworkError struct {
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "i/o timeout")
}
