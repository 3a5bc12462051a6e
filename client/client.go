// Package client provides a typed client for the rawr.Stash service with
// optional retry and circuit-breaker wrapping.
package client

import (
	"context"
	"time"

	"github.com/Keksclan/goRawrStash/breaker"
	"github.com/Keksclan/goRawrStash/retry"
	"github.com/Keksclan/goRawrStash/stash"
	"google.golang.org/grpc"
)

// Option configures a Client.
type Option func(*Client)

// WithRetry enables retrying of failed calls according to cfg.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) {
		c.retryCfg = &cfg
	}
}

// WithBreaker wraps every call in a circuit breaker so a crashed or
// restarting server fails fast instead of piling up deadline errors.
func WithBreaker(cfg breaker.Config) Option {
	return func(c *Client) {
		c.br = breaker.New(cfg)
	}
}

// Client is a thin typed wrapper over a gRPC connection to a stash server.
// The zero retry/breaker configuration performs plain single-shot calls.
type Client struct {
	conn     *grpc.ClientConn
	retryCfg *retry.Config
	br       *breaker.Breaker
}

// New wraps an established connection. The caller owns the connection's
// lifecycle; closing it invalidates the client.
func New(conn *grpc.ClientConn, opts ...Option) *Client {
	c := &Client{conn: conn}
	for _, o := range opts {
		o(c)
	}
	return c
}

// invoke performs one logical call: the breaker guards each attempt, and the
// retry policy (when configured) re-runs retryable failures.
func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	attempt := func(ctx context.Context) (struct{}, error) {
		if c.br != nil {
			return struct{}{}, c.br.Do(func() error {
				return c.conn.Invoke(ctx, method, req, resp)
			})
		}
		return struct{}{}, c.conn.Invoke(ctx, method, req, resp)
	}
	if c.retryCfg == nil {
		_, err := attempt(ctx)
		return err
	}
	_, err := retry.Do(ctx, *c.retryCfg, attempt)
	return err
}

// Get fetches the value stored under key. The second return value reports
// whether a live entry was found.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var resp stash.GetResponse
	if err := c.invoke(ctx, "/rawr.Stash/Get", &stash.GetRequest{Key: key}, &resp); err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Found, nil
}

// GetMetadata fetches the accounting metadata for key without counting a hit.
func (c *Client) GetMetadata(ctx context.Context, key string) (*stash.GetMetadataResponse, error) {
	var resp stash.GetMetadataResponse
	if err := c.invoke(ctx, "/rawr.Stash/GetMetadata", &stash.GetMetadataRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Set stores value under key. A non-positive ttl stores the entry without
// expiry.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	req := &stash.SetRequest{Key: key, Value: value, TTLMillis: ttl.Milliseconds()}
	return c.invoke(ctx, "/rawr.Stash/Set", req, &stash.SetResponse{})
}

// Remove deletes the entry under key, reporting whether one existed.
func (c *Client) Remove(ctx context.Context, key string) (bool, error) {
	var resp stash.RemoveResponse
	if err := c.invoke(ctx, "/rawr.Stash/Remove", &stash.RemoveRequest{Key: key}, &resp); err != nil {
		return false, err
	}
	return resp.Removed, nil
}

// Clear drops every entry.
func (c *Client) Clear(ctx context.Context) error {
	return c.invoke(ctx, "/rawr.Stash/Clear", &stash.ClearRequest{}, &stash.ClearResponse{})
}

// Count returns the number of stored entries, including expired entries the
// sweeper has not collected yet.
func (c *Client) Count(ctx context.Context) (int64, error) {
	var resp stash.CountResponse
	if err := c.invoke(ctx, "/rawr.Stash/Count", &stash.CountRequest{}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Stats returns the server's operation counters.
func (c *Client) Stats(ctx context.Context) (*stash.StatsResponse, error) {
	var resp stash.StatsResponse
	if err := c.invoke(ctx, "/rawr.Stash/Stats", &stash.StatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
