/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package playout triggers the external automation system over its HTTP
// surface. The automation system owns all playback; this client only asks it
// to stop, play a file, or queue a file as the next playlist item.
package playout

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const requestTimeout = 10 * time.Second

// Client calls the automation system's HTTP trigger endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates an automation trigger client for one station.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger.With().Str("component", "playout").Logger(),
	}
}

// Stop halts current playback.
func (c *Client) Stop(ctx context.Context) error {
	return c.do(ctx, "stop", nil)
}

// PlayFile starts playing the given file immediately.
func (c *Client) PlayFile(ctx context.Context, path string) error {
	return c.do(ctx, "play", url.Values{"file": []string{path}})
}

// Enqueue queues the given file as the next playlist item.
func (c *Client) Enqueue(ctx context.Context, path string) error {
	return c.do(ctx, "enqueue", url.Values{"file": []string{path}})
}

func (c *Client) do(ctx context.Context, action string, params url.Values) error {
	if c.baseURL == "" {
		return fmt.Errorf("http: no playout URL configured")
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("action", action)
	endpoint := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("http: %s returned status %d", action, resp.StatusCode)
	}

	c.logger.Debug().Str("action", action).Msg("playout trigger accepted")
	return nil
}
