/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package rds speaks the encoder's plaintext TCP protocol: one
// "DPSTEXT=<text>\r\n" command per connection, one short reply.
package rds

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// Status categorizes a send outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusTimeout Status = "timeout"
	StatusRefused Status = "connection-refused"
	StatusSocket  Status = "socket-error"
	StatusError   Status = "error"
)

// Result is the outcome of one Send.
type Result struct {
	Status Status
	Detail string
}

// OK reports whether the encoder accepted the command.
func (r Result) OK() bool { return r.Status == StatusSuccess }

const (
	// MaxTextLength is the radiotext limit of the encoder.
	MaxTextLength = 64

	dialTimeout = 10 * time.Second

	// sendCooldown protects the encoder hardware from command flooding; it
	// is imposed after every attempt, success or failure.
	sendCooldown = 200 * time.Millisecond

	responseBufferSize = 512
)

// Client is a stateless request/response client for one encoder. Every Send
// opens a fresh connection.
type Client struct {
	addr        string
	defaultText string
	logger      zerolog.Logger

	timeout  time.Duration
	cooldown time.Duration
}

// NewClient creates an encoder client. defaultText is substituted when a
// sanitized message comes out empty.
func NewClient(host string, port int, defaultText string, logger zerolog.Logger) *Client {
	return &Client{
		addr:        fmt.Sprintf("%s:%d", host, port),
		defaultText: defaultText,
		logger:      logger.With().Str("component", "rds").Str("encoder", fmt.Sprintf("%s:%d", host, port)).Logger(),
		timeout:     dialTimeout,
		cooldown:    sendCooldown,
	}
}

// Sanitize strips CR/LF (replaced with spaces), trims, and truncates to the
// encoder's 64-character limit.
func Sanitize(text string) string {
	text = strings.NewReplacer("\r", " ", "\n", " ").Replace(text)
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > MaxTextLength {
		text = string(runes[:MaxTextLength])
	}
	return text
}

// Send transmits one radiotext command and interprets the reply. It never
// returns an error; failures are categorized in the Result so rotation
// loops can log and move on.
func (c *Client) Send(ctx context.Context, text string) Result {
	defer time.Sleep(c.cooldown)

	text = Sanitize(text)
	if text == "" {
		text = Sanitize(c.defaultText)
	}

	result := c.exchange(ctx, text)
	event := c.logger.Debug()
	if !result.OK() {
		event = c.logger.Warn()
	}
	event.Str("status", string(result.Status)).Str("text", text).Str("detail", result.Detail).Msg("rds send")
	return result
}

func (c *Client) exchange(ctx context.Context, text string) Result {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return categorize(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return Result{Status: StatusSocket, Detail: err.Error()}
	}

	if _, err := fmt.Fprintf(conn, "DPSTEXT=%s\r\n", text); err != nil {
		return categorize(err)
	}

	buf := make([]byte, responseBufferSize)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		return categorize(err)
	}

	// Decode leniently: invalid bytes are dropped, never fatal.
	response := strings.TrimSpace(strings.ToValidUTF8(string(buf[:n]), ""))
	if response == "" {
		return Result{Status: StatusError, Detail: "empty response"}
	}
	if strings.HasPrefix(response, "Error:") {
		return Result{Status: StatusError, Detail: response}
	}

	return Result{Status: StatusSuccess, Detail: response}
}

func categorize(err error) Result {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Result{Status: StatusTimeout, Detail: err.Error()}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return Result{Status: StatusRefused, Detail: err.Error()}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Result{Status: StatusSocket, Detail: err.Error()}
	}
	return Result{Status: StatusError, Detail: err.Error()}
}
