package rds

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello listeners", "Hello listeners"},
		{"crlf replaced", "line one\r\nline two", "line one  line two"},
		{"trimmed", "  padded  ", "padded"},
		{"truncated", strings.Repeat("x", 80), strings.Repeat("x", 64)},
		{"empty", "\r\n", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Sanitize(tc.in)
			if got != tc.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if len([]rune(got)) > MaxTextLength {
				t.Fatalf("sanitized text exceeds %d chars", MaxTextLength)
			}
			if strings.ContainsAny(got, "\r\n") {
				t.Fatal("sanitized text contains raw CR/LF")
			}
		})
	}
}

// fakeEncoder accepts one connection, records the received command line, and
// replies with the given response.
func fakeEncoder(t *testing.T, response string) (addr string, received chan string) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	received = make(chan string, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			return
		}
		received <- line
		if response != "" {
			_, _ = conn.Write([]byte(response))
		}
	}()

	return listener.Addr().String(), received
}

func newTestClient(t *testing.T, addr string) *Client {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	c := NewClient(host, port, "Default text", zerolog.Nop())
	c.timeout = time.Second
	c.cooldown = 0
	return c
}

func TestSendSuccess(t *testing.T) {
	addr, received := fakeEncoder(t, "OK\r\n")
	c := newTestClient(t, addr)

	result := c.Send(context.Background(), "Now playing: Hurricane")
	if !result.OK() {
		t.Fatalf("expected success, got %+v", result)
	}

	select {
	case line := <-received:
		if line != "DPSTEXT=Now playing: Hurricane\r\n" {
			t.Fatalf("unexpected command frame: %q", line)
		}
	case <-time.After(time.Second):
		t.Fatal("encoder never received the command")
	}
}

func TestSendSubstitutesDefaultForEmptyText(t *testing.T) {
	addr, received := fakeEncoder(t, "OK\r\n")
	c := newTestClient(t, addr)

	result := c.Send(context.Background(), "  \r\n ")
	if !result.OK() {
		t.Fatalf("expected success, got %+v", result)
	}

	line := <-received
	if line != "DPSTEXT=Default text\r\n" {
		t.Fatalf("expected default text frame, got %q", line)
	}
}

func TestSendErrorResponse(t *testing.T) {
	addr, _ := fakeEncoder(t, "Error: bad command\r\n")
	c := newTestClient(t, addr)

	result := c.Send(context.Background(), "hello")
	if result.OK() {
		t.Fatal("expected failure for Error: response")
	}
	if result.Status != StatusError {
		t.Fatalf("unexpected status: %q", result.Status)
	}
}

func TestSendConnectionRefused(t *testing.T) {
	// Grab a port and close it so nothing is listening.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	c := newTestClient(t, addr)
	result := c.Send(context.Background(), "hello")
	if result.OK() {
		t.Fatal("expected failure when nothing is listening")
	}
	if result.Status != StatusRefused && result.Status != StatusSocket {
		t.Fatalf("unexpected status: %q", result.Status)
	}
}
