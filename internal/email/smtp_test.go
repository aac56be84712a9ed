package email

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeSMTPServer accepts a single session and records the envelope and data
type fakeSMTPServer struct {
	listener net.Listener

	mu   sync.Mutex
	from string
	to   []string
	data string
	done chan struct{}
}

func newFakeSMTPServer(t *testing.T) *fakeSMTPServer {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeSMTPServer{listener: l, done: make(chan struct{})}
	t.Cleanup(func() { l.Close() })

	go s.serve()
	return s
}

func (s *fakeSMTPServer) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTPServer) serve() {
	defer close(s.done)

	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	reply := func(line string) { conn.Write([]byte(line + "\r\n")) }

	reply("220 localhost ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		cmd := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 localhost")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			s.mu.Lock()
			s.from = line[len("MAIL FROM:"):]
			s.mu.Unlock()
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			s.mu.Lock()
			s.to = append(s.to, line[len("RCPT TO:"):])
			s.mu.Unlock()
			reply("250 OK")
		case cmd == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var data strings.Builder
			for {
				dl, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if dl == ".\r\n" {
					break
				}
				data.WriteString(dl)
			}
			s.mu.Lock()
			s.data = data.String()
			s.mu.Unlock()
			reply("250 OK")
		case cmd == "QUIT":
			reply("221 Bye")
			return
		default:
			reply("502 Command not implemented")
		}
	}
}

func (s *fakeSMTPServer) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("SMTP session did not finish")
	}
}

func TestSMTPService_Send(t *testing.T) {
	server := newFakeSMTPServer(t)

	svc := NewSMTPService(SMTPConfig{
		Host:        "127.0.0.1",
		Port:        server.port(),
		FromAddress: "noreply@example.org",
		FromName:    "Profile Site",
		Timeout:     5 * time.Second,
	}, slog.Default())

	err := svc.Send(context.Background(), Email{
		To:      "alice@test.org",
		Subject: "Verify your address",
		Body:    "Go to http://x/1",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	server.wait(t)

	server.mu.Lock()
	defer server.mu.Unlock()

	if !strings.HasPrefix(server.from, "<noreply@example.org>") {
		t.Errorf("MAIL FROM = %q", server.from)
	}
	if len(server.to) != 1 || server.to[0] != "<alice@test.org>" {
		t.Errorf("RCPT TO = %v", server.to)
	}
	for _, want := range []string{
		`From: "Profile Site" <noreply@example.org>`,
		"To: alice@test.org",
		"Subject: Verify your address",
		"Auto-Submitted: auto-generated",
		"Go to http://x/1",
	} {
		if !strings.Contains(server.data, want) {
			t.Errorf("data missing %q:\n%s", want, server.data)
		}
	}
}

func TestSMTPService_SendRejectsInvalidEmail(t *testing.T) {
	svc := NewSMTPService(SMTPConfig{Host: "127.0.0.1", Port: 1, FromAddress: "noreply@example.org"}, nil)

	if err := svc.Send(context.Background(), Email{To: "nobody", Subject: "x"}); err == nil {
		t.Error("expected error for invalid recipient")
	}
}

func TestSMTPService_SendCancelledContext(t *testing.T) {
	server := newFakeSMTPServer(t)
	svc := NewSMTPService(SMTPConfig{Host: "127.0.0.1", Port: server.port(), FromAddress: "noreply@example.org"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Send(ctx, Email{To: "alice@test.org", Subject: "x"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestSMTPService_ImplicitTLS(t *testing.T) {
	tests := []struct {
		port int
		tls  bool
		want bool
	}{
		{465, true, true},
		{465, false, false},
		{587, true, false},
		{25, false, false},
	}

	for _, tt := range tests {
		svc := NewSMTPService(SMTPConfig{Host: "smtp.example.org", Port: tt.port, TLSEnabled: tt.tls}, nil)
		if got := svc.implicitTLS(); got != tt.want {
			t.Errorf("port %d tls %v: implicitTLS() = %v, want %v", tt.port, tt.tls, got, tt.want)
		}
	}
}

func TestValidateSMTPConfig(t *testing.T) {
	valid := SMTPConfig{
		Host:        "smtp.example.org",
		Port:        587,
		FromAddress: "noreply@example.org",
		TLSEnabled:  true,
	}

	tests := []struct {
		name    string
		mutate  func(*SMTPConfig)
		wantErr bool
	}{
		{"valid", func(*SMTPConfig) {}, false},
		{"missing host", func(c *SMTPConfig) { c.Host = "" }, true},
		{"zero port", func(c *SMTPConfig) { c.Port = 0 }, true},
		{"port too large", func(c *SMTPConfig) { c.Port = 70000 }, true},
		{"missing from", func(c *SMTPConfig) { c.FromAddress = "" }, true},
		{"malformed from", func(c *SMTPConfig) { c.FromAddress = "not-an-address" }, true},
		{"no credentials is fine", func(c *SMTPConfig) { c.Username, c.Password = "", "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := ValidateSMTPConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSMTPConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
