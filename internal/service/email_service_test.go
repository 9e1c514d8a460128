package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/buildhub-next/internal/config"
)

func TestSendWhenDisabled(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: false})
	err := svc.Send("a@b.com", "subject", "body")
	if !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("expected disabled, got: %v", err)
	}
}

func TestSendWhenNotConfigured(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: true})
	err := svc.Send("a@b.com", "subject", "body")
	if !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("expected not configured, got: %v", err)
	}
}

func TestSendRejectsInvalidRecipient(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{
		Enabled: true,
		Host:    "smtp.test.local",
		Port:    587,
		From:    "noreply@test.local",
	})
	err := svc.Send("not-an-address", "subject", "body")
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got: %v", err)
	}
}

func TestIsEmailRecipientRejected(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"550 5.1.1 no such user", true},
		{"recipient address rejected: access denied", true},
		{"550 5.1.1 <x@y.com>: Recipient address unknown", true},
		{"550 mailbox unavailable", true},
		{"user unknown in virtual mailbox table", true},
		{"550 too many connections", false},
		{"dial tcp 10.0.0.1:587: i/o timeout", false},
		{"451 temporary failure, try again later", false},
		{"", false},
	}
	for _, c := range cases {
		var err error
		if c.message != "" {
			err = errors.New(c.message)
		}
		if got := isEmailRecipientRejected(err); got != c.want {
			t.Fatalf("message %q: expected %v, got %v", c.message, c.want, got)
		}
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	if normalizeEmailSendError(nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
	if err := normalizeEmailSendError(errors.New("550 no such recipient here")); !errors.Is(err, ErrEmailRecipientRejected) {
		t.Fatalf("expected recipient rejected, got: %v", err)
	}
	raw := errors.New("dial tcp: connection refused")
	if err := normalizeEmailSendError(raw); !errors.Is(err, raw) {
		t.Fatalf("expected transient error untouched, got: %v", err)
	}
}

func TestBuildEmailMessage(t *testing.T) {
	msg := buildEmailMessage("noreply@test.local", "a@b.com", "订单已创建", "正文内容")
	if !strings.Contains(msg, "From: noreply@test.local\r\n") {
		t.Fatalf("missing From header: %q", msg)
	}
	if !strings.Contains(msg, "To: a@b.com\r\n") {
		t.Fatalf("missing To header: %q", msg)
	}
	if !strings.Contains(msg, "Content-Type: text/plain; charset=UTF-8\r\n") {
		t.Fatalf("missing content type: %q", msg)
	}
	if !strings.HasSuffix(msg, "正文内容") {
		t.Fatalf("body missing: %q", msg)
	}
}

func TestBuildFromAddress(t *testing.T) {
	if got := buildFromAddress("noreply@test.local", ""); got != "noreply@test.local" {
		t.Fatalf("expected bare address, got: %s", got)
	}
	named := buildFromAddress("noreply@test.local", "BuildHub")
	if !strings.Contains(named, "noreply@test.local") || !strings.Contains(named, "BuildHub") {
		t.Fatalf("expected named address, got: %s", named)
	}
}
