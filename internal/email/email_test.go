package email

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestBuildMessageHeaders(t *testing.T) {
	msg := buildMessage("noreply@majji.dev", "Majji", "user@example.com", "Hello", "body\n")
	if !strings.Contains(msg, "From: Majji <noreply@majji.dev>\r\n") {
		t.Fatalf("expected named from header, got %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nbody\n") {
		t.Fatalf("expected blank line before body, got %q", msg)
	}

	plain := buildMessage("noreply@majji.dev", " ", "user@example.com", "Hello", "")
	if !strings.Contains(plain, "From: noreply@majji.dev\r\n") {
		t.Fatalf("expected bare from header, got %q", plain)
	}
}

func TestVerificationContent(t *testing.T) {
	expires := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	subject, body := verificationContent("123456", expires)
	if subject == "" || !strings.Contains(body, "123456") || !strings.Contains(body, "2024-03-01T12:00:00Z") {
		t.Fatalf("unexpected content %q / %q", subject, body)
	}
}

func TestNewSMTPSenderValidation(t *testing.T) {
	if _, err := NewSMTPSender("", 0, "", "", "from@example.com", "", false); err == nil {
		t.Fatalf("expected host error")
	}
	if _, err := NewSMTPSender("smtp.example.com", 0, "", "", "", "", false); err == nil {
		t.Fatalf("expected from error")
	}
	s, err := NewSMTPSender("smtp.example.com", 0, "", "", "from@example.com", "", false)
	if err != nil || s.port != 587 {
		t.Fatalf("expected default port 587, got %+v %v", s, err)
	}
	if err := s.SendVerificationOTP(context.Background(), " ", "123456", time.Now()); err == nil {
		t.Fatalf("expected recipient error")
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("").SendVerificationOTP(context.Background(), "a@example.com", "123456", time.Now())
	if err == nil || err.Error() != "email sender disabled" {
		t.Fatalf("expected default disabled error, got %v", err)
	}
}
