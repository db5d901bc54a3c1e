package sl

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestErrRendersUnderErrorKey(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	log.With(slog.Int64("id", 5)).Warn("sending status", Err(errors.New("chat not found")))

	out := buf.String()
	if !strings.Contains(out, `error="chat not found"`) || !strings.Contains(out, "id=5") {
		t.Errorf("record = %q", out)
	}
}

func TestSecret(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", "?"},
		{"abc", "***"},
		{"abcdefgh", "abcde***"},
	}
	for _, tt := range tests {
		if got := Secret("token", tt.value).Value.String(); got != tt.want {
			t.Errorf("Secret(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestLink(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://t.me/+AbCdEfGh", "https://t.me/+AbC***"},
		{"https://t.me/+ab", "https://t.me/+ab"},
		{"https://t.me/", "https://t.me/"},
	}
	for _, tt := range tests {
		if got := Link(tt.link).Value.String(); got != tt.want {
			t.Errorf("Link(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}
