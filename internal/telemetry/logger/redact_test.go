package logger

import (
	"log/slog"
	"testing"
)

func TestRedactSensitive_KeyNames(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		redacted bool
	}{
		{"password", "hunter2", true},
		{"client_secret", "abc", true},
		{"access_token", "opaque", true},
		{"Cookie", "yeti_session=abc", true},
		{"credential", "x", true},
		{"password", "", false},
		{"user", "admin", false},
		{"auth_mode", "bearer", false},
		{"fingerprint", "3f2a", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := redactSensitive(slog.String(tt.key, tt.value))
			isRedacted := got.Value.String() == redactedValue
			if isRedacted != tt.redacted {
				t.Errorf("redactSensitive(%q=%q) = %q, redacted=%v want %v",
					tt.key, tt.value, got.Value.String(), isRedacted, tt.redacted)
			}
		})
	}
}

func TestRedactSensitive_ValuePrefix(t *testing.T) {
	got := redactSensitive(slog.String("header", "Bearer abcdef123456"))
	if want := "Bearer abc...456"; got.Value.String() != want {
		t.Errorf("got %q, want %q", got.Value.String(), want)
	}

	jwt := "eyJhbGciOiJIUzI1NiJ9.payload.sig"
	got = redactSensitive(slog.String("value", jwt))
	if got.Value.String() == jwt {
		t.Error("JWT-shaped value should be masked")
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	a := slog.Group("req", slog.String("password", "p"), slog.String("path", "/admin/apps"))
	got := redactSensitive(a)

	attrs := got.Value.Group()
	if attrs[0].Value.String() != redactedValue {
		t.Errorf("nested password = %q, want redacted", attrs[0].Value.String())
	}
	if attrs[1].Value.String() != "/admin/apps" {
		t.Errorf("nested path = %q, want unchanged", attrs[1].Value.String())
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Bearer abcdef123456", "Bearer abc...456"},
		{"Bearer abc", "Bearer ***"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := RedactString(tt.input); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsSensitiveValue(t *testing.T) {
	if !IsSensitiveValue("eyJfoo") {
		t.Error("JWT prefix should be sensitive")
	}
	if IsSensitiveValue("hello") {
		t.Error("plain value should not be sensitive")
	}
}
