package util

import (
	"strings"
	"testing"
)

func TestRenderTaskMessage_Topic(t *testing.T) {
	result, err := RenderTaskMessage("Research the topic: {{.Topic}}", "Go generics")
	if err != nil {
		t.Fatalf("RenderTaskMessage failed: %v", err)
	}
	if result != "Research the topic: Go generics" {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestRenderTaskMessage_ContentAlias(t *testing.T) {
	result, err := RenderTaskMessage("Draft a post from:\n{{.Content}}", "the findings")
	if err != nil {
		t.Fatalf("RenderTaskMessage failed: %v", err)
	}
	if result != "Draft a post from:\nthe findings" {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestRenderTaskMessage_UnknownField(t *testing.T) {
	if _, err := RenderTaskMessage("{{.Missing}}", "x"); err == nil {
		t.Fatal("expected error for unknown template field")
	}
}

func TestRenderTaskMessage_ForbiddenDirectives(t *testing.T) {
	cases := []string{
		"{{call .Fn}}",
		`{{define "x"}}y{{end}}`,
		`{{template "x"}}`,
		`{{block "x" .}}{{end}}`,
	}
	for _, tmpl := range cases {
		if _, err := RenderTaskMessage(tmpl, "x"); err == nil {
			t.Errorf("expected forbidden directive error for %q", tmpl)
		} else if !strings.Contains(err.Error(), "forbidden directive") {
			t.Errorf("unexpected error for %q: %v", tmpl, err)
		}
	}
}

func TestRenderTaskMessage_ParseError(t *testing.T) {
	if _, err := RenderTaskMessage("{{.Topic", "x"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := TruncateString("hello world", 5); got != "hello..." {
		t.Errorf("expected truncated string, got %q", got)
	}
	// Multi-byte characters must not be split mid-rune
	if got := TruncateString("héllo wörld", 5); got != "héllo..." {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
}
