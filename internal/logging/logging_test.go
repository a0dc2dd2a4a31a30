package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "ragchat.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
	})

	LogEvent("hello %s", "world")
	LogWarn("careful %d", 1)
	LogError("broken %s", "pipe")
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	for _, want := range []string{"hello world", "WARN careful 1", "ERROR broken pipe"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in log, got: %s", want, content)
		}
	}
}

func TestBuildRequestMessageDefaults(t *testing.T) {
	msg := buildRequestMessage(" in ", " ", "", map[string]any{"ok": true})
	if !strings.Contains(msg, "[IN]") {
		t.Fatalf("expected uppercased direction, got: %s", msg)
	}
	if !strings.Contains(msg, "host=unknown") {
		t.Fatalf("expected default host, got: %s", msg)
	}
	if !strings.Contains(msg, "model=unknown") {
		t.Fatalf("expected default model, got: %s", msg)
	}
	if !strings.Contains(msg, "payload={\"ok\":true}") {
		t.Fatalf("expected payload json, got: %s", msg)
	}
}

func TestFormatPayloadVariants(t *testing.T) {
	if got := formatPayload(nil); got != "null" {
		t.Fatalf("nil payload: %s", got)
	}
	if got := formatPayload(" "); got != `""` {
		t.Fatalf("empty string payload: %s", got)
	}
	if got := formatPayload([]byte("hi")); got != "hi" {
		t.Fatalf("byte payload: %s", got)
	}
	if got := formatPayload(testStringer("ok")); got != "ok" {
		t.Fatalf("stringer payload: %s", got)
	}
}

func TestFormatPayloadRedactsSecrets(t *testing.T) {
	got := formatPayload(map[string]string{"q": "cats", "api_key": "abc123"})
	if strings.Contains(got, "abc123") || !strings.Contains(got, `"api_key":"****"`) {
		t.Fatalf("expected api_key redacted, got: %s", got)
	}
	got = formatPayload(map[string]any{"Authorization": "Bearer xyz", "n": 3})
	if strings.Contains(got, "xyz") || !strings.Contains(got, `"n":3`) {
		t.Fatalf("expected Authorization redacted, got: %s", got)
	}
}

func TestLogRequestWritesLine(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	LogRequest("ragchat->llm", "api.example.com", "sonar-pro", map[string]string{"token": "t0p"})
	line := buf.String()
	if !strings.Contains(line, "[RAGCHAT->LLM] host=api.example.com model=sonar-pro") || strings.Contains(line, "t0p") {
		t.Fatalf("unexpected request line: %s", line)
	}
}
