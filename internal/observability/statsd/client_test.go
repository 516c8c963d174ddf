package statsd

import (
	"net"
	"strings"
	"testing"
)

func TestQualifyAppliesPrefixAndNormalizes(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "landscout"}
	tests := map[string]string{
		" task/metric ": "landscout.task_metric",
		"foo..bar":      "landscout.foo.bar",
		"multi  space":  "landscout.multi__space",
		".":             "landscout",
		"":              "landscout",
	}
	for input, want := range tests {
		if got := c.qualify(input); got != want {
			t.Fatalf("qualify(%q) = %q, want %q", input, got, want)
		}
	}

	bare := &Client{}
	if got := bare.qualify("resolver.probe"); got != "resolver.probe" {
		t.Fatalf("qualify without prefix = %q", got)
	}
}

func TestWriteTagsMergesAndSorts(t *testing.T) {
	t.Parallel()

	base := map[string]string{
		"env":     "prod",
		"service": "engine",
	}
	local := map[string]string{
		"result": " success ",
		"":       "ignored",
		"env":    "stage",
	}

	var line strings.Builder
	writeTags(&line, base, local)
	want := "|#env:stage,result:success,service:engine"
	if got := line.String(); got != want {
		t.Fatalf("writeTags mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestWriteTagsEmpty(t *testing.T) {
	t.Parallel()

	var line strings.Builder
	writeTags(&line, nil, nil)
	if got := line.String(); got != "" {
		t.Fatalf("writeTags(nil, nil) wrote %q, want nothing", got)
	}
}

func TestTrimTagsCopiesAndDropsEmptyKeys(t *testing.T) {
	t.Parallel()

	original := map[string]string{
		" env ": " prod ",
		"":      "ignored",
	}

	trimmed := trimTags(original)
	if trimmed["env"] != "prod" {
		t.Fatalf("trimTags[env] = %q, want %q", trimmed["env"], "prod")
	}
	if _, ok := trimmed[""]; ok {
		t.Fatal("trimTags kept empty key")
	}

	trimmed["env"] = "stage"
	if original[" env "] != " prod " {
		t.Fatal("trimTags mutated the source map")
	}

	if got := trimTags(nil); got != nil {
		t.Fatalf("trimTags(nil) = %v, want nil", got)
	}
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{
		enabled: true,
		conn:    clientConn,
	}

	if !client.Enabled() {
		t.Fatal("expected client.Enabled to report true with active connection")
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client.Enabled to report false after Close")
	}

	// Close must be idempotent.
	if err := client.Close(); err != nil {
		t.Fatalf("Close (second call) error: %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{
		Enabled: true,
		Address: "   ",
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to stay disabled when address is empty")
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{
		Enabled: true,
		Address: "bad address",
	})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}
