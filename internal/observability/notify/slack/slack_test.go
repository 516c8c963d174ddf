package slack

import (
	"strings"
	"testing"
	"time"

	"github.com/parcelworks/landscout/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when webhook url missing")
	}
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#alerts",
		Username:   "bot",
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.TaskFailurePayload{
		TaskID:     "123",
		TaskType:   "batch_enrichment",
		Owner:      "analyst-7",
		Error:      "boom",
		ErrorClass: "test_error",
	})

	if msg["username"] != "bot" {
		t.Fatalf("expected username to be preserved, got %v", msg["username"])
	}
	if msg["channel"] != "#alerts" {
		t.Fatalf("expected channel to be set, got %v", msg["channel"])
	}

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}
	if !containsAll(
		text,
		[]string{"Task failure alert", "123", "batch_enrichment", "analyst-7", "boom", "test_error"},
	) {
		t.Fatalf("message text missing fields: %s", text)
	}
}

func TestFormatMessageTaskLink(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL:    "https://hooks.slack.com/services/test",
		TaskURLPrefix: "https://app.landscout.local/tasks",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.TaskFailurePayload{
		TaskID: "task-123",
	})

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}

	expected := "<https://app.landscout.local/tasks/task-123|task-123>"
	if !strings.Contains(text, expected) {
		t.Fatalf("expected task link %q in text: %s", expected, text)
	}
}

func TestFormatMessageEscapesOwner(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.TaskFailurePayload{
		TaskID: "task-123",
		Owner:  "analyst & <admin>",
	})

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}

	if !strings.Contains(text, "analyst &amp; &lt;admin&gt;") {
		t.Fatalf("expected escaped owner, got: %s", text)
	}
}

func TestFormatTaskValuePermutations(t *testing.T) {
	tcs := []struct {
		name   string
		taskID string
		prefix string
		want   string
	}{
		{
			name:   "id with link",
			taskID: "task-1",
			prefix: "https://app.example/tasks",
			want:   "<https://app.example/tasks/task-1|task-1>",
		},
		{
			name:   "id without link",
			taskID: "task-3",
			prefix: "not a url",
			want:   "task-3",
		},
		{
			name:   "empty inputs",
			prefix: "https://app.example/tasks",
			want:   "",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(Config{
				WebhookURL:    "https://hooks.slack.com/services/test",
				TaskURLPrefix: tc.prefix,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := client.formatTaskValue(tc.taskID)
			if got != tc.want {
				t.Fatalf("formatTaskValue(%q) = %q, want %q", tc.taskID, got, tc.want)
			}
		})
	}
}

func containsAll(text string, substrs []string) bool {
	for _, s := range substrs {
		if !strings.Contains(text, s) {
			return false
		}
	}
	return true
}
