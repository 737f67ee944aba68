package pubsub

import (
	"context"
	"testing"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "trucks-prod"}
	cases := map[string]string{
		"notifications":                       "projects/trucks-prod/topics/notifications",
		" notifications ":                     "projects/trucks-prod/topics/notifications",
		"projects/other/topics/notifications": "projects/other/topics/notifications",
		"":                                    "",
	}
	for in, want := range cases {
		if got := c.topicResourceName(in); got != want {
			t.Fatalf("topicResourceName(%q) = %q, want %q", in, got, want)
		}
	}

	if got := (&Client{}).topicResourceName("notifications"); got != "" {
		t.Fatalf("expected empty name without project, got %q", got)
	}
}

func TestClientOptionsPreferInlineCredentials(t *testing.T) {
	if opts := clientOptions(config.GCPConfig{}); len(opts) != 0 {
		t.Fatalf("expected default credentials, got %d options", len(opts))
	}
	if opts := clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/key.json"}); len(opts) != 1 {
		t.Fatalf("expected a single credentials option, got %d", len(opts))
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("topic") != nil {
		t.Fatal("nil client should not return a publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping on nil client to fail")
	}
}
