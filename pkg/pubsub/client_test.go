package pubsub

import (
	"context"
	"testing"

	"github.com/bayancosmetic/storefront/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "bayan-prod"}

	cases := map[string]string{
		"orders":                       "projects/bayan-prod/topics/orders",
		"  orders  ":                   "projects/bayan-prod/topics/orders",
		"projects/other/topics/orders": "projects/other/topics/orders",
		"":                             "",
	}
	for input, want := range cases {
		if got := c.topicResourceName(input); got != want {
			t.Fatalf("topicResourceName(%q) = %q, want %q", input, got, want)
		}
	}

	if got := (&Client{}).topicResourceName("orders"); got != "" {
		t.Fatalf("expected empty name without project, got %q", got)
	}
}

func TestTopicNames(t *testing.T) {
	if names := topicNames(config.PubSubConfig{}); len(names) != 0 {
		t.Fatalf("expected no topics, got %v", names)
	}
	names := topicNames(config.PubSubConfig{OrdersTopic: " bayan-order-events "})
	if len(names) != 1 || names[0] != "bayan-order-events" {
		t.Fatalf("unexpected topics %v", names)
	}
}

func TestNilClientGuards(t *testing.T) {
	var c *Client
	if c.Publisher("orders") != nil {
		t.Fatal("expected nil publisher from nil client")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping on nil client to fail")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "orders"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}
