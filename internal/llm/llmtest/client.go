// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"text2cypher/internal/llm"
)

// Reply is one scripted completion.
type Reply struct {
	Text string
	Err  error
}

type rule struct {
	contains string
	replies  []Reply
}

// Client replies based on a substring of the system or user prompt. Rules are checked
// in registration order; each match consumes the next reply and the last
// reply repeats.
type Client struct {
	mu       sync.Mutex
	rules    []*rule
	requests []llm.Request
}

// New returns an empty scripted client.
func New() *Client {
	return &Client{}
}

// When registers replies for prompts containing text.
func (client *Client) When(text string, replies ...Reply) *Client {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.rules = append(client.rules, &rule{contains: text, replies: replies})
	return client
}

// Query scripts a JSON {"query": ...} reply for prompts containing text.
func (client *Client) Query(text, query string) *Client {
	return client.When(text, Reply{Text: fmt.Sprintf("{\"query\": %q}", query)})
}

// Requests returns a copy of the received requests.
func (client *Client) Requests() []llm.Request {
	client.mu.Lock()
	defer client.mu.Unlock()
	return append([]llm.Request(nil), client.requests...)
}

// Complete implements llm.Client.
func (client *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	client.requests = append(client.requests, req)
	haystack := req.System + "\n" + req.User
	for _, r := range client.rules {
		if !strings.Contains(haystack, r.contains) || len(r.replies) == 0 {
			continue
		}
		reply := r.replies[0]
		if len(r.replies) > 1 {
			r.replies = r.replies[1:]
		}
		return reply.Text, reply.Err
	}
	return "", fmt.Errorf("no scripted reply for prompt %q", req.User)
}
