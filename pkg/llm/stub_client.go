package llm

import (
	"context"
	"sync"
)

// StubClient returns Response (or Err) and records every request it receives.
type StubClient struct {
	mu       sync.Mutex
	Response string
	Err      error
	Requests []Request
}

func NewStubClient(response string) *StubClient {
	return &StubClient{Response: response}
}

func (s *StubClient) Complete(ctx context.Context, request Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, request)
	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}

func (s *StubClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}
