package enrich

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/openclaw/talent-pipeline/pkg/webfetch"
	"github.com/openclaw/talent-pipeline/pkg/websearch"
)

// mockSearch routes queries to canned result sets by substring match. The
// enricher issues searches concurrently, so calls are mutex-guarded.
type mockSearch struct {
	mu      sync.Mutex
	calls   []websearch.Request
	results map[string][]websearch.Result
	err     error
}

func (m *mockSearch) queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Query
	}
	return out
}

func (m *mockSearch) Execute(_ context.Context, req websearch.Request) (*websearch.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for needle, results := range m.results {
		if strings.Contains(req.Query, needle) {
			return &websearch.Response{Details: websearch.Details{Results: results}}, nil
		}
	}
	return &websearch.Response{}, nil
}

// mockFetch returns canned page text by URL.
type mockFetch struct {
	calls   []string
	content map[string]string
}

func (m *mockFetch) Execute(_ context.Context, req webfetch.Request) (*webfetch.Response, error) {
	m.calls = append(m.calls, req.URL)
	text, ok := m.content[req.URL]
	if !ok {
		return nil, eris.Errorf("fetch: no content for %s", req.URL)
	}
	return &webfetch.Response{Details: webfetch.Details{Content: text}}, nil
}
