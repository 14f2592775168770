package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/openclaw/talent-pipeline/pkg/unipile"
	"github.com/openclaw/talent-pipeline/pkg/webfetch"
	"github.com/openclaw/talent-pipeline/pkg/websearch"
)

// mockLinkedIn is a scriptable unipile.Client.
type mockLinkedIn struct {
	searchResp  *unipile.SearchResponse
	searchErr   error
	profiles    map[string]*unipile.ProfileResponse
	profileErrs map[string]error
	posts       map[string]*unipile.ActivityResponse
	comments    map[string]*unipile.ActivityResponse
	reactions   map[string]*unipile.ActivityResponse
	searchCalls int
}

func (m *mockLinkedIn) SearchTalent(_ context.Context, _ unipile.SearchParams) (*unipile.SearchResponse, error) {
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResp != nil {
		return m.searchResp, nil
	}
	return &unipile.SearchResponse{Success: true}, nil
}

func (m *mockLinkedIn) GetUserProfile(_ context.Context, providerID string) (*unipile.ProfileResponse, error) {
	if err, ok := m.profileErrs[providerID]; ok {
		return nil, err
	}
	if p, ok := m.profiles[providerID]; ok {
		return p, nil
	}
	return &unipile.ProfileResponse{}, nil
}

func (m *mockLinkedIn) GetUserPosts(_ context.Context, providerID string) (*unipile.ActivityResponse, error) {
	if a, ok := m.posts[providerID]; ok {
		return a, nil
	}
	return &unipile.ActivityResponse{}, nil
}

func (m *mockLinkedIn) GetUserComments(_ context.Context, providerID string) (*unipile.ActivityResponse, error) {
	if a, ok := m.comments[providerID]; ok {
		return a, nil
	}
	return &unipile.ActivityResponse{}, nil
}

func (m *mockLinkedIn) GetUserReactions(_ context.Context, providerID string) (*unipile.ActivityResponse, error) {
	if a, ok := m.reactions[providerID]; ok {
		return a, nil
	}
	return &unipile.ActivityResponse{}, nil
}

// mockSearch serves canned results by query substring.
type mockSearch struct {
	results map[string][]websearch.Result
	err     error
}

func (m *mockSearch) Execute(_ context.Context, req websearch.Request) (*websearch.Response, error) {
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

// mockFetch serves canned page text by URL.
type mockFetch struct {
	content map[string]string
}

func (m *mockFetch) Execute(_ context.Context, req webfetch.Request) (*webfetch.Response, error) {
	text, ok := m.content[req.URL]
	if !ok {
		return nil, eris.Errorf("fetch: no content for %s", req.URL)
	}
	return &webfetch.Response{Details: webfetch.Details{Content: text}}, nil
}
