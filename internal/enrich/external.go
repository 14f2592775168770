// Package enrich gathers a candidate's external web footprint: GitHub and
// X handles, a personal site, supporting evidence links, and keyword
// signals extracted from fetched page content.
package enrich

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openclaw/talent-pipeline/internal/model"
	"github.com/openclaw/talent-pipeline/pkg/webfetch"
	"github.com/openclaw/talent-pipeline/pkg/websearch"
)

const (
	searchCacheTTL = 15 * time.Minute
	fetchCacheTTL  = 60 * time.Minute

	personSearchCount = 5
	strictSearchCount = 8

	fetchMaxChars = 8000

	// Floor applied to ai_native_evidence when any strict search hit
	// mentions an AI-native keyword in its title or description.
	strictHitFloor = 0.35
)

// Process-wide caches shared by every enricher instance.
var (
	searchCache = newTTLCache[[]websearch.Result](searchCacheTTL)
	fetchCache  = newTTLCache[string](fetchCacheTTL)
)

// Input identifies the candidate being enriched.
type Input struct {
	Name              string
	Company           string
	Headline          string
	EvidenceQueryMode model.EvidenceQueryMode
}

// Footprint is the enrichment result.
type Footprint struct {
	Signals      []model.Signal
	Evidence     []model.EvidenceLink
	GitHub       *model.PlatformHint
	X            *model.PlatformHint
	PersonalSite *model.PlatformHint
}

// Enricher performs external-footprint discovery via the web search and
// fetch collaborators.
type Enricher struct {
	search   websearch.Client
	fetch    webfetch.Client
	useCache bool
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithoutCache disables the process-wide TTL caches (used by tests).
func WithoutCache() Option {
	return func(e *Enricher) {
		e.useCache = false
	}
}

// NewEnricher creates an enricher over the given collaborators.
func NewEnricher(search websearch.Client, fetch webfetch.Client, opts ...Option) *Enricher {
	e := &Enricher{search: search, fetch: fetch, useCache: true}
	for _, o := range opts {
		o(e)
	}
	return e
}

// EnrichExternalFootprint runs the person searches, derives identity
// hints, collects URL-deduped evidence, fetches page text, and extracts
// keyword signals. Search errors propagate to the caller; retry policy is
// the orchestrator's concern.
func (e *Enricher) EnrichExternalFootprint(ctx context.Context, in Input) (*Footprint, error) {
	baseQuery := joinNonEmpty(in.Name, in.Company, in.Headline)
	strict := in.EvidenceQueryMode == model.EvidenceQueryStrict

	requests := []websearch.Request{
		{
			Query:          baseQuery + " github",
			Count:          personSearchCount,
			SearchType:     "deep",
			Category:       "person",
			IncludeDomains: []string{"github.com"},
		},
		{
			Query:          baseQuery + " x.com OR twitter.com",
			Count:          personSearchCount,
			SearchType:     "deep",
			Category:       "person",
			IncludeDomains: []string{"x.com", "twitter.com"},
		},
		{
			Query:      baseQuery + " blog portfolio personal site",
			Count:      personSearchCount,
			SearchType: "deep",
			Category:   "person",
		},
	}
	if strict {
		requests = append(requests, websearch.Request{
			Query:      baseQuery + ` ("claude code" OR codex OR mcp OR agent tooling OR "model context protocol")`,
			Count:      strictSearchCount,
			SearchType: "deep",
			Category:   "person",
		})
	}

	resultSets := make([][]websearch.Result, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		g.Go(func() error {
			results, err := e.doSearch(gctx, req)
			if err != nil {
				return err
			}
			resultSets[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	githubResults, socialResults, webResults := resultSets[0], resultSets[1], resultSets[2]
	var strictResults []websearch.Result
	if strict {
		strictResults = resultSets[3]
	}

	fp := &Footprint{}
	var identityHits []websearch.Result

	if r, ok := firstWithHost(githubResults, "github.com"); ok {
		fp.GitHub = &model.PlatformHint{Handle: firstPathSegment(r.URL), URL: r.URL}
		identityHits = append(identityHits, r)
	}
	if r, ok := firstWithHost(socialResults, "x.com", "twitter.com"); ok {
		fp.X = &model.PlatformHint{Handle: firstPathSegment(r.URL), URL: r.URL}
		identityHits = append(identityHits, r)
	}
	if r, ok := firstExcludingHosts(webResults, "linkedin.com", "github.com"); ok {
		fp.PersonalSite = &model.PlatformHint{URL: r.URL}
		identityHits = append(identityHits, r)
	}

	fp.Evidence = dedupeEvidence(identityHits, strictResults)

	fetchLimit := 3
	if strict {
		fetchLimit = 5
	}
	content := e.fetchEvidence(ctx, fp.Evidence, fetchLimit)

	fp.Signals = e.extractSignals(strictResults, content)
	return fp, nil
}

func (e *Enricher) doSearch(ctx context.Context, req websearch.Request) ([]websearch.Result, error) {
	key := searchKey(req)
	if e.useCache {
		if cached, ok := searchCache.get(key); ok {
			return cached, nil
		}
	}

	resp, err := e.search.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	results := resp.Details.Results
	if e.useCache {
		searchCache.set(key, results)
	}
	return results, nil
}

// fetchEvidence pulls page text for the first few evidence URLs. Fetch
// failures are logged and skipped; missing content only weakens signals.
func (e *Enricher) fetchEvidence(ctx context.Context, evidence []model.EvidenceLink, limit int) []string {
	var content []string
	for i, link := range evidence {
		if i >= limit {
			break
		}
		text, err := e.doFetch(ctx, link.URL)
		if err != nil {
			zap.L().Debug("evidence fetch failed", zap.String("url", link.URL), zap.Error(err))
			continue
		}
		if text != "" {
			content = append(content, text)
		}
	}
	return content
}

func (e *Enricher) doFetch(ctx context.Context, pageURL string) (string, error) {
	if e.useCache {
		if cached, ok := fetchCache.get(pageURL); ok {
			return cached, nil
		}
	}

	resp, err := e.fetch.Execute(ctx, webfetch.Request{
		URL:         pageURL,
		ExtractMode: "text",
		MaxChars:    fetchMaxChars,
	})
	if err != nil {
		return "", err
	}
	text := resp.Details.Content
	if e.useCache {
		fetchCache.set(pageURL, text)
	}
	return text, nil
}

func (e *Enricher) extractSignals(strictResults []websearch.Result, content []string) []model.Signal {
	var signals []model.Signal

	// ai_native_evidence: strict hit titles/descriptions floor the score,
	// fetched content can raise it.
	aiScore := 0.0
	for _, r := range strictResults {
		if keywordScore(r.Title+" "+r.Description, aiNativeKeywords) > 0 {
			aiScore = strictHitFloor
			break
		}
	}
	for _, text := range content {
		if s := keywordScore(text, aiNativeKeywords); s > aiScore {
			aiScore = s
		}
	}
	if aiScore > 0 {
		signals = append(signals, model.NumericSignal(model.SignalAINativeEvidence, aiScore, "external", "keyword match in external evidence"))
	}

	builderScore := 0.0
	for _, text := range content {
		if s := keywordScore(text, builderKeywords); s > builderScore {
			builderScore = s
		}
	}
	if builderScore > 0 {
		signals = append(signals, model.NumericSignal(model.SignalBuilderActivity, builderScore, "external", "shipping keywords in external evidence"))
	}

	return signals
}

// helpers

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " ")
}

func searchKey(req websearch.Request) string {
	return strings.Join([]string{
		req.Query,
		strconv.Itoa(req.Count),
		strings.Join(req.IncludeDomains, ","),
		req.Category,
	}, "|")
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func firstWithHost(results []websearch.Result, hosts ...string) (websearch.Result, bool) {
	for _, r := range results {
		h := hostOf(r.URL)
		for _, want := range hosts {
			if strings.Contains(h, want) {
				return r, true
			}
		}
	}
	return websearch.Result{}, false
}

func firstExcludingHosts(results []websearch.Result, hosts ...string) (websearch.Result, bool) {
	for _, r := range results {
		h := hostOf(r.URL)
		if h == "" {
			continue
		}
		excluded := false
		for _, skip := range hosts {
			if strings.Contains(h, skip) {
				excluded = true
				break
			}
		}
		if !excluded {
			return r, true
		}
	}
	return websearch.Result{}, false
}

// firstPathSegment returns the first non-empty path segment of a profile
// URL, stripped of any leading @.
func firstPathSegment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			return strings.TrimPrefix(seg, "@")
		}
	}
	return ""
}

// dedupeEvidence merges result sets into evidence links, URL-unique with
// first-seen wins.
func dedupeEvidence(identityHits, strictHits []websearch.Result) []model.EvidenceLink {
	seen := make(map[string]bool)
	var out []model.EvidenceLink

	add := func(r websearch.Result, source string) {
		if r.URL == "" || seen[r.URL] {
			return
		}
		seen[r.URL] = true
		out = append(out, model.EvidenceLink{
			URL:       r.URL,
			Title:     r.Title,
			Source:    source,
			Relevance: r.Score,
		})
	}

	for _, r := range identityHits {
		add(r, "external_search")
	}
	for _, r := range strictHits {
		add(r, "external_search_strict")
	}
	return out
}
