package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/openclaw/talent-pipeline/internal/enrich"
	"github.com/openclaw/talent-pipeline/internal/pipeline"
	"github.com/openclaw/talent-pipeline/internal/store"
	"github.com/openclaw/talent-pipeline/pkg/unipile"
	"github.com/openclaw/talent-pipeline/pkg/webfetch"
	"github.com/openclaw/talent-pipeline/pkg/websearch"
)

// pipelineEnv bundles the wired pipeline and its store for command
// lifetimes.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	Store    store.Store
}

func (e *pipelineEnv) Close() {
	_ = e.Store.Close()
}

// initPipeline refuses to start when the engine is disabled, opens the
// store, and wires the collaborators.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if !cfg.Recruiting.Enabled {
		return nil, eris.New("recruiting pipeline is disabled (set recruiting.enabled: true)")
	}

	st, err := store.NewSQLite(cfg.Recruiting.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	account := unipile.ResolveAccount(cfg.Unipile.APIKey, cfg.Unipile.AccountID, cfg.Unipile.Enabled)
	linkedin := unipile.NewClient(account.Key(cfg.Unipile.APIKey), cfg.Unipile.AccountID,
		unipile.WithBaseURL(cfg.Unipile.BaseURL))

	search := websearch.NewClient(cfg.WebSearch.APIKey, websearch.WithBaseURL(cfg.WebSearch.BaseURL))
	fetch := webfetch.NewClient(cfg.WebFetch.APIKey, webfetch.WithBaseURL(cfg.WebFetch.BaseURL))
	enricher := enrich.NewEnricher(search, fetch)

	return &pipelineEnv{
		Pipeline: pipeline.New(st, linkedin, account, enricher, cfg.Recruiting),
		Store:    st,
	}, nil
}

// writeJSON prints a result document. Compact with --json, indented
// otherwise.
func writeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
