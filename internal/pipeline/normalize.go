package pipeline

import (
	"strings"

	"github.com/openclaw/talent-pipeline/internal/model"
)

// sourceTerms are the AI-native fragments stripped from search criteria in
// broad source-query mode. Longer phrases come first so substring removal
// never leaves partial phrases behind.
var sourceTerms = []string{
	"model context protocol",
	"claude code",
	"ai-native",
	"langgraph",
	"windsurf",
	"agentic",
	"autogen",
	"agents",
	"cursor",
	"codex",
	"agent",
	"mcp",
}

// normalizeSearchForBroadMode strips AI-native source terms from the
// keywords and every filter fragment, collapses pipe and slash separators
// to spaces, and drops filters whose text reduces to empty unless they
// carry an ID.
func normalizeSearchForBroadMode(search model.TalentSearch) model.TalentSearch {
	out := search
	out.Keywords = stripSourceTerms(search.Keywords)
	out.RoleKeywords = normalizeFilters(search.RoleKeywords)
	out.Skills = normalizeFilters(search.Skills)
	out.Companies = normalizeFilters(search.Companies)
	return out
}

func normalizeFilters(filters []model.SearchFilter) []model.SearchFilter {
	var out []model.SearchFilter
	for _, f := range filters {
		f.Text = stripSourceTerms(f.Text)
		if f.Text == "" && f.ID == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func stripSourceTerms(text string) string {
	lowered := strings.ToLower(text)
	for _, term := range sourceTerms {
		for {
			idx := strings.Index(lowered, term)
			if idx < 0 {
				break
			}
			text = text[:idx] + " " + text[idx+len(term):]
			lowered = lowered[:idx] + " " + lowered[idx+len(term):]
		}
	}
	text = strings.NewReplacer("|", " ", "/", " ").Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
