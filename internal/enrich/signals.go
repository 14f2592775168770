package enrich

import "strings"

// aiNativeKeywords indicate AI-native tooling evidence in external content.
var aiNativeKeywords = []string{"codex", "claude code", "mcp", "agent", "agents", "autogen"}

// builderKeywords indicate shipped-work activity in external content.
var builderKeywords = []string{"shipped", "release", "launched", "production", "deployed", "commit", "pr"}

// keywordScore counts distinct keywords present in the content and maps
// the hit count onto [0,1] as matches / max(2, len(keywords)/2).
func keywordScore(content string, keywords []string) float64 {
	haystack := strings.ToLower(content)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	denom := float64(len(keywords)) / 2
	if denom < 2 {
		denom = 2
	}
	score := float64(matches) / denom
	if score > 1 {
		score = 1
	}
	return score
}
