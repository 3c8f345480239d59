package scholar

import (
	"fmt"
	"strings"
)

var (
	problemMarkers = []string{
		"problem", "challenge", "difficult", "limitation", "issue",
		"lack", "struggle", "hard to",
	}
	approachMarkers = []string{
		"we propose", "we present", "we introduce", "we develop",
		"this paper", "this work", "we design", "we create",
		"our method", "our approach",
	}
	impactMarkers = []string{
		"achieve", "outperform", "improve", "result", "demonstrate",
		"show that", "state-of-the-art", "significantly", "better than",
	}
)

// ExplainLikeTen builds a simple three-part explanation of a paper from its
// abstract: the problem, the approach, and why it matters. Pure pattern
// matching, no model call, so it works with no API key at all.
func ExplainLikeTen(abstract string) string {
	if strings.TrimSpace(abstract) == "" {
		return "No abstract available for this article."
	}

	sentences := splitSentences(abstract)

	var theProblem, whatItDoes, whyItMatters string
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		if theProblem == "" && containsAny(lower, problemMarkers) {
			theProblem = sentence
		}
		if whatItDoes == "" && containsAny(lower, approachMarkers) {
			whatItDoes = sentence
		}
		if whyItMatters == "" && containsAny(lower, impactMarkers) {
			whyItMatters = sentence
		}
	}

	if whatItDoes == "" && len(sentences) > 0 {
		whatItDoes = sentences[0]
	}
	if whyItMatters == "" && len(sentences) > 1 {
		whyItMatters = sentences[len(sentences)-1]
	}

	var parts []string
	if theProblem != "" {
		parts = append(parts, "The Problem: "+theProblem)
	}
	if whatItDoes != "" {
		parts = append(parts, "What They Built: "+whatItDoes)
	}
	if whyItMatters != "" {
		parts = append(parts, "Why It's Cool: "+whyItMatters)
	}

	if len(parts) == 0 {
		if len(sentences) > 0 {
			return "This paper is about: " + sentences[0]
		}
		return fmt.Sprintf("This paper is about: %.200s", abstract)
	}

	return strings.Join(parts, "\n\n")
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
