package profiler

import (
	"fmt"
	"strings"

	"github.com/fazal-lab/xia/internal/domain"
)

// hybridPrompt composes the structured JSON-mode prompt for the hybrid
// override decision: fixed rules, the rules-only classification as context,
// and the strict output schema, per spec §4.6's "structured (fixed
// sections: rules, context, output schema)" requirement.
func hybridPrompt(p *domain.AreaProfile) string {
	var b strings.Builder
	b.WriteString("You are refining an automated area classification for a digital advertising screen.\n")
	b.WriteString("Rules: only override the rules-based classification when it is clearly wrong given the context below. Respond with strict JSON only.\n\n")
	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Location: %s, %s, %s\n", p.GeoContext.City, p.GeoContext.State, p.GeoContext.Country)
	fmt.Fprintf(&b, "- Rules-based primary type: %s (%s)\n", p.Area.PrimaryType, p.Area.ClassificationDetail)
	fmt.Fprintf(&b, "- Rules-based context: %s\n", p.Area.Context)
	fmt.Fprintf(&b, "- Dominance ratio: %.2f, confidence: %s\n", p.DominanceRatio, p.Area.Confidence)
	if p.RingAnalysis.Ring2 != nil {
		fmt.Fprintf(&b, "- Ring-2 group counts: %v\n", p.RingAnalysis.Ring2.GroupCounts)
	}
	b.WriteString("\nOutput schema: {\"should_override\": bool, \"final_type\": string, \"context\": string, \"rationale\": string}\n")
	return b.String()
}

// fullLLMPrompt composes the single-shot classification prompt for full_llm
// mode: location, the Ring 1 authority candidate if any, the Name of each
// entry in enriched (listed as nearby place groups, no descriptions), and
// the output schema.
func fullLLMPrompt(p *domain.AreaProfile, enriched []domain.Place) string {
	var b strings.Builder
	b.WriteString("You are classifying the area surrounding a digital advertising screen from nearby places. Respond with strict JSON only.\n\n")
	fmt.Fprintf(&b, "Location: %s, %s, %s (%s)\n", p.GeoContext.City, p.GeoContext.State, p.GeoContext.Country, p.GeoContext.FormattedAddress)

	if p.RingAnalysis.Ring1 != nil && p.RingAnalysis.Ring1.Anchor != nil {
		fmt.Fprintf(&b, "Authority candidate: %s (%s)\n", p.RingAnalysis.Ring1.Anchor.Source.Name, p.RingAnalysis.Ring1.Anchor.ContextLabel)
	}
	if len(enriched) > 0 {
		b.WriteString("Nearby place groups observed:\n")
		for _, place := range enriched {
			fmt.Fprintf(&b, "- %s\n", place.Name)
		}
	}

	b.WriteString("\nOutput schema: {\"primary_type\": string, \"context\": string, \"confidence\": \"high\"|\"medium\"|\"low\", \"rationale\": string}\n")
	return b.String()
}

// researchPlanPrompt is the PLAN step of research_agent mode.
func researchPlanPrompt(p *domain.AreaProfile) string {
	return fmt.Sprintf(
		"Plan a short research investigation to classify the area around %s, %s. "+
			"List 2-4 specific questions a web search could answer about what dominates this area. "+
			"Respond with strict JSON: {\"questions\": [string]}.",
		p.GeoContext.City, p.GeoContext.FormattedAddress,
	)
}

// researchFindingsPrompt asks the model to synthesize grounded search results.
func researchFindingsPrompt(questions []string, searchResults string) string {
	var b strings.Builder
	b.WriteString("Summarize grounded findings from the search results below that answer these questions:\n")
	for _, q := range questions {
		fmt.Fprintf(&b, "- %s\n", q)
	}
	b.WriteString("\nSearch results:\n")
	b.WriteString(searchResults)
	b.WriteString("\n\nRespond with strict JSON: {\"findings\": [string]}.")
	return b.String()
}

// researchClassifyPrompt asks the model to propose a classification from
// the grounded findings plus the rules-based baseline.
func researchClassifyPrompt(p *domain.AreaProfile, findings []string) string {
	var b strings.Builder
	b.WriteString("Propose an area classification using the grounded findings and the rules-based baseline below. Respond with strict JSON only.\n\n")
	fmt.Fprintf(&b, "Rules-based baseline: %s (%s), context %q\n", p.Area.PrimaryType, p.Area.ClassificationDetail, p.Area.Context)
	b.WriteString("Findings:\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\nOutput schema: {\"primary_type\": string, \"context\": string, \"confidence\": \"high\"|\"medium\"|\"low\", \"rationale\": string}\n")
	return b.String()
}

// researchVerifyPrompt asks the model to sanity-check the proposed
// classification, with another round of grounded search allowed.
func researchVerifyPrompt(proposed fullLLMClassification, verifyResults string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verify this proposed area classification: %s, context %q, rationale %q.\n", proposed.PrimaryType, proposed.Context, proposed.Rationale)
	if verifyResults != "" {
		b.WriteString("Additional verification search results:\n")
		b.WriteString(verifyResults)
		b.WriteString("\n")
	}
	b.WriteString("Respond with strict JSON: {\"confirmed\": bool, \"primary_type\": string, \"context\": string, \"confidence\": \"high\"|\"medium\"|\"low\", \"rationale\": string}.")
	return b.String()
}
