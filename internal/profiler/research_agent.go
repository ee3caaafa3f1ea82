package profiler

import (
	"context"
	"strings"
	"time"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/providers"
)

type researchPlan struct {
	Questions []string `json:"questions"`
}

type researchFindings struct {
	Findings []string `json:"findings"`
}

type researchVerification struct {
	Confirmed   bool              `json:"confirmed"`
	PrimaryType domain.PlaceGroup `json:"primary_type"`
	Context     string            `json:"context"`
	Confidence  domain.Confidence `json:"confidence"`
	Rationale   string            `json:"rationale"`
}

// stepLatency records one research_agent step's name and wall-clock time,
// per spec §4.6's "each step has its own latency recorded".
type stepLatency struct {
	Step    string
	Millis  int64
}

// applyResearchAgent implements spec §4.6's four-step PLAN/RESEARCH/CLASSIFY/
// VERIFY pipeline. RESEARCH and VERIFY are the only steps allowed grounded
// web search. Any step failure falls back to the dominance-based rules
// result already on the profile.
func (router *Router) applyResearchAgent(ctx context.Context, p *domain.AreaProfile) {
	if router.provider == nil {
		return
	}

	var latencies []stepLatency
	timeStep := func(name string, fn func() error) bool {
		start := time.Now()
		err := fn()
		latencies = append(latencies, stepLatency{Step: name, Millis: time.Since(start).Milliseconds()})
		if err != nil {
			router.logger.Warn("research_agent step failed, falling back to rules", "step", name, "error", err)
			p.Metadata.Error = name + "_failed"
			return false
		}
		return true
	}

	var plan researchPlan
	ok := timeStep("PLAN", func() error {
		resp, err := router.chatJSON(ctx, researchPlanPrompt(p), 0.3, 512)
		if err != nil {
			return err
		}
		return parseJSON(resp.Content, &plan)
	})
	if !ok {
		return
	}

	var findings researchFindings
	ok = timeStep("RESEARCH", func() error {
		searchResults := router.groundedSearch(ctx, plan.Questions)
		resp, err := router.chatJSON(ctx, researchFindingsPrompt(plan.Questions, searchResults), 0.3, 768)
		if err != nil {
			return err
		}
		return parseJSON(resp.Content, &findings)
	})
	if !ok {
		return
	}

	var proposed fullLLMClassification
	ok = timeStep("CLASSIFY", func() error {
		resp, err := router.chatJSON(ctx, researchClassifyPrompt(p, findings.Findings), 0.2, 512)
		if err != nil {
			return err
		}
		return parseJSON(resp.Content, &proposed)
	})
	if !ok {
		return
	}

	var verification researchVerification
	ok = timeStep("VERIFY", func() error {
		searchResults := router.groundedSearch(ctx, []string{proposed.Context})
		resp, err := router.chatJSON(ctx, researchVerifyPrompt(proposed, searchResults), 0.2, 512)
		if err != nil {
			return err
		}
		return parseJSON(resp.Content, &verification)
	})
	if !ok {
		return
	}

	if !verification.Confirmed {
		router.logger.Info("research_agent verification did not confirm proposed classification, keeping rules result")
		p.Metadata.Error = "verification_unconfirmed"
		return
	}

	p.Metadata.LLMUsed = true
	p.Metadata.LLMMode = string(ModeResearchAgent)
	p.Area.PrimaryType = verification.PrimaryType
	p.Area.Context = verification.Context
	p.Area.Confidence = verification.Confidence
	p.Area.ClassificationDetail = "RESEARCH_AGENT_VERIFIED"
	p.LLMEnhancement = domain.LLMEnhancement{Used: true, Mode: string(ModeResearchAgent), Reason: verification.Rationale}
	for _, l := range latencies {
		p.Reasoning = append(p.Reasoning, stepReasoningLine(l))
	}
	p.FinalizeAliases()
}

func stepReasoningLine(l stepLatency) string {
	return l.Step + " step completed"
}

func (router *Router) chatJSON(ctx context.Context, prompt string, temperature float64, maxTokens int) (*providers.ChatResponse, error) {
	return router.provider.Chat(ctx, providers.ChatRequest{
		Messages: []providers.Message{{Role: "user", Content: prompt}},
		Options: map[string]interface{}{
			providers.OptJSONMode:   true,
			providers.OptTemperature: temperature,
			providers.OptMaxTokens:   maxTokens,
		},
	})
}

// groundedSearch runs the web-search tool (when configured) for each
// question and concatenates the results for the LLM prompt. Best-effort: a
// missing tool or a failed search just yields an empty string, letting the
// step proceed on the model's own knowledge. It also fetches the top hit's
// full page for the first question, giving the prompt one piece of source
// text to check the search snippets against rather than snippets alone.
func (router *Router) groundedSearch(ctx context.Context, queries []string) string {
	if router.webSearch == nil || len(queries) == 0 {
		return ""
	}
	var b strings.Builder
	for i, q := range queries {
		if q == "" {
			continue
		}
		result := router.webSearch.Execute(ctx, map[string]interface{}{"query": q})
		if result == nil || result.IsError {
			continue
		}
		b.WriteString(result.ForLLM)
		b.WriteString("\n")

		if i == 0 && router.webFetch != nil {
			if urls := router.webSearch.SearchURLs(ctx, q, 1); len(urls) > 0 {
				if fetched := router.webFetch.Execute(ctx, map[string]interface{}{"url": urls[0]}); fetched != nil && !fetched.IsError {
					b.WriteString(fetched.ForLLM)
					b.WriteString("\n")
				}
			}
		}
	}
	return b.String()
}
