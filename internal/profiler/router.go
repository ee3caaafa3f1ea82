// Package profiler implements the LLM Profiler Router (spec §4.6, C6): the
// rules / hybrid / full_llm / research_agent mode switch sitting on top of
// the Ring Engine's rules-only result. Grounded on the teacher's
// internal/providers.Provider call idiom (JSON-mode, defensive parsing,
// silent fallback) and
// original_source/backend/console/screen_profiler/llm_enhancer.py.
package profiler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/providers"
	"github.com/fazal-lab/xia/internal/ringengine"
	"github.com/fazal-lab/xia/internal/rules"
	"github.com/fazal-lab/xia/internal/tools"
)

// Mode selects which refinement strategy the router applies on top of the
// rules-only ring-engine result.
type Mode string

const (
	ModeRules         Mode = "rules"
	ModeHybrid        Mode = "hybrid"
	ModeFullLLM       Mode = "full_llm"
	ModeResearchAgent Mode = "research_agent"
)

// Router wires a Ring Engine to an optional LLM provider.
type Router struct {
	ring     *ringengine.Engine
	provider providers.Provider
	rules    *rules.Rules
	logger   *slog.Logger
	webSearch *tools.WebSearchTool
	webFetch  *tools.WebFetchTool
}

func New(ring *ringengine.Engine, provider providers.Provider, r *rules.Rules, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{ring: ring, provider: provider, rules: r, logger: logger}
}

// WithTools attaches the web-search/web-fetch collaborators research_agent
// mode uses for grounded lookups.
func (router *Router) WithTools(search *tools.WebSearchTool, fetch *tools.WebFetchTool) *Router {
	router.webSearch = search
	router.webFetch = fetch
	return router
}

// Profile runs the ring engine, then applies the requested refinement mode.
// Every mode returns the same AreaProfile shape; any LLM failure (parse or
// transport) degrades silently to the rules-only result with a metadata
// marker, per spec §4.6.
func (router *Router) Profile(ctx context.Context, lat, lng float64, mode Mode) (*domain.AreaProfile, error) {
	profile, err := router.ring.Profile(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	if mode == "" {
		mode = ModeHybrid
	}

	switch mode {
	case ModeRules:
		return profile, nil
	case ModeHybrid:
		if router.shouldInvokeHybrid(profile) {
			router.applyHybridOverride(ctx, profile)
		}
		return profile, nil
	case ModeFullLLM:
		router.applyFullLLM(ctx, profile)
		return profile, nil
	case ModeResearchAgent:
		router.applyResearchAgent(ctx, profile)
		return profile, nil
	default:
		return profile, nil
	}
}

// shouldInvokeHybrid implements spec §4.6's hybrid-mode trigger conditions.
func (router *Router) shouldInvokeHybrid(p *domain.AreaProfile) bool {
	if router.provider == nil {
		return false
	}
	if p.Area.Confidence == domain.ConfidenceLow {
		return true
	}

	unique := 0
	if p.RingAnalysis.Ring2 != nil {
		unique = p.RingAnalysis.Ring2.UniqueCount
	}

	// dominance < 0.28 and within CO_DOMINANT spread of the runner-up is
	// already captured by ClassificationDetail "DIVERSE"/"CO_DOMINANT_*" at
	// low dominance, so check the ratio directly per the spec thresholds.
	if p.DominanceRatio < router.rules.ModerateBiasThreshold && strings.Contains(p.Area.ClassificationDetail, "CO_DOMINANT") {
		return true
	}
	if unique < 5 && p.DominanceRatio < router.rules.StrongBiasThreshold {
		return true
	}
	if p.Area.Confidence == domain.ConfidenceMedium && p.DominanceRatio < 0.25 && unique < 8 {
		return true
	}
	return false
}

type hybridDecision struct {
	ShouldOverride bool   `json:"should_override"`
	FinalType      string `json:"final_type"`
	Context        string `json:"context"`
	Rationale      string `json:"rationale"`
}

func (router *Router) applyHybridOverride(ctx context.Context, p *domain.AreaProfile) {
	prompt := hybridPrompt(p)
	resp, err := router.provider.Chat(ctx, providers.ChatRequest{
		Messages: []providers.Message{{Role: "user", Content: prompt}},
		Options:  map[string]interface{}{providers.OptJSONMode: true, providers.OptTemperature: 0.2, providers.OptMaxTokens: 512},
	})
	if err != nil {
		router.logger.Warn("hybrid profiler LLM call failed, keeping rules result", "error", err)
		p.Metadata.Error = err.Error()
		return
	}

	var decision hybridDecision
	if err := parseJSON(resp.Content, &decision); err != nil {
		router.logger.Warn("hybrid profiler response failed to parse, keeping rules result", "error", err)
		p.Metadata.Error = "parse_failure"
		return
	}

	p.Metadata.LLMUsed = true
	p.Metadata.LLMMode = string(ModeHybrid)
	p.LLMEnhancement = domain.LLMEnhancement{Used: true, Mode: string(ModeHybrid), Reason: decision.Rationale}

	if decision.ShouldOverride {
		p.Area.PrimaryType = domain.PlaceGroup(decision.FinalType)
		p.Area.Context = decision.Context
		p.Area.ClassificationDetail = "LLM_OVERRIDE"
		p.Reasoning = append(p.Reasoning, fmt.Sprintf("Hybrid LLM override: %s", decision.Rationale))
		p.FinalizeAliases()
	}
}

type fullLLMClassification struct {
	PrimaryType domain.PlaceGroup `json:"primary_type"`
	Context     string            `json:"context"`
	Confidence  domain.Confidence `json:"confidence"`
	Rationale   string            `json:"rationale"`
}

func (router *Router) applyFullLLM(ctx context.Context, p *domain.AreaProfile) {
	if router.provider == nil {
		return
	}

	var enriched []domain.Place
	if router.ring != nil {
		var places []domain.Place
		if p.RingAnalysis.Ring2 != nil {
			for g := range p.RingAnalysis.Ring2.GroupCounts {
				places = append(places, domain.Place{Name: string(g)})
			}
		}
		enriched = places
	}

	prompt := fullLLMPrompt(p, enriched)
	resp, err := router.provider.Chat(ctx, providers.ChatRequest{
		Messages: []providers.Message{{Role: "user", Content: prompt}},
		Options:  map[string]interface{}{providers.OptJSONMode: true, providers.OptTemperature: 0.2, providers.OptMaxTokens: 1024},
	})
	if err != nil {
		router.logger.Warn("full_llm profiler call failed, falling back to rules", "error", err)
		p.Metadata.Error = err.Error()
		return
	}

	var classification fullLLMClassification
	if err := parseJSON(resp.Content, &classification); err != nil {
		router.logger.Warn("full_llm profiler response failed to parse, falling back to rules", "error", err)
		p.Metadata.Error = "parse_failure"
		return
	}

	p.Metadata.LLMUsed = true
	p.Metadata.LLMMode = string(ModeFullLLM)
	p.LLMEnhancement = domain.LLMEnhancement{Used: true, Mode: string(ModeFullLLM), Reason: classification.Rationale}
	p.Area.PrimaryType = classification.PrimaryType
	p.Area.Context = classification.Context
	p.Area.Confidence = classification.Confidence
	p.Area.ClassificationDetail = "FULL_LLM_CLASSIFICATION"
	p.FinalizeAliases()
}

var jsonFence = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// parseJSON defensively extracts and unmarshals a JSON object from an LLM
// response, tolerating a markdown code fence around it (spec §4.6: "All LLM
// responses are parsed defensively").
func parseJSON(content string, out interface{}) error {
	trimmed := strings.TrimSpace(content)
	if m := jsonFence.FindStringSubmatch(trimmed); m != nil {
		trimmed = m[1]
	}
	return json.Unmarshal([]byte(trimmed), out)
}
