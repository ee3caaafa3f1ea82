package xia

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fazal-lab/xia/internal/discover"
	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/providers"
)

// rankingBatchSize is the max number of screens sent to a single Ranking
// Call invocation (spec §4.10).
const rankingBatchSize = 15

// skipRankingIntents are the intents for which Call-2 never runs even with
// >=2 discovered screens (spec §4.10).
var skipRankingIntents = map[domain.Intent]bool{
	domain.IntentGreeting:      true,
	domain.IntentClarification: true,
	domain.IntentNeedsMoreInfo: true,
	domain.IntentRevert:        true,
	domain.IntentStartOver:     true,
}

// Score is the per-screen rubric Call-2 produces: five weighted components
// summing to at most 100, plus a one-line rationale.
type Score struct {
	ScreenID     string `json:"screen_id"`
	Total        int    `json:"total"`
	AreaMatch    int    `json:"area_match"`
	AudienceFit  int    `json:"audience_fit"`
	ScreenQuality int   `json:"screen_quality"`
	ContextBonus int    `json:"context_bonus"`
	Eligibility  int    `json:"eligibility"`
	Summary      string `json:"summary"`
}

// RankedScreen pairs a discovered screen result with its score.
type RankedScreen struct {
	discover.ScreenResult
	Score Score `json:"score"`
}

type Ranking struct {
	provider providers.Provider
}

func NewRanking(p providers.Provider) *Ranking {
	return &Ranking{provider: p}
}

// Run ranks the discovered screens against the campaign context. A single
// screen bypasses the LLM entirely with a fixed score of 100 (spec §4.10:
// "nothing to rank between one candidate"). Batches of up to
// rankingBatchSize are independently scored; a batch that fails scores 0
// for every screen in it with an error summary, and the pipeline continues
// with the remaining batches rather than aborting the turn.
func (r *Ranking) Run(ctx context.Context, intent domain.Intent, campaign domain.CampaignContext, persona domain.Persona, screens []discover.ScreenResult) ([]RankedScreen, CallMeta) {
	meta := CallMeta{Call: "call2"}

	if skipRankingIntents[intent] || len(screens) == 0 {
		return passthroughRank(screens, 0), meta
	}
	if len(screens) == 1 {
		return passthroughRank(screens, 100), meta
	}
	if r.provider == nil {
		meta.Fallback = true
		meta.Error = "no_provider_configured"
		return passthroughRank(screens, 50), meta
	}

	var all []RankedScreen
	var prompts []string
	for start := 0; start < len(screens); start += rankingBatchSize {
		end := start + rankingBatchSize
		if end > len(screens) {
			end = len(screens)
		}
		batch := screens[start:end]
		prompt := rankingPrompt(campaign, persona, batch)
		prompts = append(prompts, prompt)

		resp, err := r.provider.Chat(ctx, providers.ChatRequest{
			Messages: []providers.Message{{Role: "user", Content: prompt}},
			Options: map[string]interface{}{
				providers.OptJSONMode:    true,
				providers.OptTemperature: 0.2,
				providers.OptMaxTokens:   2048,
			},
		})
		if err != nil {
			all = append(all, failedBatchScores(batch, err.Error())...)
			continue
		}

		var out struct {
			Scores []Score `json:"scores"`
		}
		if err := parseJSONStrict(resp.Content, &out); err != nil {
			all = append(all, failedBatchScores(batch, "parse_failure: "+err.Error())...)
			continue
		}
		all = append(all, attachScores(batch, out.Scores)...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Score.Total > all[j].Score.Total })
	meta.SystemPrompt = strings.Join(prompts, "\n---\n")
	return all, meta
}

func passthroughRank(screens []discover.ScreenResult, score int) []RankedScreen {
	out := make([]RankedScreen, 0, len(screens))
	for _, s := range screens {
		out = append(out, RankedScreen{ScreenResult: s, Score: Score{ScreenID: s.Screen.ID, Total: score}})
	}
	return out
}

func failedBatchScores(batch []discover.ScreenResult, reason string) []RankedScreen {
	out := make([]RankedScreen, 0, len(batch))
	for _, s := range batch {
		out = append(out, RankedScreen{
			ScreenResult: s,
			Score:        Score{ScreenID: s.Screen.ID, Total: 0, Summary: "ranking unavailable: " + reason},
		})
	}
	return out
}

func attachScores(batch []discover.ScreenResult, scores []Score) []RankedScreen {
	byID := make(map[string]Score, len(scores))
	for _, sc := range scores {
		byID[sc.ScreenID] = sc
	}
	out := make([]RankedScreen, 0, len(batch))
	for _, s := range batch {
		sc, ok := byID[s.Screen.ID]
		if !ok {
			sc = Score{ScreenID: s.Screen.ID, Total: 0, Summary: "not scored by ranking call"}
		}
		out = append(out, RankedScreen{ScreenResult: s, Score: sc})
	}
	return out
}

// rankingPrompt composes a compact feature description per screen (speak
// phrases, never raw place counts — spec §4.10) plus the campaign context
// and strict output schema.
func rankingPrompt(campaign domain.CampaignContext, persona domain.Persona, batch []discover.ScreenResult) string {
	var b strings.Builder
	b.WriteString("Score each screen below for fit against the campaign. Respond with strict JSON only: {\"scores\": [{\"screen_id\": string, \"total\": int, \"area_match\": int(<=30), \"audience_fit\": int(<=25), \"screen_quality\": int(<=20), \"context_bonus\": int(<=15), \"eligibility\": int(<=10), \"summary\": string}]}\n\n")
	fmt.Fprintf(&b, "Campaign: category=%s, objective=%s, audience=%s, persona=%s\n\n", campaign.AdCategory, campaign.BrandObjective, campaign.TargetAudience, persona)

	b.WriteString("Screens:\n")
	for _, s := range batch {
		speak := speakPhrase(s)
		fmt.Fprintf(&b, "- id=%s | %s | %s | available=%v\n", s.Screen.ID, s.Screen.Name, speak, s.IsAvailable)
	}
	return b.String()
}

// speakPhrase renders a screen's area context as a short natural-language
// phrase for the ranking prompt, never the raw place/group counts (spec
// §4.10: features are "compact, speak-phrase").
func speakPhrase(s discover.ScreenResult) string {
	p := s.Screen.Profile
	return fmt.Sprintf("%s area near %s, %s dwell, %s movement", p.Area.PrimaryType, p.GeoContext.City, p.DwellCategory, p.Movement.Type)
}
