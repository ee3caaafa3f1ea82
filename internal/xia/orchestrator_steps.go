package xia

import (
	"strconv"
	"strings"

	"github.com/fazal-lab/xia/internal/domain"
)

// step1PlaceholderCleanup strips placeholder values from strings, filters,
// excludes, and campaign-context fields Call-1 returned (spec §4.12 step 1).
func (o *Orchestrator) step1PlaceholderCleanup(out *Call1Output) {
	if isPlaceholder(out.AdCategory) {
		out.AdCategory = ""
	}
	if isPlaceholder(out.ProductCategory) {
		out.ProductCategory = ""
	}
	if isPlaceholder(string(out.BrandObjective)) {
		out.BrandObjective = ""
	}
	if isPlaceholder(out.TargetAudience) {
		out.TargetAudience = ""
	}
	if isPlaceholder(out.TextSearch) {
		out.TextSearch = ""
	}
	if isPlaceholder(out.QuestionToAsk) {
		out.QuestionToAsk = ""
	}
	out.Filters = cleanPlaceholderMap(out.Filters)
	out.Exclude = cleanPlaceholderMap(out.Exclude)
}

func cleanPlaceholderMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	for k, v := range m {
		if s, ok := v.(string); ok && isPlaceholder(s) {
			delete(m, k)
		}
	}
	return m
}

// step2Revert restores active_filters from previous_filters and discards
// any new filter operations Call-1 proposed this turn (spec §4.12 step 2).
func (o *Orchestrator) step2Revert(session *domain.ChatSession, out *Call1Output) {
	if out.Intent != domain.IntentRevert {
		return
	}
	if session.PreviousFilters == nil {
		// StateConflict: a revert with no snapshot clears filters instead.
		session.ActiveFilters = map[string]any{}
	} else {
		session.ActiveFilters = session.PreviousFilters
	}
	out.Filters = map[string]any{}
	out.RemoveFilters = nil
}

// step3ShowAllSafetyNet forces remove_filters=["__all__"] whenever Call-1
// classified the turn as show_all, regardless of what it actually returned
// (spec §4.12 step 3).
func (o *Orchestrator) step3ShowAllSafetyNet(out *Call1Output) {
	if out.Intent == domain.IntentShowAll {
		out.RemoveFilters = []string{"__all__"}
	}
}

// step4FilterRemoval clears all active filters on "__all__" or pops the
// named keys, snapshotting the pre-change state into previous_filters
// (spec §4.12 step 4).
func (o *Orchestrator) step4FilterRemoval(session *domain.ChatSession, out *Call1Output) {
	if len(out.RemoveFilters) == 0 {
		return
	}
	snapshot := make(map[string]any, len(session.ActiveFilters))
	for k, v := range session.ActiveFilters {
		snapshot[k] = v
	}
	session.PreviousFilters = snapshot

	for _, key := range out.RemoveFilters {
		if key == "__all__" {
			session.ActiveFilters = map[string]any{}
			return
		}
		delete(session.ActiveFilters, key)
	}
}

// step5NonGatewayCity moves a spec_city filter value that isn't already a
// gateway location into a pending gateway-location-add edit rather than
// storing it as a filter (spec §4.12 step 5).
func (o *Orchestrator) step5NonGatewayCity(session *domain.ChatSession, out *Call1Output) {
	v, ok := out.Filters["spec_city"]
	if !ok {
		return
	}
	city, ok := v.(string)
	if !ok || city == "" {
		return
	}
	if containsFold(session.Gateway.Locations, city) {
		return
	}
	delete(out.Filters, "spec_city")
	out.GatewayEdits.GatewayLocationAdd = appendUnique(out.GatewayEdits.GatewayLocationAdd, city)
	out.GatewayEditPending = true
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	if containsFold(list, v) {
		return list
	}
	return append(list, v)
}

// step6EnumValidity drops any enum filter value absent from the live
// distinct-value set the Filter Menu reported (spec §4.12 step 6).
func (o *Orchestrator) step6EnumValidity(menu Menu, out *Call1Output) {
	for field, allowed := range menu.EnumFields {
		v, ok := out.Filters[field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if !containsFold(allowed, s) {
			delete(out.Filters, field)
		}
	}
}

// step7BudgetInterceptor reclassifies a base_price_per_slot_inr filter by
// inspecting the raw message for budget vs. price keywords (spec §4.12
// step 7).
func (o *Orchestrator) step7BudgetInterceptor(session *domain.ChatSession, message string, out *Call1Output) {
	v, ok := out.Filters["base_price_per_slot_inr"]
	if !ok {
		return
	}
	lower := strings.ToLower(message)
	hasBudgetKw := containsAny(lower, o.rules.BudgetKeywords)
	hasPriceKw := containsAny(lower, o.rules.PriceKeywords)

	switch {
	case hasBudgetKw && !hasPriceKw:
		delete(out.Filters, "base_price_per_slot_inr")
		out.GatewayEdits.GatewayBudgetRange = budgetValueString(v)
		out.GatewayEditPending = true
	case hasPriceKw:
		// keep the filter as-is
	default:
		delete(out.Filters, "base_price_per_slot_inr")
		out.Intent = domain.IntentNeedsMoreInfo
		out.QuestionToAsk = "Is that your overall campaign budget, or the price you want to pay per slot?"
	}
}

func budgetValueString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case domain.NumericFilter:
		return strconv.FormatFloat(t.Value, 'f', -1, 64)
	default:
		return ""
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// step8FilterStacking merges validated new filters into active_filters
// without replacing the whole set; spec_city is never stored (spec §4.12
// step 8, step 5 handled it already).
func (o *Orchestrator) step8FilterStacking(session *domain.ChatSession, out *Call1Output) {
	delete(out.Filters, "spec_city")
	if session.ActiveFilters == nil {
		session.ActiveFilters = map[string]any{}
	}
	for k, v := range out.Filters {
		session.ActiveFilters[k] = v
	}
}

// step9GatewayEditStateMachine reconciles a previously pending gateway edit
// against this turn's message, or stores a freshly proposed one (spec
// §4.12 step 9).
func (o *Orchestrator) step9GatewayEditStateMachine(session *domain.ChatSession, message string, out *Call1Output) {
	lower := strings.ToLower(message)

	if session.PendingGatewayEdits != nil {
		if containsAny(lower, o.rules.RejectionSignals) || out.Intent == domain.IntentStartOver {
			session.PendingGatewayEdits = nil
			return
		}
		applyGatewayEdit(&session.Gateway, *session.PendingGatewayEdits)
		session.PendingGatewayEdits = nil
		out.Intent = domain.IntentScreenSearch
		return
	}

	if out.GatewayEdits.Empty() {
		return
	}
	edits := out.GatewayEdits
	var redundant []string
	for _, c := range edits.GatewayLocationAdd {
		if !containsFold(session.Gateway.Locations, c) {
			redundant = append(redundant, c)
		}
	}
	edits.GatewayLocationAdd = redundant
	if edits.Empty() {
		return
	}
	session.PendingGatewayEdits = &edits
}

func applyGatewayEdit(g *domain.Gateway, edits domain.GatewayEdits) {
	for _, c := range edits.GatewayLocationAdd {
		if !containsFold(g.Locations, c) {
			g.Locations = append(g.Locations, c)
		}
	}
	if len(edits.GatewayLocation) > 0 {
		g.Locations = edits.GatewayLocation
	}
	if edits.GatewayStartDate != "" {
		g.StartDate = edits.GatewayStartDate
	}
	if edits.GatewayEndDate != "" {
		g.EndDate = edits.GatewayEndDate
	}
	if edits.GatewayBudgetRange != "" {
		g.BudgetRange = edits.GatewayBudgetRange
	}
}

var skipRankingSet = map[domain.Intent]bool{
	domain.IntentGatewayEditPending: true,
	domain.IntentGreeting:           true,
	domain.IntentClarification:      true,
	domain.IntentStartOver:          true,
	domain.IntentNeedsMoreInfo:      true,
}

var suppressScreensSet = map[domain.Intent]bool{
	domain.IntentGatewayEditPending: true,
	domain.IntentGreeting:           true,
	domain.IntentStartOver:          true,
}

// step10PipelineFlags computes skip_ranking and suppress_screens from the
// final intent (spec §4.12 step 10).
func (o *Orchestrator) step10PipelineFlags(intent domain.Intent) (skipRanking, suppressScreens bool) {
	return skipRankingSet[intent], suppressScreensSet[intent]
}

// step11CampaignContext accumulates non-placeholder campaign-context
// fields and flips discovery_complete once the three core topics are set,
// suppressing any leftover question (spec §4.12 step 11).
func (o *Orchestrator) step11CampaignContext(session *domain.ChatSession, out *Call1Output) {
	if out.AdCategory != "" {
		session.CampaignContext.AdCategory = out.AdCategory
	}
	if out.ProductCategory != "" {
		session.CampaignContext.ProductCategory = out.ProductCategory
	}
	if out.BrandObjective != "" {
		session.CampaignContext.BrandObjective = out.BrandObjective
	}
	if out.TargetAudience != "" {
		session.CampaignContext.TargetAudience = out.TargetAudience
	}
	if session.CampaignContext.CoreTopicsComplete() {
		session.DiscoveryComplete = true
		out.QuestionToAsk = ""
	}
}

// step12PersonaAntiFlicker implements the sticky-first-detection persona
// rule: same persona boosts confidence, a different one only switches on a
// strong signal (spec §4.12 step 12).
func (o *Orchestrator) step12PersonaAntiFlicker(session *domain.ChatSession, out Call1Output) {
	if out.DetectedPersona == "" {
		return
	}
	if session.Persona == "" {
		session.Persona = out.DetectedPersona
		session.PersonaConfidence = out.PersonaConfidence
		return
	}
	if session.Persona == out.DetectedPersona {
		session.PersonaConfidence = minFloat(1.0, session.PersonaConfidence+0.05)
		return
	}
	if out.PersonaConfidence-session.PersonaConfidence >= 0.20 || out.PersonaConfidence >= 0.80 {
		session.Persona = out.DetectedPersona
		session.PersonaConfidence = out.PersonaConfidence
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// step13QuestionThrottle tracks normalized question strings and skips a
// question asked twice already, promoting the next pending question
// instead (spec §4.12 step 13).
func (o *Orchestrator) step13QuestionThrottle(session *domain.ChatSession, question string, pending []string) string {
	if session.QuestionAttempts == nil {
		session.QuestionAttempts = map[string]int{}
	}
	if question == "" {
		return ""
	}
	key := strings.ToLower(strings.TrimSpace(question))
	if session.QuestionAttempts[key] < questionAttemptCap {
		session.QuestionAttempts[key]++
		session.PendingQuestions = pending
		return question
	}

	for i, q := range pending {
		k2 := strings.ToLower(strings.TrimSpace(q))
		if session.QuestionAttempts[k2] < questionAttemptCap {
			session.QuestionAttempts[k2]++
			session.PendingQuestions = append(append([]string{}, pending[:i]...), pending[i+1:]...)
			return q
		}
	}
	session.PendingQuestions = nil
	return ""
}

// step14StartOver clears filters, campaign context, discovery progress,
// pending edits, pending questions and the attempt counter (spec §4.12
// step 14).
func (o *Orchestrator) step14StartOver(session *domain.ChatSession) {
	session.ActiveFilters = map[string]any{}
	session.PreviousFilters = map[string]any{}
	session.CampaignContext = domain.CampaignContext{}
	session.DiscoveryComplete = false
	session.PendingGatewayEdits = nil
	session.PendingQuestions = nil
	session.QuestionAttempts = map[string]int{}
}
