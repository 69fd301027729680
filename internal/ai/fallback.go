package ai

import "strings"

// Keyword vocabularies for the routing fallback. Scoring is a plain
// overlap count; ties and zero matches go to IT. That default is
// arbitrary, not a confidence judgment.
var (
	itKeywords = []string{
		"computer", "laptop", "desktop", "monitor", "screen", "keyboard",
		"mouse", "printer", "password", "login", "email", "network",
		"wifi", "internet", "vpn", "software", "hardware", "install",
		"update", "server", "boot", "crash", "virus", "slow", "error",
		"access", "account locked", "reset",
	}
	hrKeywords = []string{
		"payroll", "salary", "paycheck", "benefits", "insurance", "leave",
		"vacation", "pto", "sick", "holiday", "onboarding", "offboarding",
		"resignation", "contract", "policy", "harassment", "complaint",
		"manager", "performance", "review", "training", "recruitment",
		"hiring", "timesheet", "overtime",
	}
)

// FallbackModeration produces the degraded moderation verdict. failClosed
// selects the reject-on-unavailable policy; the default is fail-open.
func FallbackModeration(failClosed bool, reason string) Result {
	if failClosed {
		return Result{
			Kind:       KindModeration,
			Label:      LabelInappropriate,
			Severity:   "low",
			Confidence: 1,
			Rationale:  "moderation classifier unavailable, fail-closed policy: " + reason,
			Degraded:   true,
		}
	}
	return Result{
		Kind:       KindModeration,
		Label:      LabelSafe,
		Confidence: 0,
		Rationale:  "moderation classifier unavailable, fail-open policy: " + reason,
		Degraded:   true,
	}
}

// FallbackRouting scores keyword overlap against the IT and HR
// vocabularies. Deterministic: ties and zero matches resolve to IT.
func FallbackRouting(subject string) Result {
	text := strings.ToLower(subject)
	itScore := keywordScore(text, itKeywords)
	hrScore := keywordScore(text, hrKeywords)

	label := LabelIT
	if hrScore > itScore {
		label = LabelHR
	}
	confidence := 0.0
	if itScore+hrScore > 0 {
		confidence = float64(max(itScore, hrScore)) / float64(itScore+hrScore)
	}
	return Result{
		Kind:       KindRouting,
		Label:      label,
		Confidence: confidence,
		Rationale:  "keyword fallback routing",
		Degraded:   true,
	}
}

// FallbackSummarization yields a nil summary, which downstream must treat
// as "skip ingestion for this ticket".
func FallbackSummarization(reason string) Result {
	return Result{
		Kind:      KindSummarization,
		Rationale: "summarization unavailable: " + reason,
		Degraded:  true,
		Summary:   nil,
	}
}

func keywordScore(text string, vocabulary []string) int {
	score := 0
	for _, kw := range vocabulary {
		if strings.Contains(text, kw) {
			score++
		}
	}
	return score
}
