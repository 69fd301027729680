package ai

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/config"
)

func newTestClassifier(cfg config.AIConfig) *OpenAIClassifier {
	return NewOpenAIClassifier(cfg, zap.NewNop())
}

func enabledConfig() config.AIConfig {
	return config.AIConfig{
		ModerationEnabled:    true,
		RoutingEnabled:       true,
		SummarizationEnabled: true,
		ModerationThreshold:  0.7,
	}
}

func TestClassify_NoAPIKeyFallsBack(t *testing.T) {
	c := newTestClassifier(enabledConfig())

	result := c.Classify(context.Background(), Request{Kind: KindRouting, Subject: "laptop won't boot"})
	if !result.Degraded {
		t.Fatal("expected degraded result without API key")
	}
	if result.Label != LabelIT {
		t.Errorf("fallback routed to %s, want IT", result.Label)
	}
}

func TestClassify_DisabledStageFallsBack(t *testing.T) {
	cfg := enabledConfig()
	cfg.ModerationEnabled = false
	c := newTestClassifier(cfg)

	result := c.Classify(context.Background(), Request{Kind: KindModeration, Subject: "anything"})
	if !result.Degraded {
		t.Fatal("expected degraded result for disabled stage")
	}
	if result.Label != LabelSafe {
		t.Errorf("fail-open fallback label = %s, want safe", result.Label)
	}
}

func TestClassify_FailClosedModeration(t *testing.T) {
	cfg := enabledConfig()
	cfg.ModerationFailClosed = true
	c := newTestClassifier(cfg)

	result := c.Classify(context.Background(), Request{Kind: KindModeration, Subject: "anything"})
	if result.Label == LabelSafe {
		t.Error("fail-closed policy must not produce a safe verdict")
	}
	if !result.Degraded {
		t.Error("expected degraded result")
	}
}

func TestParse_Moderation(t *testing.T) {
	c := newTestClassifier(enabledConfig())

	result, err := c.parse(KindModeration, `{"label": "profanity", "severity": "medium", "confidence": 0.93, "reason": "explicit language"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != LabelProfanity || result.Severity != "medium" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Degraded {
		t.Error("live result must not be degraded")
	}
}

func TestParse_ModerationRejectsUnknownLabel(t *testing.T) {
	c := newTestClassifier(enabledConfig())
	if _, err := c.parse(KindModeration, `{"label": "bogus", "confidence": 0.9}`); err == nil {
		t.Fatal("expected error for unrecognized label")
	}
}

func TestParse_ModerationRejectsOutOfRangeConfidence(t *testing.T) {
	c := newTestClassifier(enabledConfig())
	if _, err := c.parse(KindModeration, `{"label": "safe", "confidence": 1.5}`); err == nil {
		t.Fatal("expected error for out-of-range confidence")
	}
}

func TestParse_RoutingNormalizesDepartment(t *testing.T) {
	c := newTestClassifier(enabledConfig())

	result, err := c.parse(KindRouting, `{"department": " hr ", "confidence": 0.8, "reason": "payroll topic"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != LabelHR {
		t.Errorf("department = %s, want HR", result.Label)
	}
}

func TestParse_RoutingRejectsUnknownDepartment(t *testing.T) {
	c := newTestClassifier(enabledConfig())
	if _, err := c.parse(KindRouting, `{"department": "FINANCE", "confidence": 0.8}`); err == nil {
		t.Fatal("expected error for unrecognized department")
	}
}

func TestParse_Summarization(t *testing.T) {
	c := newTestClassifier(enabledConfig())

	result, err := c.parse(KindSummarization, `{"issue_summary": "wifi drops", "resolution_summary": "replaced access point", "category": "network", "confidence": 0.85}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary == nil {
		t.Fatal("expected non-nil summary")
	}
	if result.Summary.Category != "network" {
		t.Errorf("category = %s, want network", result.Summary.Category)
	}
}

func TestParse_SummarizationRequiresIssueAndResolution(t *testing.T) {
	c := newTestClassifier(enabledConfig())
	if _, err := c.parse(KindSummarization, `{"issue_summary": "wifi drops", "resolution_summary": "", "category": "network"}`); err == nil {
		t.Fatal("expected error for missing resolution summary")
	}
}
