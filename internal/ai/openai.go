package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/config"
)

const moderationPrompt = `You are a content moderation classifier for an internal helpdesk.
Classify the submitted text. Respond with a single JSON object:
{"label": "safe|profanity|spam|inappropriate|harassment|hate_speech",
 "severity": "low|medium|high|critical",
 "confidence": <0..1>,
 "reason": "<short explanation>"}`

const routingPrompt = `You are a ticket routing classifier for an internal helpdesk with two
departments: IT (hardware, software, accounts, network) and HR (payroll,
benefits, leave, workplace policy). Respond with a single JSON object:
{"department": "IT|HR", "confidence": <0..1>, "reason": "<short explanation>"}`

const summarizationPrompt = `You summarize resolved helpdesk tickets for a knowledge base.
Given the ticket conversation, respond with a single JSON object:
{"issue_summary": "<what the user reported>",
 "resolution_summary": "<how it was resolved>",
 "category": "<short topical category>",
 "confidence": <0..1>}`

// OpenAIClassifier calls an OpenAI-compatible chat endpoint with per-kind
// system prompts and strict JSON validation at the boundary. Any failure
// (timeout, quota, malformed output, missing credentials) resolves to the
// kind-specific deterministic fallback.
type OpenAIClassifier struct {
	client *openai.Client
	cfg    config.AIConfig
	logger *zap.Logger
}

// NewOpenAIClassifier builds the classifier. A missing API key is not an
// error: every call will simply take the fallback path.
func NewOpenAIClassifier(cfg config.AIConfig, logger *zap.Logger) *OpenAIClassifier {
	var client *openai.Client
	if cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
		client = openai.NewClientWithConfig(clientConfig)
	}
	return &OpenAIClassifier{
		client: client,
		cfg:    cfg,
		logger: logger.Named("classifier"),
	}
}

// Classify implements Classifier. It never returns an error to the caller.
func (c *OpenAIClassifier) Classify(ctx context.Context, req Request) Result {
	if !c.kindEnabled(req.Kind) {
		return c.fallback(req, "stage disabled by configuration")
	}
	if c.client == nil {
		return c.fallback(req, "no API key configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: float32(c.cfg.Temperature),
		MaxTokens:   c.cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.Kind)},
			{Role: openai.ChatMessageRoleUser, Content: req.Subject},
		},
	})
	if err != nil {
		c.logger.Warn("classifier call failed",
			zap.String("kind", string(req.Kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return c.fallback(req, err.Error())
	}
	if len(resp.Choices) == 0 {
		return c.fallback(req, "empty completion")
	}

	result, err := c.parse(req.Kind, resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Warn("classifier output rejected",
			zap.String("kind", string(req.Kind)),
			zap.Error(err))
		return c.fallback(req, err.Error())
	}

	c.logger.Debug("classifier call completed",
		zap.String("kind", string(req.Kind)),
		zap.String("label", result.Label),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("elapsed", time.Since(start)))
	return result
}

func (c *OpenAIClassifier) kindEnabled(kind Kind) bool {
	switch kind {
	case KindModeration:
		return c.cfg.ModerationEnabled
	case KindRouting:
		return c.cfg.RoutingEnabled
	case KindSummarization:
		return c.cfg.SummarizationEnabled
	default:
		return false
	}
}

func (c *OpenAIClassifier) fallback(req Request, reason string) Result {
	c.logger.Warn("degraded classification",
		zap.String("kind", string(req.Kind)),
		zap.String("reason", reason))
	switch req.Kind {
	case KindModeration:
		return FallbackModeration(c.cfg.ModerationFailClosed, reason)
	case KindRouting:
		return FallbackRouting(req.Subject)
	default:
		return FallbackSummarization(reason)
	}
}

func systemPrompt(kind Kind) string {
	switch kind {
	case KindModeration:
		return moderationPrompt
	case KindRouting:
		return routingPrompt
	default:
		return summarizationPrompt
	}
}

// parse validates provider output against the per-kind schema. Schema
// violations are provider failures, never crashes.
func (c *OpenAIClassifier) parse(kind Kind, reply string) (Result, error) {
	raw, err := extractJSON(reply)
	if err != nil {
		return Result{}, err
	}

	switch kind {
	case KindModeration:
		var out struct {
			Label      string  `json:"label"`
			Severity   string  `json:"severity"`
			Confidence float64 `json:"confidence"`
			Reason     string  `json:"reason"`
		}
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return Result{}, err
		}
		if !validModerationLabel(out.Label) {
			return Result{}, fmt.Errorf("unrecognized moderation label %q", out.Label)
		}
		if out.Confidence < 0 || out.Confidence > 1 {
			return Result{}, fmt.Errorf("confidence %v out of range", out.Confidence)
		}
		return Result{
			Kind:       KindModeration,
			Label:      out.Label,
			Severity:   out.Severity,
			Confidence: out.Confidence,
			Rationale:  out.Reason,
		}, nil

	case KindRouting:
		var out struct {
			Department string  `json:"department"`
			Confidence float64 `json:"confidence"`
			Reason     string  `json:"reason"`
		}
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return Result{}, err
		}
		dept := strings.ToUpper(strings.TrimSpace(out.Department))
		if dept != LabelIT && dept != LabelHR {
			return Result{}, fmt.Errorf("unrecognized department %q", out.Department)
		}
		if out.Confidence < 0 || out.Confidence > 1 {
			return Result{}, fmt.Errorf("confidence %v out of range", out.Confidence)
		}
		return Result{
			Kind:       KindRouting,
			Label:      dept,
			Confidence: out.Confidence,
			Rationale:  out.Reason,
		}, nil

	default:
		var out Summary
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return Result{}, err
		}
		if strings.TrimSpace(out.Issue) == "" || strings.TrimSpace(out.Resolution) == "" {
			return Result{}, fmt.Errorf("summary missing issue or resolution")
		}
		return Result{
			Kind:       KindSummarization,
			Confidence: out.Confidence,
			Summary:    &out,
		}, nil
	}
}

func validModerationLabel(label string) bool {
	switch label {
	case LabelSafe, LabelProfanity, LabelSpam, LabelInappropriate, LabelHarassment, LabelHateSpeech:
		return true
	}
	return false
}
