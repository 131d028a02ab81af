// Package gemini implements the integration with Google's Gemini API used
// for text completion and image description.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/dsoares/relaybot/internal/config"
)

// ErrEmptyCompletion is returned when the model produced no usable text.
var ErrEmptyCompletion = errors.New("gemini returned empty completion")

// Client defines the AI operations used throughout the application.
type Client interface {
	// Complete sends a single-turn text prompt and returns the generated text.
	Complete(ctx context.Context, prompt string) (string, error)

	// DescribeImage sends the image bytes together with a fixed description
	// instruction and returns the generated description.
	DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error)
}

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
}

// NewClient creates a new Gemini client with the provided configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	baseCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,

		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}

	if cfg.Instruction != "" {
		baseCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: cfg.Instruction}}}
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.Model)

	return &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.Model,
	}, nil
}

func (c *sdkClient) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is empty")
	}

	c.log.DebugContext(ctx, "Generating completion", "prompt_len", len(prompt))

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini completion failed", "error", err)
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	return c.extractText(ctx, resp, "completion")
}

func (c *sdkClient) DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	if len(data) == 0 || mimeType == "" {
		return "", fmt.Errorf("image data and MIME type are required")
	}

	c.log.DebugContext(ctx, "Generating image description", "image_size", len(data), "mime_type", mimeType)

	parts := []*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(DescribeImageInstruction),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini image description failed", "error", err)
		return "", fmt.Errorf("gemini image description failed: %w", err)
	}

	return c.extractText(ctx, resp, "image description")
}

func (c *sdkClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse, op string) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "operation", op, "reason", reasonMsg)
		return "", fmt.Errorf("%s blocked by safety filter: %s", op, reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "operation", op, "finish_reason", finishReason)
		return "", fmt.Errorf("%s (finish reason %s): %w", op, finishReason, ErrEmptyCompletion)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		c.log.WarnContext(ctx, "Gemini response text is empty", "operation", op)
		return "", fmt.Errorf("%s: %w", op, ErrEmptyCompletion)
	}

	return text, nil
}
