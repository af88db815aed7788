package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

// GeminiReasoner calls Gemini through the generative-ai-go client
type GeminiReasoner struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewGeminiReasoner creates a reasoner over an initialized genai client
func NewGeminiReasoner(client *genai.Client, model string, temperature float32, logger *zap.Logger) *GeminiReasoner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiReasoner{
		client:      client,
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

// Invoke sends the request as one GenerateContent call
func (g *GeminiReasoner) Invoke(ctx context.Context, req Request) (*Response, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxOutputTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	parts := make([]genai.Part, 0, 2)
	if req.CacheableContext != "" {
		parts = append(parts, genai.Text(req.CacheableContext))
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return nil, fmt.Errorf("%w: %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
		g.logger.Warn("candidate finished early", zap.String("finish_reason", candidate.FinishReason.String()))
	}

	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, ErrEmptyResponse
	}

	out := &Response{Text: text.String()}
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}
