// Package reasoning adapts hosted language models to the single call shape
// the insight pipeline needs.
package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyResponse = errors.New("reasoning service returned no content")
	ErrBlocked       = errors.New("reasoning service blocked the prompt")
)

// Request is one bounded call to the reasoning service.
// CacheableContext carries the case material shared by calls on the same
// case and is sent ahead of Prompt, the per-call instruction. It is kept
// separate so an adapter may use provider-side caching; the current
// adapters send it inline.
type Request struct {
	System           string
	CacheableContext string
	Prompt           string
	MaxOutputTokens  int
	JSON             bool
}

// Response is the text produced for a Request
type Response struct {
	Text       string
	TokensUsed int
}

// Reasoner is a stateless reasoning service
type Reasoner interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// ExtractJSON strips markdown code fences and any prose around the outermost JSON value
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end < start {
		return text[start:]
	}
	return text[start : end+1]
}

// DecodeJSON parses the JSON value in a model response into v
func DecodeJSON(text string, v any) error {
	cleaned := ExtractJSON(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}
