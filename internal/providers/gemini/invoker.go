// Package gemini is the direct-Gemini transform backend, used when no
// agent platform is configured. The model reply is adapted into the
// same loose envelope shape the extractor normalizes, so the rest of
// the pipeline does not care which backend produced it.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"brandify/internal/agent"
	"brandify/internal/transform"
)

const defaultModel = "gemini-2.5-flash"

// Store reads staged asset bytes by storage key.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// Invoker sends the transform instruction plus the staged image to
// Gemini and wraps the reply in an agent.Envelope.
type Invoker struct {
	client *genai.Client
	model  string
	store  Store
	logger zerolog.Logger
}

func NewInvoker(ctx context.Context, apiKey, model string, store Store, logger zerolog.Logger) (*Invoker, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: API key is missing")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &Invoker{client: client, model: model, store: store, logger: logger}, nil
}

func (v *Invoker) Invoke(ctx context.Context, message, agentID string, opts transform.InvokeOptions) (agent.Envelope, error) {
	parts := make([]*genai.Part, 0, len(opts.Assets)+1)
	for _, key := range opts.Assets {
		data, err := v.store.Read(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("gemini: read staged asset: %w", err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: mimeForKey(key), Data: data},
		})
	}
	parts = append(parts, &genai.Part{Text: message})
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := v.client.Models.GenerateContent(ctx, v.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return agent.Envelope{
			"success": false,
			"error":   "gemini returned an empty response",
		}, nil
	}
	v.logger.Debug().Str("model", v.model).Int("response_length", len(text)).
		Msg("gemini: received model response")
	return agent.Envelope{
		"success":  true,
		"response": map[string]any{"message": text},
	}, nil
}

func mimeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

var _ transform.Invoker = (*Invoker)(nil)
