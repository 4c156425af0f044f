package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient implements Client on the Gemini API. Each StreamChat call
// creates a fresh chat session carrying the supplied history; the service
// itself keeps no conversation state.
type GeminiClient struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
	logger      *zap.Logger
}

// NewGeminiClient creates a Gemini-backed streaming client.
func NewGeminiClient(ctx context.Context, apiKey, model string, maxTokens int32, temperature float32, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}, nil
}

// StreamChat opens a chat session seeded with history and streams the
// response to message. Fragments arrive on the first channel as the model
// produces them; a send on the second channel ends the stream abnormally.
func (g *GeminiClient) StreamChat(ctx context.Context, history []Turn, message string) (<-chan string, <-chan error) {
	contentChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(contentChan)

		contents := make([]*genai.Content, 0, len(history))
		for _, t := range history {
			contents = append(contents, genai.NewContentFromText(t.Text, toGenaiRole(t.Role)))
		}

		cfg := &genai.GenerateContentConfig{
			MaxOutputTokens: g.maxTokens,
			Temperature:     genai.Ptr(g.temperature),
		}

		chat, err := g.client.Chats.Create(ctx, g.model, cfg, contents)
		if err != nil {
			errChan <- fmt.Errorf("failed to create chat session: %w", err)
			return
		}

		for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: message}) {
			if err != nil {
				errChan <- fmt.Errorf("stream error: %w", err)
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case contentChan <- text:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return contentChan, errChan
}

// toGenaiRole maps a Turn role onto the API's role type. Anything that is not
// the model speaks as the user.
func toGenaiRole(role string) genai.Role {
	if role == RoleModel {
		return genai.RoleModel
	}
	return genai.RoleUser
}

// IsRateLimited reports whether err looks like an API quota rejection.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "rate limit")
}
