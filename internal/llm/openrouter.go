package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	batchTimeout   = 30 * time.Second
)

const systemPrompt = `You map legacy French waste-category names onto a closed list of known categories. ` +
	`Respond with ONLY a JSON object of the form {"mappings": {"<source name>": {"target_name": "<known category>", "confidence": <0-100>}}}. ` +
	`target_name MUST be copied verbatim from known_categories. Omit source names you cannot map. No prose.`

// OpenRouterMapper talks to an OpenAI-compatible chat/completions endpoint in
// JSON mode. It holds no connection state and is safe for reuse across runs.
type OpenRouterMapper struct {
	apiKey  string
	model   string
	baseURL string
	client  *openai.Client
	log     *logrus.Logger
}

func NewOpenRouterMapper(apiKey, model, baseURL string, log *logrus.Logger) *OpenRouterMapper {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OpenRouterMapper{
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

func (m *OpenRouterMapper) ProviderName() string { return "openrouter" }

// SetModel overrides the configured model for retry runs.
func (m *OpenRouterMapper) SetModel(model string) { m.model = strings.TrimSpace(model) }

// SuggestMappings sends one batched JSON-mode request. It skips the call
// entirely when no key or model is configured, or when unmapped is empty.
func (m *OpenRouterMapper) SuggestMappings(ctx context.Context, unmapped, knownCategories []string) (map[string]Suggestion, error) {
	if len(unmapped) == 0 {
		return map[string]Suggestion{}, nil
	}
	if m.apiKey == "" || m.model == "" {
		m.log.Debug("llm: no api key or model configured, skipping batch")
		return map[string]Suggestion{}, nil
	}
	if m.client == nil {
		cfg := openai.DefaultConfig(m.apiKey)
		cfg.BaseURL = m.baseURL
		m.client = openai.NewClientWithConfig(cfg)
	}

	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	payload, err := json.Marshal(mappingRequest{
		KnownCategories:    knownCategories,
		UnmappedCategories: unmapped,
	})
	if err != nil {
		return map[string]Suggestion{}, fmt.Errorf("llm: marshal request: %w", err)
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		m.log.WithError(err).WithField("batch_size", len(unmapped)).Warn("llm: chat completion failed")
		return map[string]Suggestion{}, fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return map[string]Suggestion{}, fmt.Errorf("llm: response has no choices")
	}

	out, err := parseMappings(resp.Choices[0].Message.Content)
	if err != nil {
		m.log.WithError(err).Warn("llm: unparseable response content")
		return map[string]Suggestion{}, err
	}
	m.log.WithFields(logrus.Fields{
		"batch_size": len(unmapped),
		"mapped":     len(out),
		"model":      m.model,
	}).Info("llm: batch resolved")
	return out, nil
}

// parseMappings decodes the model content, tolerating either a structured
// JSON object or a double-encoded JSON string. Entries with an empty target
// are discarded and confidences are clamped into [0,100].
func parseMappings(content string) (map[string]Suggestion, error) {
	raw := strings.TrimSpace(content)
	var wrapped mappingResponse
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		var nested string
		if err2 := json.Unmarshal([]byte(raw), &nested); err2 != nil {
			return nil, fmt.Errorf("llm: parse content: %w", err)
		}
		if err2 := json.Unmarshal([]byte(nested), &wrapped); err2 != nil {
			return nil, fmt.Errorf("llm: parse nested content: %w", err2)
		}
	}
	out := make(map[string]Suggestion, len(wrapped.Mappings))
	for source, s := range wrapped.Mappings {
		if strings.TrimSpace(s.TargetName) == "" {
			continue
		}
		s.Confidence = ClampConfidence(s.Confidence)
		out[source] = s
	}
	return out, nil
}
