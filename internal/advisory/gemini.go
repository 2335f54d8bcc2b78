package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model used for advisory text.
const DefaultModelName = "gemini-2.5-flash"

// ContentGenerator is the subset of the genai Models service used here.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator asks a Gemini model for advisory tips.
type GeminiGenerator struct {
	models ContentGenerator
	model  string
}

// NewGeminiClient creates a genai client configured from the environment
// (GOOGLE_API_KEY or Vertex AI settings).
func NewGeminiClient(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClient: create genai client: %w", err)
	}
	return client, nil
}

// NewGeminiGenerator creates a generator on top of models, usually client.Models.
func NewGeminiGenerator(models ContentGenerator, model string) *GeminiGenerator {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiGenerator{models: models, model: model}
}

// GenerateTips implements Generator.
func (g *GeminiGenerator) GenerateTips(ctx context.Context, req Request) (Response, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildTipsPrompt(req)}},
		},
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return Response{}, fmt.Errorf("GenerateTips: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return Response{}, fmt.Errorf("GenerateTips: %w: empty response from model", ErrMalformed)
	}

	var out Response
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &out); err != nil {
		return Response{}, fmt.Errorf("GenerateTips: %w: %v", ErrMalformed, err)
	}
	return out, nil
}

// cleanModelJSON strips Markdown fences and surrounding prose from a model
// answer, keeping the outermost JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}

var _ Generator = (*GeminiGenerator)(nil)
