package collaborators

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

const defaultGenAIModel = "gemini-2.0-flash"

// contentModel is the part of genai.Models the generator calls.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIGenerator writes blog posts with Gemini.
type GenAIGenerator struct {
	client *genai.Client
	models contentModel
	model  string
}

func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = defaultGenAIModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client, models: client.Models, model: model}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, brief domain.ContentBrief) (domain.GeneratedContent, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(brief)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		if ctx.Err() != nil {
			return domain.GeneratedContent{}, err
		}
		return domain.GeneratedContent{}, fmt.Errorf("%w: genai generate: %v", domain.ErrDependencyUnavailable, err)
	}
	return parseGenerated(resp.Text(), brief), nil
}

func (g *GenAIGenerator) Name() string {
	return "genai:" + g.model
}

func buildPrompt(brief domain.ContentBrief) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %s %d of %d for the marketing campaign %q (profile %s).\n",
		brief.ContentType, brief.Sequence, brief.Total, brief.CampaignName, brief.ProfileID)
	if brief.Strategy.Summary != "" {
		fmt.Fprintf(&b, "Content strategy: %s\n", brief.Strategy.Summary)
	}
	if len(brief.Strategy.Themes) > 0 {
		fmt.Fprintf(&b, "Themes: %s\n", strings.Join(brief.Strategy.Themes, ", "))
	}
	if brief.Landscape.Summary != "" {
		fmt.Fprintf(&b, "Market landscape: %s\n", brief.Landscape.Summary)
	}
	b.WriteString(`Respond with JSON only: {"title": string, "content": string, "wordCount": number, "metaDescription": string}`)
	return b.String()
}

// parseGenerated accepts the requested JSON shape, optionally wrapped in a
// markdown fence, and otherwise keeps the raw text as the body.
func parseGenerated(text string, brief domain.ContentBrief) domain.GeneratedContent {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var out domain.GeneratedContent
	if err := json.Unmarshal([]byte(trimmed), &out); err == nil && out.Content != "" {
		if out.Title == "" {
			out.Title = fallbackTitle(brief)
		}
		if out.WordCount <= 0 {
			out.WordCount = len(strings.Fields(out.Content))
		}
		return out
	}
	return domain.GeneratedContent{
		Title:     fallbackTitle(brief),
		Content:   strings.TrimSpace(text),
		WordCount: len(strings.Fields(text)),
	}
}

func fallbackTitle(brief domain.ContentBrief) string {
	return fmt.Sprintf("%s part %d", brief.CampaignName, brief.Sequence)
}

var _ ports.ContentGenerator = (*GenAIGenerator)(nil)
