package engine

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const extractPrompt = `From the given list, extract only the names of current, widely used technical tools, programming languages, and software (e.g., Python, AWS, Docker).
Exclude roles, industries, methodologies, and vague categories.
Be strict and critical: include only relevant and actively used technologies; skip deprecated or irrelevant terms.
Return the result as a single comma-separated list with no extra text.
If no valid items are found, dont write anything, leave it blank.
List: %s`

const roadmapPrompt = `Create a practical learning roadmap for someone who wants to become job-ready as a %s.
Start from the fundamentals and progress to the tools and skills employers currently ask for.
Structure the answer as markdown with "##" section headings and "-" bullet points.
Keep it concrete: name specific tools, not vague categories. No introduction or closing remarks.`

// LLMClient wraps the OpenAI API for skill extraction, embeddings, and
// roadmap generation. Extraction calls are rate-limited because a refresh
// run fires one call per posting.
type LLMClient struct {
	api        *openai.Client
	limiter    *rate.Limiter
	chatModel  string
	embedModel openai.EmbeddingModel
}

// NewLLMClient creates a client. rps caps extraction calls per second.
func NewLLMClient(apiKey, chatModel, embedModel string, rps float64) *LLMClient {
	if rps <= 0 {
		rps = 1
	}
	return &LLMClient{
		api:        openai.NewClient(apiKey),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		chatModel:  chatModel,
		embedModel: openai.EmbeddingModel(embedModel),
	}
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractSkills distills a posting's candidate skill text into a
// comma-separated list of real tools/languages. A blank response means the
// model found nothing relevant; callers treat it as the no-skills case.
func (c *LLMClient) ExtractSkills(ctx context.Context, candidates string) (string, error) {
	if strings.TrimSpace(candidates) == "" {
		return "", nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	Incr(MetricLLMCalls)
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: 0.2,
		MaxTokens:   150,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(extractPrompt, candidates)},
		},
	})
	if err != nil {
		Incr(MetricLLMErrors)
		return "", fmt.Errorf("extract skills: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return stripFences(resp.Choices[0].Message.Content), nil
}

// Embed returns one embedding vector per input text. Satisfies
// analytics.Embedder; the clusterer normalizes vectors itself.
func (c *LLMClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	Incr(MetricEmbeddingCalls)
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: c.embedModel,
	})
	if err != nil {
		Incr(MetricLLMErrors)
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		vec := make([]float64, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float64(f)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// Roadmap generates a markdown learning roadmap for a role.
func (c *LLMClient) Roadmap(ctx context.Context, role string) (string, error) {
	Incr(MetricLLMCalls)
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: 0.4,
		MaxTokens:   1200,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(roadmapPrompt, role)},
		},
	})
	if err != nil {
		Incr(MetricLLMErrors)
		return "", fmt.Errorf("roadmap: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("roadmap: empty response")
	}
	return stripFences(resp.Choices[0].Message.Content), nil
}
