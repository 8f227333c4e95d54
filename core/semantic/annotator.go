package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// MaxRationaleRunes bounds the rationale kept from an annotation reply.
const MaxRationaleRunes = 400

// ErrMalformedReply is returned when an annotation reply does not have the expected shape.
var ErrMalformedReply = errors.New("malformed annotation reply")

// reply keys, in the order the prompt lists them
var replyKeys = []string{"category", "rationale", "score"}

const systemPrompt = "You classify pull requests by release risk. " +
	"Answer with a single JSON object and nothing else."

// OpenAIAnnotator asks an OpenAI-compatible chat endpoint (OpenAI, Ollama /v1, vLLM)
// for a semantic annotation.
type OpenAIAnnotator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

var _ contract.Annotator = &OpenAIAnnotator{} // Compile-time check

// NewOpenAIAnnotator builds an annotator for the given endpoint. Local servers
// ignore the key, so an empty key is replaced with a placeholder.
func NewOpenAIAnnotator(baseURL, apiKey, model string, timeout time.Duration) *OpenAIAnnotator {
	if apiKey == "" {
		apiKey = "ollama"
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	log.WithFields(log.Fields{"component": "annotator", "model": model, "url": cfg.BaseURL}).Debug("initializing annotator")
	return &OpenAIAnnotator{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

// Model returns the model name sent with every request.
func (a *OpenAIAnnotator) Model() string {
	return a.model
}

// Annotate sends one prompt and validates the reply.
func (a *OpenAIAnnotator) Annotate(ctx context.Context, req schema.AnnotationRequest) (schema.Annotation, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return schema.Annotation{}, fmt.Errorf("annotation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return schema.Annotation{}, fmt.Errorf("%w: no choices returned", ErrMalformedReply)
	}
	return ParseReply(resp.Choices[0].Message.Content)
}

// BuildPrompt renders the structured prompt for one PR.
func BuildPrompt(req schema.AnnotationRequest) string {
	var sb strings.Builder
	sb.WriteString("Pull request facts:\n")
	fmt.Fprintf(&sb, "title: %s\n", req.Title)
	fmt.Fprintf(&sb, "files changed: %d\n", req.FilesChanged)
	fmt.Fprintf(&sb, "lines added: %d\n", req.LinesAdded)
	fmt.Fprintf(&sb, "lines deleted: %d\n", req.LinesDeleted)
	fmt.Fprintf(&sb, "current risk score: %.4f\n\n", req.Score)
	sb.WriteString("Reply with a JSON object with exactly these keys:\n")
	fmt.Fprintf(&sb, "  %q: one of %s\n", replyKeys[0], categoryList())
	fmt.Fprintf(&sb, "  %q: one or two sentences on why the change is risky\n", replyKeys[1])
	fmt.Fprintf(&sb, "  %q: semantic risk between 0 and 1\n", replyKeys[2])
	return sb.String()
}

func categoryList() string {
	names := []string{
		string(schema.CategoryAPI),
		string(schema.CategoryTests),
		string(schema.CategorySecurity),
		string(schema.CategoryDependencies),
		string(schema.CategoryPerformance),
		string(schema.CategoryGeneral),
	}
	return strings.Join(names, ", ")
}

// ParseReply validates a raw reply. Text wrapped around a single JSON object is
// tolerated; the object itself must have exactly the category, rationale and
// score keys.
func ParseReply(content string) (schema.Annotation, error) {
	raw, err := extractObject(content)
	if err != nil {
		return schema.Annotation{}, err
	}
	obj := gjson.Parse(raw)

	seen := make(map[string]gjson.Result, len(replyKeys))
	count := 0
	obj.ForEach(func(key, value gjson.Result) bool {
		count++
		seen[key.String()] = value
		return true
	})
	if count != len(replyKeys) {
		return schema.Annotation{}, fmt.Errorf("%w: expected %d keys, got %d", ErrMalformedReply, len(replyKeys), count)
	}
	for _, k := range replyKeys {
		if _, ok := seen[k]; !ok {
			return schema.Annotation{}, fmt.Errorf("%w: missing key %q", ErrMalformedReply, k)
		}
	}

	category, err := parseCategory(seen["category"])
	if err != nil {
		return schema.Annotation{}, err
	}
	rationale := seen["rationale"]
	if rationale.Type != gjson.String {
		return schema.Annotation{}, fmt.Errorf("%w: rationale is not a string", ErrMalformedReply)
	}
	score, err := parseScore(seen["score"])
	if err != nil {
		return schema.Annotation{}, err
	}

	return schema.Annotation{
		Category:  category,
		Rationale: contract.TruncateText(strings.TrimSpace(rationale.String()), MaxRationaleRunes),
		Score:     score,
	}, nil
}

func extractObject(content string) (string, error) {
	content = strings.TrimSpace(content)
	if gjson.Valid(content) && gjson.Parse(content).IsObject() {
		return content, nil
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedReply)
	}
	inner := content[start : end+1]
	if !gjson.Valid(inner) || !gjson.Parse(inner).IsObject() {
		return "", fmt.Errorf("%w: invalid JSON object", ErrMalformedReply)
	}
	return inner, nil
}

func parseCategory(v gjson.Result) (schema.Category, error) {
	if v.Type != gjson.String {
		return "", fmt.Errorf("%w: category is not a string", ErrMalformedReply)
	}
	want := strings.TrimSpace(v.String())
	for c := range schema.ValidCategories {
		if strings.EqualFold(string(c), want) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrMalformedReply, want)
}

func parseScore(v gjson.Result) (float64, error) {
	var score float64
	switch v.Type {
	case gjson.Number:
		score = v.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: score %q is not a number", ErrMalformedReply, v.String())
		}
		score = f
	default:
		return 0, fmt.Errorf("%w: score is not a number", ErrMalformedReply)
	}
	if math.IsNaN(score) {
		return 0, fmt.Errorf("%w: score is NaN", ErrMalformedReply)
	}
	return min(1, max(0, score)), nil
}
