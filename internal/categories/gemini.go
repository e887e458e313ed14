package categories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/finance-audit/internal/domain"
)

// DefaultModelName is the Gemini model used for category suggestions.
const DefaultModelName = "gemini-2.5-flash"

// contentGenerator is the part of genai.Models the suggester uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiSuggester asks Gemini to classify a description into one of the
// taxonomy's categories.
type GeminiSuggester struct {
	models contentGenerator
	model  string
	// names maps each category to its subcategories.
	names  map[string][]string
	prompt string
}

// NewGeminiSuggester creates a genai client from the environment and returns
// a suggester constrained to the taxonomy's categories.
func NewGeminiSuggester(ctx context.Context, model string, taxonomy *Taxonomy) (*GeminiSuggester, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiSuggester: create genai client: %w", err)
	}
	return newGeminiSuggester(client.Models, model, taxonomy)
}

func newGeminiSuggester(models contentGenerator, model string, taxonomy *Taxonomy) (*GeminiSuggester, error) {
	names := taxonomy.Names()
	prompt, err := buildCategoriesPrompt(names)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiSuggester: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiSuggester{models: models, model: model, names: names, prompt: prompt}, nil
}

// Suggest implements Suggester.
func (s *GeminiSuggester) Suggest(ctx context.Context, description string) (domain.Category, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: s.prompt + "\nDescription: " + description + "\n"},
			},
		},
	}

	resp, err := s.models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return domain.Category{}, fmt.Errorf("Suggest: generate content: %w", err)
	}
	rawText := resp.Text()
	if rawText == "" {
		return domain.Category{}, fmt.Errorf("Suggest: empty response from model")
	}

	var parsed struct {
		Category    string `json:"category"`
		Subcategory string `json:"subcategory"`
		Zone        string `json:"zone"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return domain.Category{}, fmt.Errorf("Suggest: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	subs, ok := s.names[parsed.Category]
	if !ok {
		return domain.Category{}, fmt.Errorf("Suggest: model returned unknown category %q", parsed.Category)
	}
	if parsed.Subcategory != "" && !contains(subs, parsed.Subcategory) {
		parsed.Subcategory = ""
	}
	return domain.Category{
		Name:        parsed.Category,
		Subcategory: parsed.Subcategory,
		Zone:        parsed.Zone,
	}, nil
}

// buildCategoriesPrompt lists the taxonomy's categories and subcategories
// for the model, in a stable order.
func buildCategoriesPrompt(names map[string][]string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("buildCategoriesPrompt: taxonomy has no categories")
	}
	cats := make([]string, 0, len(names))
	for c := range names {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var b strings.Builder
	b.WriteString("You classify Colombian credit card transaction descriptions.\n\n")
	b.WriteString("Use ONLY the following Categories and Subcategories:\n\n")
	for _, cat := range cats {
		b.WriteString(cat + ":\n")
		subs := names[cat]
		if len(subs) == 0 {
			b.WriteString("  (no subcategories - use empty string \"\")\n\n")
			continue
		}
		for _, s := range subs {
			b.WriteString("  - " + s + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Rules:\n")
	b.WriteString("1. Category must be EXACTLY one of the category names shown above (case-sensitive).\n")
	b.WriteString("2. Subcategory must be one listed under the chosen category, or \"\".\n")
	b.WriteString("3. Zone is \"Nacional\" or \"Internacional\" when the description makes it clear, else \"\".\n\n")
	b.WriteString("Return ONLY a raw JSON object with keys \"category\", \"subcategory\" and \"zone\".\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	return b.String(), nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
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

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
