package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
)

// MaxSuggestions caps Suggest output.
const MaxSuggestions = 10

// MaxSuggestQueryLength bounds the suggestion prefix.
const MaxSuggestQueryLength = 100

// Suggestion is a query completion.
type Suggestion struct {
	Text     string
	Type     string // trend, search, whitespace
	Category string // industry, technology
}

var suggestIndustries = []string{
	"ai and machine learning", "fintech", "healthcare", "ecommerce",
	"gaming", "education", "productivity", "security", "iot",
}

var suggestTechnologies = []string{
	"artificial intelligence", "blockchain", "cloud computing",
	"mobile apps", "web development", "data analytics",
}

// Suggest matches q against the industry and technology vocabularies.
func Suggest(q string) ([]Suggestion, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil, domain.InvalidRequestf("q is required")
	}
	if len([]rune(q)) > MaxSuggestQueryLength {
		return nil, domain.InvalidRequestf("q too long (max %d chars)", MaxSuggestQueryLength)
	}

	out := make([]Suggestion, 0, MaxSuggestions)
	for _, industry := range suggestIndustries {
		if strings.Contains(industry, q) {
			out = append(out,
				Suggestion{Text: industry + " trends", Type: "trend", Category: "industry"},
				Suggestion{Text: industry + " startups", Type: "search", Category: "industry"},
			)
		}
	}
	for _, tech := range suggestTechnologies {
		if strings.Contains(tech, q) {
			out = append(out, Suggestion{Text: tech + " opportunities", Type: "whitespace", Category: "technology"})
		}
	}

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out, nil
}

// Facet is one filter value with its indexed document count.
type Facet struct {
	Value string
	Label string
	Count int
}

// Facets lists the filter values available to a workspace.
type Facets struct {
	Sources      []Facet
	Industries   []Facet
	Technologies []Facet
}

var facetLabels = map[string]string{
	"product_hunt":  "Product Hunt",
	"github":        "GitHub",
	"rss":           "RSS/News",
	"crunchbase":    "Crunchbase",
	"google_trends": "Google Trends",
	"software":      "Software",
	"ai_ml":         "AI/ML",
	"fintech":       "FinTech",
	"healthcare":    "Healthcare",
	"ecommerce":     "E-commerce",
	"gaming":        "Gaming",
	"education":     "Education",
	"productivity":  "Productivity",
	"security":      "Security",
	"iot":           "IoT",
	"python":        "Python",
	"javascript":    "JavaScript",
	"react":         "React",
	"nodejs":        "Node.js",
	"aws":           "AWS",
	"docker":        "Docker",
	"kubernetes":    "Kubernetes",
}

func label(v string) string {
	if l, ok := facetLabels[v]; ok {
		return l
	}
	return v
}

// Filters counts indexed documents per known source and industry. Technologies come
// from the static vocabulary and carry no count.
func (s *Service) Filters(ctx context.Context, workspaceID uuid.UUID) (Facets, error) {
	if workspaceID == uuid.Nil {
		return Facets{}, domain.InvalidRequestf("workspace_id is required")
	}

	sources, err := s.countFacet(ctx, workspaceID, request.FieldSource, signal.Sources)
	if err != nil {
		return Facets{}, err
	}
	industries, err := s.countFacet(ctx, workspaceID, request.FieldIndustries, signal.Industries)
	if err != nil {
		return Facets{}, err
	}

	techs := make([]Facet, len(signal.Technologies))
	for i, t := range signal.Technologies {
		techs[i] = Facet{Value: t, Label: label(t)}
	}

	return Facets{Sources: sources, Industries: industries, Technologies: techs}, nil
}

func (s *Service) countFacet(ctx context.Context, workspaceID uuid.UUID, field string, values []string) ([]Facet, error) {
	ws, err := filter.NewMatch(request.FieldWorkspaceID, workspaceID.String())
	if err != nil {
		return nil, err
	}

	out := make([]Facet, 0, len(values))
	for _, v := range values {
		c, err := filter.NewMatch(field, v)
		if err != nil {
			return nil, err
		}
		expr, err := filter.All(ws, c)
		if err != nil {
			return nil, err
		}
		n, err := s.retriever.Count(ctx, expr)
		if err != nil {
			return nil, fmt.Errorf("count %s=%s: %w", field, v, err)
		}
		out = append(out, Facet{Value: v, Label: label(v), Count: n})
	}
	return out, nil
}
