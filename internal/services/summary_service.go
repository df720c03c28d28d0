package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/supercur/supercur-api/internal/client/completion"
	"github.com/supercur/supercur-api/internal/client/github"
	"github.com/supercur/supercur-api/internal/logger"
)

const (
	// maxReadmeChars bounds the prompt size; READMEs beyond this add
	// little signal and a lot of token cost.
	maxReadmeChars = 12000

	// maxSummaryChars bounds the summary field in degraded responses,
	// where the model's raw prose stands in for the structured summary.
	maxSummaryChars = 1000
)

// Valid cool-fact categories. Anything else degrades to "technical".
const (
	CategoryTechnical   = "technical"
	CategoryStatistics  = "statistics"
	CategoryCommunity   = "community"
	CategoryIntegration = "integration"
	CategoryDevelopment = "development"
)

// codeFencePattern matches a fenced block (```json ... ``` or bare
// ``` ... ```) so that models wrapping their JSON in markdown still parse.
var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// CoolFact is one notable fact about a repository.
type CoolFact struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// UnmarshalJSON accepts either the structured object form or a bare
// string, which older prompt revisions produced. A string becomes the
// description with a derived title.
func (f *CoolFact) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		f.Title = deriveFactTitle(plain)
		f.Description = plain
		f.Category = CategoryTechnical
		return nil
	}

	type coolFactAlias CoolFact
	var alias coolFactAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*f = CoolFact(alias)
	if !validCategory(f.Category) {
		f.Category = CategoryTechnical
	}
	return nil
}

func validCategory(c string) bool {
	switch c {
	case CategoryTechnical, CategoryStatistics, CategoryCommunity, CategoryIntegration, CategoryDevelopment:
		return true
	}
	return false
}

// deriveFactTitle takes the first few words of a bare-string fact.
func deriveFactTitle(fact string) string {
	words := strings.Fields(fact)
	if len(words) > 6 {
		words = words[:6]
	}
	title := strings.Join(words, " ")
	title = strings.TrimRight(title, ".,;:")
	if title == "" {
		title = "Notable fact"
	}
	return title
}

// Summary is the generated description of a repository.
type Summary struct {
	Summary   string     `json:"summary"`
	CoolFacts []CoolFact `json:"cool_facts"`
}

// RepositoryInfo is the repository metadata echoed back alongside a
// summary. It is the response contract, decoupled from the upstream
// GitHub field names.
type RepositoryInfo struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	URL         string   `json:"url"`
	Stars       int      `json:"stars"`
	Language    *string  `json:"language"`
	Topics      []string `json:"topics"`
	LastUpdated string   `json:"lastUpdated"`
}

func repositoryInfo(repo *github.Repository) *RepositoryInfo {
	topics := repo.Topics
	if topics == nil {
		topics = []string{}
	}
	return &RepositoryInfo{
		Name:        repo.Name,
		Description: repo.Description,
		URL:         repo.HTMLURL,
		Stars:       repo.StargazersCount,
		Language:    repo.Language,
		Topics:      topics,
		LastUpdated: repo.UpdatedAt,
	}
}

// SummaryResult pairs the generated summary with the repository metadata
// it was generated from.
type SummaryResult struct {
	Repository *RepositoryInfo `json:"repository"`
	Summary    string          `json:"summary"`
	CoolFacts  []CoolFact      `json:"cool_facts"`
}

// SummaryService turns fetched repository content into a structured
// summary via the completion backend.
type SummaryService struct {
	github     *github.Client
	completion completion.Client
}

// NewSummaryService creates a new SummaryService.
func NewSummaryService(gh *github.Client, comp completion.Client) *SummaryService {
	return &SummaryService{
		github:     gh,
		completion: comp,
	}
}

// Summarize fetches the repository at repoURL and generates its summary.
// Fetch and generation failures surface as apierror values; a response
// the model refuses to structure degrades gracefully instead of failing.
func (s *SummaryService) Summarize(ctx context.Context, repoURL string) (*SummaryResult, error) {
	repo, err := github.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	content, err := s.github.Fetch(ctx, repo)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(content.Repository, content.Readme)
	raw, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	summary := parseSummary(raw)
	return &SummaryResult{
		Repository: repositoryInfo(content.Repository),
		Summary:    summary.Summary,
		CoolFacts:  summary.CoolFacts,
	}, nil
}

// buildPrompt assembles the model input from repository metadata and the
// README. Missing metadata gets explicit placeholders so the model does
// not hallucinate values for absent fields.
func buildPrompt(repo *github.Repository, readme string) string {
	description := "No description provided"
	if repo.Description != nil && *repo.Description != "" {
		description = *repo.Description
	}
	language := "Unknown"
	if repo.Language != nil && *repo.Language != "" {
		language = *repo.Language
	}
	topics := "None"
	if len(repo.Topics) > 0 {
		topics = strings.Join(repo.Topics, ", ")
	}
	if len(readme) > maxReadmeChars {
		readme = readme[:maxReadmeChars]
	}
	if strings.TrimSpace(readme) == "" {
		readme = "No README available"
	}

	var b strings.Builder
	b.WriteString("Summarize this GitHub repository based on its metadata and README.\n\n")
	fmt.Fprintf(&b, "Repository: %s\n", repo.FullName)
	fmt.Fprintf(&b, "Description: %s\n", description)
	fmt.Fprintf(&b, "Primary language: %s\n", language)
	fmt.Fprintf(&b, "Stars: %d\n", repo.StargazersCount)
	fmt.Fprintf(&b, "Topics: %s\n\n", topics)
	fmt.Fprintf(&b, "README:\n%s\n\n", readme)
	b.WriteString("Respond with JSON only, no markdown, in exactly this shape:\n")
	b.WriteString(`{"summary": "<concise paragraph describing what the repository does and who it is for>", "cool_facts": [{"title": "<short headline>", "description": "<one or two sentences>", "category": "<one of: technical, statistics, community, integration, development>"}]}`)
	b.WriteString("\nInclude 3 to 5 cool_facts.")
	return b.String()
}

// parseSummary recovers a Summary from model output. It tries a fenced
// JSON block first, then the raw text as JSON, and finally degrades to
// wrapping the prose in the summary field with no facts. Summarization
// never fails on output shape alone.
func parseSummary(raw string) Summary {
	// A fence match is only a hint; valid JSON whose string values
	// happen to contain ``` still parses on the second attempt.
	if m := codeFencePattern.FindStringSubmatch(raw); m != nil {
		if summary, ok := tryParseSummary(m[1]); ok {
			return summary
		}
	}
	if summary, ok := tryParseSummary(raw); ok {
		return summary
	}

	logger.Warn("completion output is not valid summary JSON, degrading to raw text",
		zap.Int("output_len", len(raw)),
	)
	text := strings.TrimSpace(codeFencePattern.ReplaceAllString(raw, "$1"))
	if len(text) > maxSummaryChars {
		text = text[:maxSummaryChars]
	}
	return Summary{Summary: text, CoolFacts: []CoolFact{}}
}

func tryParseSummary(candidate string) (Summary, bool) {
	var summary Summary
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &summary); err != nil || summary.Summary == "" {
		return Summary{}, false
	}
	if summary.CoolFacts == nil {
		summary.CoolFacts = []CoolFact{}
	}
	return summary, true
}
