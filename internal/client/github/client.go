// Package github is the REST integration with the GitHub API used by the
// repository summarizer. It resolves repository URLs, and fetches
// repository metadata and README content.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/supercur/supercur-api/internal/apierror"
	"github.com/supercur/supercur-api/internal/client/httpclient"
)

const defaultBaseURL = "https://api.github.com"

// Repo identifies a repository by owner and name.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// Repository is the subset of GitHub repository metadata the summarizer
// consumes. Field names follow the GitHub REST v3 payload.
type Repository struct {
	Name            string   `json:"name"`
	FullName        string   `json:"full_name"`
	Description     *string  `json:"description"`
	HTMLURL         string   `json:"html_url"`
	StargazersCount int      `json:"stargazers_count"`
	Language        *string  `json:"language"`
	Topics          []string `json:"topics"`
	UpdatedAt       string   `json:"updated_at"`
}

type readmeResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// ParseRepoURL resolves a repository URL to owner/name. Anything that is
// not an https://github.com/<owner>/<repo>[/...] URL is rejected without
// touching the network.
func ParseRepoURL(raw string) (Repo, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return Repo{}, apierror.Wrap(apierror.KindMalformedRepoURL, "Invalid GitHub URL", err)
	}

	host := strings.ToLower(parsed.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return Repo{}, apierror.New(apierror.KindMalformedRepoURL, "URL host must be github.com")
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, apierror.New(apierror.KindMalformedRepoURL, "GitHub URL must include owner and repository")
	}

	return Repo{Owner: parts[0], Name: strings.TrimSuffix(parts[1], ".git")}, nil
}

// Client talks to the GitHub REST API.
type Client struct {
	http *httpclient.Client
}

// Option modifies a Client during construction.
type Option func(*clientConfig)

type clientConfig struct {
	baseURL string
	token   string
}

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(cfg *clientConfig) {
		cfg.baseURL = baseURL
	}
}

// WithToken sets a bearer token for authenticated requests, which raises
// GitHub's rate limits. Empty means anonymous access.
func WithToken(token string) Option {
	return func(cfg *clientConfig) {
		cfg.token = token
	}
}

// NewClient creates a GitHub API client.
func NewClient(options ...Option) *Client {
	cfg := &clientConfig{baseURL: defaultBaseURL}
	for _, option := range options {
		option(cfg)
	}

	clientOptions := []httpclient.ClientOption{
		httpclient.WithBaseURL(cfg.baseURL),
		httpclient.WithHeader("Accept", "application/vnd.github.v3+json"),
		httpclient.WithHeader("User-Agent", "supercur-api"),
	}
	if cfg.token != "" {
		clientOptions = append(clientOptions, httpclient.WithHeader("Authorization", "Bearer "+cfg.token))
	}

	return &Client{http: httpclient.New(clientOptions...)}
}

// GetRepository fetches repository metadata.
func (c *Client) GetRepository(ctx context.Context, repo Repo) (*Repository, error) {
	var repository Repository
	path := fmt.Sprintf("/repos/%s/%s", repo.Owner, repo.Name)
	if err := c.http.GetJSON(ctx, path, &repository); err != nil {
		return nil, classifyFetchError(err, "Failed to fetch repository data")
	}
	return &repository, nil
}

// GetReadme fetches and decodes the repository README.
func (c *Client) GetReadme(ctx context.Context, repo Repo) (string, error) {
	var readme readmeResponse
	path := fmt.Sprintf("/repos/%s/%s/readme", repo.Owner, repo.Name)
	if err := c.http.GetJSON(ctx, path, &readme); err != nil {
		return "", classifyReadmeError(err)
	}

	if readme.Encoding != "base64" {
		return readme.Content, nil
	}

	// GitHub wraps base64 content at 60 columns.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(readme.Content, "\n", ""))
	if err != nil {
		return "", apierror.Wrap(apierror.KindUpstreamFetchFailed, "Failed to decode README content",
			pkgerrors.Wrap(err, "readme base64 decode"))
	}
	return string(decoded), nil
}

// RepoContent bundles the two independent fetches the summarizer needs.
type RepoContent struct {
	Repository *Repository
	Readme     string
}

// Fetch retrieves metadata and README concurrently. Both must succeed.
func (c *Client) Fetch(ctx context.Context, repo Repo) (*RepoContent, error) {
	content := &RepoContent{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		repository, err := c.GetRepository(gctx, repo)
		if err != nil {
			return err
		}
		content.Repository = repository
		return nil
	})
	g.Go(func() error {
		readme, err := c.GetReadme(gctx, repo)
		if err != nil {
			return err
		}
		content.Readme = readme
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return content, nil
}

// classifyFetchError maps transport failures onto the error taxonomy,
// carrying the upstream status code when one exists.
func classifyFetchError(err error, message string) error {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return apierror.UpstreamFetch(httpErr.StatusCode, fmt.Sprintf("%s: status %d", message, httpErr.StatusCode))
	}
	return apierror.Wrap(apierror.KindUpstreamFetchFailed, message, err)
}

// classifyReadmeError treats a repository whose README cannot be fetched
// as a bad summarization target: the caller gets a 400, not the upstream
// status. Transport failures without a status stay upstream errors.
func classifyReadmeError(err error) error {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return apierror.New(apierror.KindMalformedRepoURL, "Repository README could not be fetched")
	}
	return apierror.Wrap(apierror.KindUpstreamFetchFailed, "Failed to fetch README", err)
}
