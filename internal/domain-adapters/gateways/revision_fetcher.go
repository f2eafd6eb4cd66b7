package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultGitHubAPI = "https://api.github.com"

// RevisionFetcher asks the GitHub API for the head commit of the origin branch
type RevisionFetcher struct {
	httpClient *http.Client
	apiBase    string
	repository string
	branch     string
	userAgent  string
}

// NewRevisionFetcher creates a revision source for repository (owner/name) at branch
func NewRevisionFetcher(repository, branch, userAgent string) *RevisionFetcher {
	return &RevisionFetcher{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiBase:    defaultGitHubAPI,
		repository: repository,
		branch:     branch,
		userAgent:  userAgent,
	}
}

// WithAPIBase points the fetcher at another API endpoint
func (rf *RevisionFetcher) WithAPIBase(base string) *RevisionFetcher {
	rf.apiBase = strings.TrimRight(base, "/")
	return rf
}

// githubCommit is the subset of the commits API response we read
type githubCommit struct {
	SHA string `json:"sha"`
}

// LatestRevision returns the commit SHA the branch currently points at
func (rf *RevisionFetcher) LatestRevision(ctx context.Context) (string, error) {
	if rf.repository == "" {
		return "", fmt.Errorf("origin repository not configured")
	}
	url := fmt.Sprintf("%s/repos/%s/commits/%s", rf.apiBase, rf.repository, rf.branch)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if rf.userAgent != "" {
		req.Header.Set("User-Agent", rf.userAgent)
	}

	// Add GitHub token if available (required for higher rate limits)
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := doWithRetry(ctx, rf.httpClient, req)
	if err != nil {
		return "", fmt.Errorf("GitHub API request failed: %w", err)
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return "", fmt.Errorf("GitHub API error %d (failed to read response)", resp.StatusCode)
		}
		return "", fmt.Errorf("GitHub API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var commit githubCommit
	if err := json.NewDecoder(resp.Body).Decode(&commit); err != nil {
		return "", fmt.Errorf("failed to parse GitHub response: %w", err)
	}
	if commit.SHA == "" {
		return "", fmt.Errorf("GitHub response has no commit SHA")
	}

	return commit.SHA, nil
}
