// BYZRA ⸻ internal/update/update.go
// latest-release check against the GitHub API

package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const DefaultAPIBase = "https://api.github.com"

// ErrInvalidRepository is returned when the repository is neither owner/name nor a github.com url
var ErrInvalidRepository = errors.New("invalid repository")

// Info is the outcome of one check
type Info struct {
	UpdateAvailable bool   `json:"update_available" yaml:"update_available"`
	CurrentVersion  string `json:"current_version" yaml:"current_version"`
	LatestVersion   string `json:"latest_version" yaml:"latest_version"`
	ReleaseNotes    string `json:"release_notes,omitempty" yaml:"release_notes,omitempty"`
	ReleaseURL      string `json:"release_url,omitempty" yaml:"release_url,omitempty"`
}

// Checker asks the release feed once and remembers the answer, errors included
type Checker struct {
	APIBase string
	owner   string
	repo    string
	current string

	httpClient *http.Client

	once sync.Once
	info *Info
	err  error
}

func NewChecker(repository, currentVersion string, timeout time.Duration) (*Checker, error) {
	owner, repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Checker{
		APIBase: DefaultAPIBase,
		owner:   owner,
		repo:    repo,
		current: strings.TrimPrefix(currentVersion, "v"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// ParseRepository accepts "owner/name" or "https://github.com/owner/name"
func ParseRepository(repository string) (string, string, error) {
	s := strings.TrimSpace(repository)
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || !strings.EqualFold(u.Hostname(), "github.com") {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidRepository, repository)
		}
		s = u.Path
	}
	s = strings.TrimSuffix(strings.Trim(s, "/"), ".git")
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepository, repository)
	}
	return parts[0], parts[1], nil
}

func (c *Checker) endpoint() string {
	return fmt.Sprintf("%s/repos/%s/%s/releases/latest",
		strings.TrimSuffix(c.APIBase, "/"), url.PathEscape(c.owner), url.PathEscape(c.repo))
}

// Check performs the request on first use; later calls return the cached result.
// there are no retries
func (c *Checker) Check(ctx context.Context) (*Info, error) {
	c.once.Do(func() {
		c.info, c.err = c.fetch(ctx)
	})
	return c.info, c.err
}

func (c *Checker) fetch(ctx context.Context) (*Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("release feed returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var release struct {
		TagName string `json:"tag_name"`
		Body    string `json:"body"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}

	latest := strings.TrimPrefix(strings.TrimSpace(release.TagName), "v")
	if latest == "" {
		return nil, fmt.Errorf("could not get version from release")
	}

	return &Info{
		UpdateAvailable: CompareVersions(latest, c.current) > 0,
		CurrentVersion:  c.current,
		LatestVersion:   latest,
		ReleaseNotes:    release.Body,
		ReleaseURL:      release.HTMLURL,
	}, nil
}

// ParseVersion splits "1.2.3" into numbers. Anything unparsable is 0.0.0
func ParseVersion(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return []int{0, 0, 0}
		}
		out[i] = n
	}
	return out
}

// CompareVersions returns -1, 0 or 1. The shorter version is padded with zeros
func CompareVersions(a, b string) int {
	va, vb := ParseVersion(a), ParseVersion(b)
	for i := 0; i < max(len(va), len(vb)); i++ {
		var x, y int
		if i < len(va) {
			x = va[i]
		}
		if i < len(vb) {
			y = vb[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}
