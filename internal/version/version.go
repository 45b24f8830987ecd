// Package version describes the running build and checks GitHub for a
// newer release.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Repository is where scout releases are published.
const Repository = "talentscout/scout"

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 15 * time.Second

	maxBodySize = 64 * 1024
)

// Errors returned by this package.
var (
	ErrInvalidRepository = errors.New("repository must be owner/name")
	ErrReleaseLookup     = errors.New("release lookup failed")
)

var repoPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*/[A-Za-z0-9][A-Za-z0-9._-]*$`)

// BuildInfo identifies the running binary. Empty fields render as "dev"
// and "unknown".
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)",
		orDefault(b.Version, "dev"), orDefault(b.Commit, "unknown"), orDefault(b.Date, "unknown"))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Release is a published GitHub release.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
}

// Status compares the running version with the latest release.
type Status struct {
	Current         string `json:"current"`
	Latest          string `json:"latest"`
	UpdateAvailable bool   `json:"update_available"`
	URL             string `json:"url,omitempty"`
}

// Client fetches releases from the GitHub API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  fmt.Sprintf("scout (%s/%s)", runtime.GOOS, runtime.GOARCH),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestRelease returns the newest published release of repo ("owner/name").
func (c *Client) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	if !repoPattern.MatchString(repo) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepository, repo)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/repos/"+repo+"/releases/latest", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL is built from the configured API root
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReleaseLookup, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body := io.LimitReader(resp.Body, maxBodySize)
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrReleaseLookup, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var rel Release
	if err := json.NewDecoder(body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	return &rel, nil
}

// Check compares current with the latest release of repo.
func (c *Client) Check(ctx context.Context, repo, current string) (Status, error) {
	rel, err := c.LatestRelease(ctx, repo)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Current:         orDefault(current, "dev"),
		Latest:          rel.TagName,
		UpdateAvailable: Compare(rel.TagName, current) > 0,
		URL:             rel.HTMLURL,
	}, nil
}

// Compare orders two versions: 1 if a is newer, -1 if b is newer, 0 if
// equal. Development builds and bare commit hashes sort before any release.
func Compare(a, b string) int {
	pa, okA := parse(a)
	pb, okB := parse(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	for i := range pa {
		if pa[i] != pb[i] {
			if pa[i] > pb[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// parse reads major.minor.patch, ignoring a "v" prefix and any pre-release
// or build suffix. Missing parts are zero.
func parse(v string) ([3]int, bool) {
	var parts [3]int
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" || v == "dev" || isCommitHash(v) {
		return parts, false
	}
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}

	fields := strings.Split(v, ".")
	if len(fields) > len(parts) {
		return parts, false
	}
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return parts, false
		}
		parts[i] = n
	}
	return parts, true
}

// isCommitHash matches 7 to 40 hex digits with at least one letter, so
// numeric versions such as "2024010100" are not mistaken for hashes.
func isCommitHash(s string) bool {
	s = strings.TrimSuffix(s, "-dirty")
	if len(s) < 7 || len(s) > 40 {
		return false
	}
	letter := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
			letter = true
		default:
			return false
		}
	}
	return letter
}
