package citecheck

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"

	"github.com/ppiankov/factgate/internal/model"
)

const linkMaxRetries = 3

// linkSleep is the sleep function used between retries (injectable for tests)
var linkSleep = time.Sleep

// LinkChecker optionally verifies that evidence URLs are still reachable.
// Results are warnings only: a dead link never blocks publication by
// itself, it feeds the validator's warning list.
type LinkChecker struct {
	httpClient *http.Client
	robots     *RobotsChecker
	maxWorkers int
	userAgent  string
}

// NewLinkChecker creates a link checker from configuration.
func NewLinkChecker(cfg model.LinkCheckConfig) *LinkChecker {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	return &LinkChecker{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:     NewRobotsChecker(cfg.UserAgent, timeout),
		maxWorkers: maxWorkers,
		userAgent:  cfg.UserAgent,
	}
}

// Check probes all evidence URLs concurrently and returns one warning per
// unreachable item.
func (lc *LinkChecker) Check(ctx context.Context, evidence []model.EvidenceItem) []string {
	if len(evidence) == 0 {
		return nil
	}

	warnings := make([]string, len(evidence))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, lc.maxWorkers)

	for i, ev := range evidence {
		wg.Add(1)
		go func(idx int, e model.EvidenceItem) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			warnings[idx] = lc.checkSingle(ctx, e)
		}(i, ev)
	}
	wg.Wait()

	var out []string
	for _, w := range warnings {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// checkSingle probes one URL with bounded retries. Returns an empty
// string when the link is fine.
func (lc *LinkChecker) checkSingle(ctx context.Context, ev model.EvidenceItem) string {
	if _, err := url.Parse(ev.URL); err != nil || ev.URL == "" {
		return fmt.Sprintf("evidence %s has an unparseable URL", ev.ID)
	}

	if !lc.robots.IsAllowed(ctx, ev.URL) {
		// Robots disallow is not a dead link; skip silently.
		return ""
	}

	var lastErr error
	for attempt := 0; attempt < linkMaxRetries; attempt++ {
		if attempt > 0 {
			linkSleep(time.Duration(attempt) * 500 * time.Millisecond)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodHead, ev.URL, nil)
		if err != nil {
			return fmt.Sprintf("evidence %s: %v", ev.ID, err)
		}
		req.Header.Set("User-Agent", lc.userAgent)

		resp, err := lc.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 400 {
			return ""
		}
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			return fmt.Sprintf("evidence %s link is dead (%d): %s", ev.ID, resp.StatusCode, ev.URL)
		}
		lastErr = fmt.Errorf("status %d", resp.StatusCode)
	}

	return fmt.Sprintf("evidence %s link is unreachable: %v", ev.ID, lastErr)
}

// RobotsChecker checks robots.txt compliance before link probes, caching
// per-host robots data with a TTL.
type RobotsChecker struct {
	cache      *gocache.Cache
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a robots.txt checker.
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		cache:      gocache.New(30*time.Minute, 10*time.Minute),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// IsAllowed reports whether the URL may be fetched per robots.txt. When
// robots.txt itself cannot be fetched, fetching is allowed by default.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	data, err := r.getRobotsData(ctx, parsed.Scheme, parsed.Host)
	if err != nil {
		return true
	}

	return data.TestAgent(parsed.Path, r.userAgent)
}

func (r *RobotsChecker) getRobotsData(ctx context.Context, scheme, host string) (*robotstxt.RobotsData, error) {
	if cached, found := r.cache.Get(host); found {
		return cached.(*robotstxt.RobotsData), nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.cache.SetDefault(host, data)
	return data, nil
}
