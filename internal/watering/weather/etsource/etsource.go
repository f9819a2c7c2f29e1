// Package etsource is the HTML-scraped fallback ET/rain source, used
// when the primary feed has no reading for a day. It mirrors the
// teacher's crawler-as-fallback-to-cache pattern: an injectable
// HTTPClient, a bounded retry loop with exponential backoff, and
// goquery-based parsing of a public weather page.
package etsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://search.naver.com/search.naver"
	defaultTimeout = 10 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
)

// HTTPClient is the interface Source depends on, substitutable with a
// fake in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Reading is a single day's scraped ET/rain estimate.
type Reading struct {
	ETCm   float64
	RainCm float64
}

// Source scrapes a public weather page for an approximate daily ET
// and rainfall figure when the configured primary weather feed is
// unavailable for a given day.
type Source struct {
	client  HTTPClient
	baseURL string
	logger  *zap.Logger
	retries int
}

// New builds a Source against a real HTTP client.
func New(logger *zap.Logger) *Source {
	return &Source{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: defaultBaseURL,
		logger:  logger,
		retries: maxRetries,
	}
}

// NewWithClient builds a Source against a caller-supplied client and
// base URL, used by tests to point at a local fixture server.
func NewWithClient(client HTTPClient, baseURL string, logger *zap.Logger) *Source {
	return &Source{client: client, baseURL: baseURL, logger: logger, retries: maxRetries}
}

// Fetch scrapes today's approximate ET/rain reading for region, with
// exponential backoff across failed attempts.
func (s *Source) Fetch(ctx context.Context, region string) (Reading, error) {
	if region == "" {
		return Reading{}, fmt.Errorf("region cannot be empty")
	}

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= s.retries; attempt++ {
		select {
		case <-ctx.Done():
			return Reading{}, ctx.Err()
		default:
		}

		reading, err := s.fetchOnce(ctx, region)
		if err == nil {
			return reading, nil
		}

		lastErr = err
		s.logger.Warn("et/rain fetch attempt failed",
			zap.String("region", region), zap.Int("attempt", attempt), zap.Error(err))

		if attempt < s.retries {
			select {
			case <-ctx.Done():
				return Reading{}, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}

	return Reading{}, fmt.Errorf("et/rain fetch failed after %d attempts: %w", s.retries, lastErr)
}

func (s *Source) fetchOnce(ctx context.Context, region string) (Reading, error) {
	params := url.Values{}
	params.Add("query", fmt.Sprintf("weather %s", region))
	endpoint := fmt.Sprintf("%s?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Reading{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; irrigo-etsource/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return Reading{}, fmt.Errorf("failed to fetch weather page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Reading{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reading{}, fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return Reading{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return parseReading(doc)
}

// parseReading extracts precipitation and a rough ET proxy
// (temperature-derived) from the page. The selectors mirror the
// teacher crawler's info-list scraping approach.
func parseReading(doc *goquery.Document) (Reading, error) {
	var tempStr, precipStr string

	tempSelectors := []string{".temperature_text strong", ".temperature_text", ".temperature .num"}
	for _, sel := range tempSelectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			tempStr = t
			break
		}
	}

	doc.Find(".info_list .sort").Each(func(_ int, sel *goquery.Selection) {
		label := strings.TrimSpace(sel.Find(".term").Text())
		value := strings.TrimSpace(sel.Find(".desc").Text())
		if strings.Contains(label, "precipitation") || strings.Contains(label, "강수") {
			precipStr = value
		}
	})

	if tempStr == "" {
		return Reading{}, fmt.Errorf("failed to extract temperature from page")
	}

	temp, err := parseNumericValue(tempStr)
	if err != nil {
		return Reading{}, fmt.Errorf("failed to parse temperature %q: %w", tempStr, err)
	}

	var rainMm float64
	if precipStr != "" {
		rainMm, _ = parseNumericValue(precipStr)
	}

	// Crude Hargreaves-style proxy: ET rises with temperature, expressed
	// directly in cm/day rather than modeling solar radiation, since
	// this source only backstops days the primary feed is missing.
	etCm := temp * 0.02
	if etCm < 0 {
		etCm = 0
	}

	return Reading{ETCm: etCm, RainCm: rainMm / 10.0}, nil
}

func parseNumericValue(value string) (float64, error) {
	var sign float64 = 1
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "-") {
		sign = -1
		trimmed = trimmed[1:]
	}

	var digits strings.Builder
	seenDot := false
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			continue
		}
		if r == '.' && !seenDot {
			seenDot = true
			digits.WriteRune(r)
			continue
		}
		if digits.Len() > 0 {
			break
		}
	}

	if digits.Len() == 0 {
		return 0, fmt.Errorf("no numeric value found in %q", value)
	}

	f, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil {
		return 0, err
	}
	return sign * f, nil
}
