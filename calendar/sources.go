package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// FILE SOURCE
// =============================================================================

// FileSource reads an exported events.list payload. With Jobs set, items
// with unparseable timestamps that name no job are skipped (see DecodeFor).
type FileSource struct {
	Path string
	Jobs *payroll.Config
}

func (s FileSource) ListEvents(_ context.Context, from, to time.Time) ([]Event, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open calendar export: %w", err)
	}
	defer f.Close()

	var events []Event
	if s.Jobs != nil {
		events, err = DecodeFor(f, *s.Jobs)
	} else {
		events, err = Decode(f)
	}
	if err != nil {
		return nil, err
	}
	if events, err = Expand(events, from, to); err != nil {
		return nil, err
	}
	return Filter(events, from, to), nil
}

// =============================================================================
// HTTP SOURCE - Live events.list endpoint
// =============================================================================

// DefaultBaseURL is the public calendar API root.
const DefaultBaseURL = "https://www.googleapis.com/calendar/v3"

// HTTPSource lists events from the calendar API with an OAuth access token
// obtained elsewhere. Throttled (429) and 5xx pages are retried with
// exponential backoff.
type HTTPSource struct {
	BaseURL     string
	CalendarID  string // "primary" when empty
	AccessToken string
	Client      *http.Client

	// Backoff overrides the retry policy; nil means DefaultBackoff.
	Backoff func() retry.Backoff

	// Jobs, when set, skips unparseable items that name no job.
	Jobs *payroll.Config
}

// DefaultBackoff retries a page three times starting at 200ms.
func DefaultBackoff() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
}

// Query builds the events.list parameters for a month: expanded recurring
// events ordered by start time within [timeMin, timeMax).
func Query(m payroll.Month) url.Values {
	return rangeParams(m.Range())
}

func rangeParams(from, to time.Time) url.Values {
	return url.Values{
		"timeMin":      {from.UTC().Format(time.RFC3339)},
		"timeMax":      {to.UTC().Format(time.RFC3339)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
	}
}

func (s HTTPSource) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	calID := s.CalendarID
	if calID == "" {
		calID = "primary"
	}
	backoff := s.Backoff
	if backoff == nil {
		backoff = DefaultBackoff
	}

	params := rangeParams(from, to)
	endpoint := fmt.Sprintf("%s/calendars/%s/events", base, url.PathEscape(calID))

	var all []Event
	for {
		var (
			events []Event
			next   string
		)
		err := retry.Do(ctx, backoff(), func(ctx context.Context) error {
			var err error
			events, next, err = s.fetchPage(ctx, endpoint+"?"+params.Encode())
			return err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, events...)

		if next == "" {
			return all, nil
		}
		params.Set("pageToken", next)
	}
}

func (s HTTPSource) fetchPage(ctx context.Context, pageURL string) ([]Event, string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build calendar request: %w", err)
	}
	if s.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", retry.RetryableError(fmt.Errorf("list calendar events: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var relevant func(string) bool
		if s.Jobs != nil {
			relevant = s.Jobs.Matches
		}
		return decodePage(resp.Body, relevant)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, "", retry.RetryableError(fmt.Errorf("list calendar events: unexpected status %s", resp.Status))
	default:
		return nil, "", fmt.Errorf("list calendar events: unexpected status %s", resp.Status)
	}
}
