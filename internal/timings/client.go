// Package timings resolves a geographic coordinate to the day's prayer
// timestamps, timezone, and calendar context via the AlAdhan HTTP API.
//
// Outbound calls are rate limited with a token bucket so a large
// subscriber set cannot hammer the upstream service. Callers cache the
// result per subscriber and re-resolve on a coarse interval.
package timings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/athanhub/athan-notify/internal/prayer"
)

// Sentinel errors callers branch on with errors.Is. A sampling pass
// skips the subscriber on either and retries on a later pass.
var (
	// ErrUpstreamUnavailable: the provider is unreachable or returned
	// a non-success status.
	ErrUpstreamUnavailable = errors.New("timings provider unavailable")
	// ErrMalformedResponse: the provider answered but the payload is
	// missing expected fields.
	ErrMalformedResponse = errors.New("malformed timings response")
)

// DateLayout is the civil date format the provider reports and the store
// caches ("DD-MM-YYYY"). The engine compares it against today in the
// subscriber's zone to detect stale caches after midnight.
const DateLayout = "02-01-2006"

// Day is the resolved prayer data for one coordinate on one local day.
type Day struct {
	Times      map[prayer.Kind]prayer.Clock
	Timezone   string // IANA zone name
	Date       string // civil date in the zone, DateLayout form
	HijriMonth int
	Weekday    time.Weekday
}

// Client is the AlAdhan HTTP client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	method     int // calculation method id
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a rate-limited AlAdhan client. method selects the
// calculation convention (4 = Umm al-Qura).
func NewClient(baseURL string, method, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		method:     method,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// response mirrors the subset of the AlAdhan /v1/timings payload we use.
type response struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type responseData struct {
	Timings map[string]string `json:"timings"`
	Date    struct {
		Gregorian struct {
			Date    string `json:"date"`
			Weekday struct {
				En string `json:"en"`
			} `json:"weekday"`
		} `json:"gregorian"`
		Hijri struct {
			Month struct {
				Number int `json:"number"`
			} `json:"month"`
		} `json:"hijri"`
	} `json:"date"`
	Meta struct {
		Timezone string `json:"timezone"`
	} `json:"meta"`
}

// Resolve fetches the day's timings for a coordinate.
func (c *Client) Resolve(ctx context.Context, lat, lon float64) (*Day, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("method", strconv.Itoa(c.method))
	u := c.baseURL + "/timings?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstreamUnavailable, resp.StatusCode, truncate(body, 200))
	}

	var envelope response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrMalformedResponse, err)
	}
	if envelope.Code != http.StatusOK {
		return nil, fmt.Errorf("%w: provider code %d (%s)", ErrUpstreamUnavailable, envelope.Code, envelope.Status)
	}

	var data responseData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: decode data: %v", ErrMalformedResponse, err)
	}

	return buildDay(data)
}

// buildDay validates the decoded payload and converts it to a Day.
func buildDay(data responseData) (*Day, error) {
	times := make(map[prayer.Kind]prayer.Clock, len(prayer.Kinds))
	for _, k := range prayer.Kinds {
		raw, ok := data.Timings[string(k)]
		if !ok {
			return nil, fmt.Errorf("%w: missing timing %s", ErrMalformedResponse, k)
		}
		// Some responses append the zone abbreviation: "05:12 (EET)".
		raw, _, _ = strings.Cut(raw, " ")
		clock, err := prayer.ParseClock(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: timing %s: %v", ErrMalformedResponse, k, err)
		}
		times[k] = clock
	}

	if data.Meta.Timezone == "" {
		return nil, fmt.Errorf("%w: missing timezone", ErrMalformedResponse)
	}
	if _, err := time.LoadLocation(data.Meta.Timezone); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrMalformedResponse, data.Meta.Timezone)
	}

	date := data.Date.Gregorian.Date
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: civil date %q: %v", ErrMalformedResponse, date, err)
	}

	weekday, err := parseWeekday(data.Date.Gregorian.Weekday.En)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &Day{
		Times:      times,
		Timezone:   data.Meta.Timezone,
		Date:       date,
		HijriMonth: data.Date.Hijri.Month.Number,
		Weekday:    weekday,
	}, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
