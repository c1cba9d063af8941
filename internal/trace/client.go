// Package trace implements the Trace Client: a rate-limited, retrying HTTP
// client against ADS-B Exchange's per-day trace endpoint, plus the
// daily/monthly position store built on top of the Content Cache.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jorgecardleitao/private-jets-go/internal/position"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

// MaxRetries is the maximum number of attempts on a transient provider
// failure, per spec.md §4.3/§7.
const MaxRetries = 5

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Client fetches raw per-day trace payloads from ADS-B Exchange.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// Config tunes the Client's HTTP behavior.
type Config struct {
	Timeout          time.Duration
	RequestsPerSecond float64
	Burst            int
}

// NewClient builds a Client. Redirects are disabled to match the provider's
// expected session semantics (spec.md §4.3).
func NewClient(cfg Config, log *logger.Logger) *Client {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		logger:     log.Named("trace-client"),
	}
}

func url(icao string, day time.Time) string {
	day = day.UTC()
	suffix := icao
	if len(icao) >= 2 {
		suffix = icao[len(icao)-2:]
	}
	return fmt.Sprintf("https://globe.adsbexchange.com/globe_history/%04d/%02d/%02d/traces/%s/trace_full_%s.json",
		day.Year(), day.Month(), day.Day(), suffix, icao)
}

func sessionCookie() (string, error) {
	epochMs := time.Now().UTC().UnixMilli() + 172800000

	var b strings.Builder
	for i := 0; i < 13; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36Alphabet))))
		if err != nil {
			return "", fmt.Errorf("trace: generating session cookie: %w", err)
		}
		b.WriteByte(base36Alphabet[n.Int64()])
	}
	return fmt.Sprintf("%d_%s", epochMs, b.String()), nil
}

func (c *Client) newRequest(ctx context.Context, icao string, day time.Time) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url(icao, day), nil)
	if err != nil {
		return nil, fmt.Errorf("trace: building request: %w", err)
	}

	cookie, err := sessionCookie()
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", "https://globe.adsbexchange.com/")
	req.Header.Set("Cookie", "adsbx_sid="+cookie)
	return req, nil
}

// synthesize404 builds the canonical empty-trace payload returned when the
// provider has no data for an (icao, day): a 404 is not an error, it is an
// empty day (spec.md §4.3/§7).
func synthesize404() []byte {
	return []byte(`{"timestamp":1697155200.000,"trace":[],"noRegData":true}`)
}

func isTransient(statusCode int, err error) bool {
	if statusCode >= 500 {
		return true
	}
	// No response at all (connection reset, timeout), or a 200 whose body
	// was cut off mid-read.
	return err != nil && (statusCode == 0 || statusCode == http.StatusOK)
}

// Fetch retrieves the raw trace payload for (icao, day), retrying transient
// failures with exponential back-off up to MaxRetries attempts and
// synthesizing an empty trace on 404.
func (c *Client) Fetch(ctx context.Context, icao string, day time.Time) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
			c.logger.Debug("retrying trace fetch",
				logger.String("icao", icao), logger.Int("attempt", attempt), logger.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("trace: rate limiter: %w", err)
			}
		}

		data, statusCode, err := c.attempt(ctx, icao, day)
		if err == nil {
			return data, nil
		}
		if !isTransient(statusCode, err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("trace: exhausted %d retries for icao %s day %s: %w", MaxRetries, icao, day.Format("2006-01-02"), lastErr)
}

// attempt performs a single HTTP round trip and returns (body, statusCode,
// error). A 404 is resolved locally to the synthesized empty trace and never
// reported as an error.
func (c *Client) attempt(ctx context.Context, icao string, day time.Time) ([]byte, int, error) {
	req, err := c.newRequest(ctx, icao, day)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("trace: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return synthesize404(), http.StatusNotFound, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("trace: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("trace: reading body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// payload is the wire shape of a trace response: {"timestamp": ..., "trace": [[...], ...]}.
type payload struct {
	Timestamp float64           `json:"timestamp"`
	Trace     []json.RawMessage `json:"trace"`
	NoRegData bool              `json:"noRegData"`
}

// Decode parses raw trace bytes into Positions for the given day, applying
// the heterogeneous row decode rule of spec.md §4.3: index 0 is the seconds
// offset from the payload timestamp, 1 is latitude, 2 is longitude, 3 is
// either "ground" (grounded), a number (altitude in feet), or absent/null
// (row dropped).
func Decode(icao string, data []byte) ([]position.Position, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("trace: decoding payload: %w", err)
	}

	base := time.Unix(int64(p.Timestamp), 0).UTC()

	var out []position.Position
	for _, raw := range p.Trace {
		var row []json.RawMessage
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		pos, ok := decodeRow(icao, base, row)
		if !ok {
			continue
		}
		out = append(out, pos)
	}
	return out, nil
}

func decodeRow(icao string, base time.Time, row []json.RawMessage) (position.Position, bool) {
	if len(row) < 3 {
		return position.Position{}, false
	}

	var offsetSeconds, lat, lon float64
	if err := json.Unmarshal(row[0], &offsetSeconds); err != nil {
		return position.Position{}, false
	}
	if err := json.Unmarshal(row[1], &lat); err != nil {
		return position.Position{}, false
	}
	if err := json.Unmarshal(row[2], &lon); err != nil {
		return position.Position{}, false
	}

	pos := position.Position{
		ICAO:      icao,
		Datetime:  base.Add(time.Duration(offsetSeconds * float64(time.Second))),
		Latitude:  lat,
		Longitude: lon,
	}

	if len(row) < 4 {
		return position.Position{}, false
	}

	var asString string
	if err := json.Unmarshal(row[3], &asString); err == nil {
		if asString != "ground" {
			return position.Position{}, false
		}
		return pos, true
	}

	var altitude float64
	if err := json.Unmarshal(row[3], &altitude); err == nil {
		pos.Altitude = &altitude
		return pos, true
	}

	return position.Position{}, false
}
