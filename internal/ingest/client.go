package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/smazurov/restream/internal/logging"
	"github.com/smazurov/restream/internal/version"
)

// TwitchIngestsURL lists the Twitch ingest endpoints.
const TwitchIngestsURL = "https://ingest.twitch.tv/ingests"

// ErrUnsupportedService is returned when a service has no ingest list.
var ErrUnsupportedService = errors.New("service has no ingest catalog")

// StatusError is returned for unexpected HTTP responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Client fetches ingest catalogs.
type Client struct {
	httpClient *http.Client
	url        string
	attempts   uint
	delay      time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithURL overrides the catalog URL.
func WithURL(url string) Option {
	return func(cl *Client) { cl.url = url }
}

// WithRetry sets how often and how far apart failed requests are retried.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(cl *Client) {
		cl.attempts = attempts
		cl.delay = delay
	}
}

// NewClient creates a client for service.
func NewClient(service Service, opts ...Option) (*Client, error) {
	if service != ServiceTwitch {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedService, service)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		url:        TwitchIngestsURL,
		attempts:   3,
		delay:      time.Second,
		logger:     logging.GetLogger("ingest"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type ingestsResponse struct {
	Ingests []Ingest `json:"ingests"`
}

// Fetch downloads the catalog. Server errors and transport failures are
// retried, client errors are not.
func (c *Client) Fetch(ctx context.Context) (Catalog, error) {
	var catalog Catalog
	err := retry.New(
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Ingest fetch failed, retrying", "attempt", n+1, "error", err)
		}),
	).Do(func() error {
		var err error
		catalog, err = c.fetchOnce(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch ingests: %w", err)
	}
	c.logger.Debug("Fetched ingest catalog", "count", len(catalog))
	return catalog, nil
}

func (c *Client) fetchOnce(ctx context.Context) (Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var body ingestsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("decode ingests: %w", err))
	}
	return Catalog(body.Ingests), nil
}

func retryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
