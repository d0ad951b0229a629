// Package remote implements the fetch layer for the paginated directory API:
// a serialized HTTP client with capped exponential-backoff retry, and a
// poll-based connectivity monitor.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dkovalev/hubsync/internal/logging"
	"github.com/dkovalev/hubsync/internal/models"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// Client describes the remote fetch operations used by the sync layer.
type Client interface {
	// FetchPage returns one listing page: records with id > since,
	// at most perPage of them.
	FetchPage(ctx context.Context, since int64, perPage int) ([]models.Record, error)

	// FetchProfile returns the full detail shape for one login.
	FetchProfile(ctx context.Context, login string) (*models.RecordProfile, error)

	// FetchPageWithRetry is FetchPage with exponential-backoff retry on
	// retryable failures.
	FetchPageWithRetry(ctx context.Context, since int64, perPage int) ([]models.Record, error)

	// FetchProfileWithRetry is FetchProfile with the same retry policy.
	FetchProfileWithRetry(ctx context.Context, login string) (*models.RecordProfile, error)

	// Close drains the request queue and stops the worker.
	Close()
}

// queue capacity; enqueueing blocks once this many requests are waiting.
const queueCapacity = 64

type job struct {
	id     string // correlation id, logged with every state change
	ctx    context.Context
	path   string
	result chan jobResult
}

type jobResult struct {
	body []byte
	err  error
}

// HTTPClient executes GET requests against the directory API strictly one at
// a time: requests join a FIFO queue drained by a single worker goroutine,
// and the next request starts only after the current one's result has been
// delivered. The remote API is rate-limited; the serialization is the point,
// not an implementation accident.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger

	retries uint64
	delay   time.Duration

	jobs      chan *job
	done      chan struct{}
	closeOnce sync.Once
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient validates baseURL, starts the queue worker, and returns the
// client. retries and delay configure the backoff policy of the WithRetry
// variants.
func NewHTTPClient(baseURL string, retries int, delay time.Duration, log logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}

	c := &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
		retries: uint64(retries),
		delay:   delay,
		jobs:    make(chan *job, queueCapacity),
		done:    make(chan struct{}),
	}
	go c.run()
	return c, nil
}

// Close stops accepting requests and waits for the worker to finish the
// queue.
func (c *HTTPClient) Close() {
	c.closeOnce.Do(func() { close(c.jobs) })
	<-c.done
}

// run is the queue worker: one request in flight at any moment.
func (c *HTTPClient) run() {
	defer close(c.done)
	for j := range c.jobs {
		res := c.execute(j)
		j.result <- res
	}
}

func (c *HTTPClient) execute(j *job) jobResult {
	log := c.log.With("req_id", j.id, "path", j.path)

	reqURL := c.baseURL + j.path
	if _, err := url.Parse(reqURL); err != nil {
		return jobResult{err: fmt.Errorf("%w: %q", ErrInvalidURL, reqURL)}
	}

	req, err := http.NewRequestWithContext(j.ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return jobResult{err: fmt.Errorf("%w: %q", ErrInvalidURL, reqURL)}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn(j.ctx, "request failed", "err", err)
		return jobResult{err: fmt.Errorf("%w: %v", ErrServer, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Warn(j.ctx, "unexpected status", "status", resp.Status)
		return jobResult{err: fmt.Errorf("%w: status %s", ErrServer, resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return jobResult{err: fmt.Errorf("%w: reading body: %v", ErrServer, err)}
	}
	if len(body) == 0 {
		return jobResult{err: ErrNoData}
	}

	log.Debug(j.ctx, "request completed", "elapsed", time.Since(start))
	return jobResult{body: body}
}

// get enqueues a GET for path and waits for its result.
func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	j := &job{
		id:     uuid.NewString(),
		ctx:    ctx,
		path:   path,
		result: make(chan jobResult, 1),
	}

	select {
	case c.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-j.result:
		return res.body, res.err
	case <-ctx.Done():
		// The worker still finishes the request; the result is discarded.
		return nil, ctx.Err()
	}
}

func listPath(since int64, perPage int) string {
	q := url.Values{}
	q.Set("since", fmt.Sprintf("%d", since))
	q.Set("per_page", fmt.Sprintf("%d", perPage))
	return "/users?" + q.Encode()
}

func profilePath(login string) string {
	return "/users/" + url.PathEscape(login)
}

func (c *HTTPClient) FetchPage(ctx context.Context, since int64, perPage int) ([]models.Record, error) {
	body, err := c.get(ctx, listPath(since, perPage))
	if err != nil {
		return nil, err
	}

	var recs []models.Record
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	return recs, nil
}

func (c *HTTPClient) FetchProfile(ctx context.Context, login string) (*models.RecordProfile, error) {
	body, err := c.get(ctx, profilePath(login))
	if err != nil {
		return nil, err
	}

	var p models.RecordProfile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	return &p, nil
}

// withRetry runs fn under the client's backoff policy: delay doubles on each
// attempt (1s, 2s, 4s, ...) until retries is exhausted; the last error
// propagates. Only retryable failures are re-attempted.
func (c *HTTPClient) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.delay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && Retryable(err) {
			c.log.Warn(ctx, "request failed, will retry", "err", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *HTTPClient) FetchPageWithRetry(ctx context.Context, since int64, perPage int) ([]models.Record, error) {
	var recs []models.Record
	err := c.withRetry(ctx, func(ctx context.Context) error {
		var ferr error
		recs, ferr = c.FetchPage(ctx, since, perPage)
		return ferr
	})
	return recs, err
}

func (c *HTTPClient) FetchProfileWithRetry(ctx context.Context, login string) (*models.RecordProfile, error) {
	var p *models.RecordProfile
	err := c.withRetry(ctx, func(ctx context.Context) error {
		var ferr error
		p, ferr = c.FetchProfile(ctx, login)
		return ferr
	})
	return p, err
}
