// Package retry wraps outbound operations with bounded exponential-backoff
// retry, jitter, and transient-error classification. Each Policy owns its
// own statistics; sharing a policy across call sites is an explicit
// injection choice, never an implicit global.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/akisma/CostFX-sub001/agent"
)

// Default policy configuration.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	DefaultMaxDelay   = 30 * time.Second
)

// defaultRetryableStatuses are the HTTP status codes classified as
// transient.
var defaultRetryableStatuses = []int{429, 500, 502, 503, 504}

// StatusCoder is implemented by errors carrying an HTTP status code, such
// as provider API errors.
type StatusCoder interface {
	HTTPStatus() int
}

// Operation is a unit of work executed under the policy. It must be
// idempotent or read-only; the policy does not compensate for partial
// side effects.
type Operation func(ctx context.Context) (any, error)

// Options configures a Policy. Zero values fall back to the defaults;
// a negative MaxRetries disables retries entirely.
type Options struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	Jitter            time.Duration
	RetryableStatuses []int
	Logger            agent.Logger
}

// Stats is a snapshot of a policy's aggregate counters. SuccessRate is
// TotalSuccesses over TotalAttempts formatted as a percentage with two
// decimals.
type Stats struct {
	TotalAttempts   int64         `json:"totalAttempts"`
	TotalSuccesses  int64         `json:"totalSuccesses"`
	TotalRetries    int64         `json:"totalRetries"`
	TotalFailures   int64         `json:"totalFailures"`
	RetriesByStatus map[int]int64 `json:"retriesByStatusCode"`
	SuccessRate     string        `json:"successRate"`
}

// Policy executes operations with exponential backoff and jitter, retrying
// only errors classified as transient.
type Policy struct {
	maxRetries        int
	baseDelay         time.Duration
	maxDelay          time.Duration
	jitter            time.Duration
	retryableStatuses map[int]struct{}
	logger            agent.Logger

	mu              sync.Mutex
	rng             *rand.Rand
	totalAttempts   int64
	totalSuccesses  int64
	totalRetries    int64
	totalFailures   int64
	retriesByStatus map[int]int64
}

// New creates a retry policy from the given options.
func New(opts Options) *Policy {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if opts.RetryableStatuses == nil {
		opts.RetryableStatuses = defaultRetryableStatuses
	}
	if opts.Logger == nil {
		opts.Logger = agent.NewNoOpLogger()
	}

	statuses := make(map[int]struct{}, len(opts.RetryableStatuses))
	for _, code := range opts.RetryableStatuses {
		statuses[code] = struct{}{}
	}

	return &Policy{
		maxRetries:        opts.MaxRetries,
		baseDelay:         opts.BaseDelay,
		maxDelay:          opts.MaxDelay,
		jitter:            opts.Jitter,
		retryableStatuses: statuses,
		logger:            opts.Logger,
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
		retriesByStatus:   make(map[int]int64),
	}
}

// Execute runs the operation, retrying transient failures until success or
// until retries are exhausted. The original error is returned unwrapped; a
// permanently failing operation is attempted exactly 1+MaxRetries times.
// Backoff waits abort early when the context is cancelled.
func (p *Policy) Execute(ctx context.Context, label string, op Operation) (any, error) {
	for attempt := 0; ; attempt++ {
		p.recordAttempt()

		result, err := op(ctx)
		if err == nil {
			p.recordSuccess()
			return result, nil
		}

		if attempt >= p.maxRetries || !p.Retryable(err) {
			p.recordFailure()
			p.logger.Error("Operation failed",
				agent.Field{Key: "operation", Value: label},
				agent.Field{Key: "attempts", Value: attempt + 1},
				agent.Field{Key: "error", Value: SerializeError(err)},
			)
			return nil, err
		}

		p.recordRetry(err)

		delay := p.Backoff(attempt)
		p.logger.Warn("Operation failed, retrying",
			agent.Field{Key: "operation", Value: label},
			agent.Field{Key: "attempt", Value: attempt + 1},
			agent.Field{Key: "delay", Value: delay},
			agent.Field{Key: "error", Value: SerializeError(err)},
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.recordFailure()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Retryable classifies an error as transient. HTTP status codes in the
// retryable set win first, then known network-level failures; everything
// else is terminal.
func (p *Policy) Retryable(err error) bool {
	if err == nil {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		_, ok := p.retryableStatuses[sc.HTTPStatus()]
		return ok
	}

	return retryableNetworkError(err)
}

// Backoff computes the delay before the retry with the given 0-based
// index: baseDelay doubled per attempt, plus uniform jitter, capped at
// MaxDelay. Deterministic when the policy has no jitter.
func (p *Policy) Backoff(attempt int) time.Duration {
	delay := p.maxDelay
	if attempt < 63 {
		shifted := p.baseDelay << uint(attempt)
		if shifted > 0 && shifted < p.maxDelay {
			delay = shifted
		}
	}

	if p.jitter > 0 && delay < p.maxDelay {
		p.mu.Lock()
		delay += time.Duration(p.rng.Int63n(int64(p.jitter) + 1))
		p.mu.Unlock()
	}

	if delay > p.maxDelay {
		delay = p.maxDelay
	}

	return delay
}

// Stats returns a snapshot of the policy's counters.
func (p *Policy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	byStatus := make(map[int]int64, len(p.retriesByStatus))
	for code, count := range p.retriesByStatus {
		byStatus[code] = count
	}

	rate := "0.00%"
	if p.totalAttempts > 0 {
		rate = fmt.Sprintf("%.2f%%", float64(p.totalSuccesses)/float64(p.totalAttempts)*100)
	}

	return Stats{
		TotalAttempts:   p.totalAttempts,
		TotalSuccesses:  p.totalSuccesses,
		TotalRetries:    p.totalRetries,
		TotalFailures:   p.totalFailures,
		RetriesByStatus: byStatus,
		SuccessRate:     rate,
	}
}

// Reset zeroes all counters.
func (p *Policy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalAttempts = 0
	p.totalSuccesses = 0
	p.totalRetries = 0
	p.totalFailures = 0
	p.retriesByStatus = make(map[int]int64)
}

func (p *Policy) recordAttempt() {
	p.mu.Lock()
	p.totalAttempts++
	p.mu.Unlock()
}

func (p *Policy) recordSuccess() {
	p.mu.Lock()
	p.totalSuccesses++
	p.mu.Unlock()
}

func (p *Policy) recordFailure() {
	p.mu.Lock()
	p.totalFailures++
	p.mu.Unlock()
}

func (p *Policy) recordRetry(err error) {
	p.mu.Lock()
	p.totalRetries++
	var sc StatusCoder
	if errors.As(err, &sc) {
		p.retriesByStatus[sc.HTTPStatus()]++
	}
	p.mu.Unlock()
}

// retryableNetworkError reports whether the error is a transient
// network-level failure: connection reset/refused, timeouts, or DNS
// resolution misses.
func retryableNetworkError(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound || dnsErr.IsTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
