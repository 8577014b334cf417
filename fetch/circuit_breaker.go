package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"

	"github.com/git-pkgs/icm/internal/core"
	"github.com/git-pkgs/icm/record"
)

// CircuitBreakerClient wraps a Client with per-host circuit breakers, so a
// dead resolver service fails fast instead of burning retries on every build.
type CircuitBreakerClient struct {
	client   *Client
	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

// NewCircuitBreakerClient creates a circuit breaker wrapper for a client.
func NewCircuitBreakerClient(c *Client) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		client:   c,
		breakers: make(map[string]*circuit.Breaker),
	}
}

// getBreaker returns or creates a circuit breaker for the given host.
func (cbc *CircuitBreakerClient) getBreaker(host string) *circuit.Breaker {
	cbc.mu.RLock()
	breaker, exists := cbc.breakers[host]
	cbc.mu.RUnlock()

	if exists {
		return breaker
	}

	cbc.mu.Lock()
	defer cbc.mu.Unlock()

	// Double-check after acquiring write lock
	if breaker, exists := cbc.breakers[host]; exists {
		return breaker
	}

	// Trips after 5 consecutive failures
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	opts := &circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	}
	breaker = circuit.NewBreakerWithOptions(opts)

	cbc.breakers[host] = breaker
	return breaker
}

// Resolution wraps the underlying client's Resolution with circuit breaker
// logic.
func (cbc *CircuitBreakerClient) Resolution(ctx context.Context, id int64) (*record.Resolution, error) {
	host := extractHost(cbc.client.baseURL)
	breaker := cbc.getBreaker(host)

	if !breaker.Ready() {
		return nil, fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}

	var res *record.Resolution
	err := breaker.Call(func() error {
		var fetchErr error
		res, fetchErr = cbc.client.Resolution(ctx, id)
		return fetchErr
	}, 0)

	if err != nil {
		return nil, err
	}

	return res, nil
}

// Packages returns the top-level packages of a resolution.
func (cbc *CircuitBreakerClient) Packages(ctx context.Context, id int64) ([]core.Package, error) {
	res, err := cbc.Resolution(ctx, id)
	if err != nil {
		return nil, err
	}
	pkgs, _ := res.Flatten()
	return pkgs, nil
}

// Edges returns every (package, dependency) attribution of a resolution.
func (cbc *CircuitBreakerClient) Edges(ctx context.Context, id int64) ([]core.Edge, error) {
	res, err := cbc.Resolution(ctx, id)
	if err != nil {
		return nil, err
	}
	_, edges := res.Flatten()
	return edges, nil
}

// extractHost extracts a host from a URL for circuit breaker grouping.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		// Fallback to simple truncation
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}

// GetBreakerState returns the current state of circuit breakers (for health checks).
func (cbc *CircuitBreakerClient) GetBreakerState() map[string]string {
	cbc.mu.RLock()
	defer cbc.mu.RUnlock()

	states := make(map[string]string)
	for host, breaker := range cbc.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}
