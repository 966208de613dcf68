// Package guarded wraps a remote [embeddings.Provider] with a circuit
// breaker and a local fallback.
//
// Remote embedding backends fail in bursts: an expired key or a network
// partition makes every call slow-fail. The breaker trips after a run of
// consecutive failures so subsequent requests skip the doomed call and go
// straight to the fallback provider, then probes the primary again after a
// cooldown. Topic relevance scoring stays available throughout, only its
// embedding quality degrades.
package guarded

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"orato/pkg/embeddings"
)

const (
	defaultMaxFailures  = 5
	defaultResetTimeout = 30 * time.Second
	defaultProbes       = 3
)

// errOpen is returned by breaker.allow while the cooldown runs.
var errOpen = errors.New("guarded: primary circuit open")

// Provider routes Embed calls to a primary backend, falling back to a
// secondary when the primary fails or its breaker is open. Safe for
// concurrent use.
type Provider struct {
	primary  embeddings.Provider
	fallback embeddings.Provider
	breaker  *breaker
	log      *slog.Logger
}

var _ embeddings.Provider = (*Provider)(nil)

// Option is a functional option for [Provider].
type Option func(*Provider)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(p *Provider) {
		if log != nil {
			p.log = log
		}
	}
}

// WithBreaker tunes the failure threshold and cooldown.
func WithBreaker(maxFailures int, resetTimeout time.Duration) Option {
	return func(p *Provider) {
		if maxFailures > 0 {
			p.breaker.maxFailures = maxFailures
		}
		if resetTimeout > 0 {
			p.breaker.resetTimeout = resetTimeout
		}
	}
}

// New wraps primary with a breaker and fallback. Both providers must be
// non-nil.
func New(primary, fallback embeddings.Provider, opts ...Option) *Provider {
	p := &Provider{
		primary:  primary,
		fallback: fallback,
		breaker: &breaker{
			maxFailures:  defaultMaxFailures,
			resetTimeout: defaultResetTimeout,
			probes:       defaultProbes,
		},
		log: slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Embed implements [embeddings.Provider].
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements [embeddings.Provider]. A cancelled context is
// returned as-is and never counted against the primary.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := p.tryPrimary(ctx, texts)
	if err == nil {
		return vecs, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if !errors.Is(err, errOpen) {
		p.log.Warn("primary embedding backend failed, using fallback",
			"primary", p.primary.ModelID(), "error", err)
	}
	return p.fallback.EmbedBatch(ctx, texts)
}

func (p *Provider) tryPrimary(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.breaker.allow(); err != nil {
		return nil, err
	}
	vecs, err := p.primary.EmbedBatch(ctx, texts)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if tripped := p.breaker.record(err); tripped {
		p.log.Warn("primary embedding backend circuit opened",
			"primary", p.primary.ModelID(), "cooldown", p.breaker.resetTimeout)
	}
	return vecs, err
}

// Dimensions reports the primary's dimensionality; both backends serve the
// same request so vectors from different backends are never compared.
func (p *Provider) Dimensions() int { return p.primary.Dimensions() }

// ModelID identifies the primary backend.
func (p *Provider) ModelID() string { return p.primary.ModelID() }

// breaker is a three-state circuit breaker: closed forwards every call,
// open rejects until resetTimeout has elapsed since the last failure, and
// half-open admits a limited number of probes before deciding.
type breaker struct {
	maxFailures  int
	resetTimeout time.Duration
	probes       int

	mu          sync.Mutex
	open        bool
	failures    int
	lastFailure time.Time
	probesLeft  int
}

func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil
	}
	if time.Since(b.lastFailure) < b.resetTimeout {
		return errOpen
	}
	// Cooldown elapsed: admit probes.
	if b.probesLeft == 0 {
		b.probesLeft = b.probes
	}
	b.probesLeft--
	return nil
}

// record updates failure accounting and reports whether this call tripped
// the breaker open.
func (b *breaker) record(err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.open = false
		b.failures = 0
		b.probesLeft = 0
		return false
	}

	b.failures++
	b.lastFailure = time.Now()
	if b.open {
		// A failed probe restarts the cooldown.
		b.probesLeft = 0
		return false
	}
	if b.failures >= b.maxFailures {
		b.open = true
		return true
	}
	return false
}
