// Package health probes the vector and graph backends and reports the
// outcome into the state manager.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/config"
	cierrors "github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/errors"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/state"
)

// Pinger is the capability a probe needs from a backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// VectorStore is the vector backend as seen by the prober.
type VectorStore interface {
	Pinger
}

// GraphStore is the optional graph backend as seen by the prober.
type GraphStore interface {
	Pinger
}

// ErrResourceExhausted marks a backend that is reachable but overloaded.
var ErrResourceExhausted = errors.New("backend resources exhausted")

const defaultProbeTimeout = 10 * time.Second

// Prober checks backend reachability and keeps the state manager's view of
// backend health current.
type Prober struct {
	state   *state.Manager
	vector  VectorStore
	graph   GraphStore
	enabled bool
	breaker *cierrors.CircuitBreaker
	retry   cierrors.RetryConfig
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithRetryConfig overrides the graph retry policy. MaxRetries is still
// taken from the configuration when set there.
func WithRetryConfig(rc cierrors.RetryConfig) Option {
	return func(p *Prober) { p.retry = rc }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProber creates a prober. graph may be nil when no graph store is
// configured. Retry count, circuit-breaker threshold and reset timeout come
// from cfg.
func NewProber(st *state.Manager, cfg *config.CodeIndexConfig, vector VectorStore, graph GraphStore, opts ...Option) *Prober {
	p := &Prober{
		state:   st,
		vector:  vector,
		graph:   graph,
		enabled: cfg != nil && cfg.GraphEnabled && graph != nil,
		retry:   cierrors.DefaultRetryConfig(),
		timeout: defaultProbeTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	threshold := config.DefaultGraphCircuitBreakerThreshold
	resetTimeout := 30 * time.Second
	if cfg != nil {
		if cfg.GraphCircuitBreakerThreshold != nil {
			threshold = *cfg.GraphCircuitBreakerThreshold
		}
		if cfg.GraphCircuitBreakerTimeout != nil && *cfg.GraphCircuitBreakerTimeout > 0 {
			resetTimeout = time.Duration(*cfg.GraphCircuitBreakerTimeout) * time.Millisecond
		}
		if cfg.GraphMaxRetries != nil {
			p.retry.MaxRetries = *cfg.GraphMaxRetries
		}
		if cfg.GraphQueryTimeout != nil && *cfg.GraphQueryTimeout > 0 {
			p.timeout = time.Duration(*cfg.GraphQueryTimeout) * time.Millisecond
		}
	}
	p.breaker = cierrors.NewCircuitBreaker("graph",
		cierrors.WithMaxFailures(threshold),
		cierrors.WithResetTimeout(resetTimeout))
	return p
}

// Breaker exposes the graph circuit breaker.
func (p *Prober) Breaker() *cierrors.CircuitBreaker {
	return p.breaker
}

// ProbeVector pings the vector store once. A failure puts the vector
// backend into error; a success clears a previous error.
func (p *Prober) ProbeVector(ctx context.Context) error {
	if p.vector == nil {
		return cierrors.New(cierrors.ErrCodeBackendUnreachable, "no vector store configured", nil)
	}

	err := p.ping(ctx, p.vector)
	if err != nil {
		c := state.CategorizeError(err)
		p.state.SetVectorStatus(state.VectorError, state.Detail{
			Err:             err,
			Category:        c.Category,
			RetrySuggestion: c.RetrySuggestion,
		})
		p.logger.Warn("vector_probe_failed", slog.String("error", err.Error()), slog.String("category", string(c.Category)))
		return cierrors.New(cierrors.ErrCodeBackendUnreachable, "vector store is unreachable", err).
			WithSuggestion(c.RetrySuggestion)
	}

	if p.state.GetCurrentStatus().VectorStatus == state.VectorError {
		p.state.SetVectorStatus(state.VectorIdle, state.Detail{Message: "Vector store reachable."})
	}
	p.logger.Debug("vector_probe_ok")
	return nil
}

// ProbeGraph pings the graph store through the circuit breaker with
// retries. A disabled graph is reported as such and never pinged.
func (p *Prober) ProbeGraph(ctx context.Context) error {
	if !p.enabled {
		p.state.SetGraphStatus(state.GraphDisabled, state.Detail{Message: "Graph indexing is disabled."})
		return nil
	}

	err := p.breaker.Execute(func() error {
		return cierrors.Retry(ctx, p.retry, func() error {
			return p.ping(ctx, p.graph)
		})
	})
	if err == nil {
		snap := p.state.GetCurrentStatus()
		if snap.GraphStatus.IsFailure() || snap.GraphConsecutiveFailures > 0 {
			p.state.ResetGraphConsecutiveFailures()
		}
		if p.state.GetCurrentStatus().GraphStatus.IsFailure() {
			p.state.SetGraphStatus(state.GraphIdle, state.Detail{Message: "Graph store reachable."})
		}
		p.logger.Debug("graph_probe_ok")
		return nil
	}

	status, code := classifyGraphError(err)
	c := state.CategorizeError(err)
	detail := state.Detail{Err: err, Category: c.Category, RetrySuggestion: c.RetrySuggestion}
	if errors.Is(err, cierrors.ErrCircuitOpen) {
		detail.Category = state.CategoryConnection
		detail.RetrySuggestion = fmt.Sprintf("The graph store failed %d times in a row; probes resume automatically after a cool-down.", p.breaker.Failures())
	}
	p.state.SetGraphStatus(status, detail)

	p.logger.Warn("graph_probe_failed",
		slog.String("error", err.Error()),
		slog.String("status", string(status)),
		slog.String("circuit", p.breaker.State().String()),
		slog.Int("consecutive_failures", p.state.GetGraphConsecutiveFailures()))
	return cierrors.New(code, "graph store probe failed", err).WithSuggestion(detail.RetrySuggestion)
}

// ProbeAll probes both backends and returns the first error.
func (p *Prober) ProbeAll(ctx context.Context) error {
	vErr := p.ProbeVector(ctx)
	gErr := p.ProbeGraph(ctx)
	if vErr != nil {
		return vErr
	}
	return gErr
}

func (p *Prober) ping(ctx context.Context, target Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return target.Ping(ctx)
}

// classifyGraphError maps a probe failure onto a graph status and error code.
func classifyGraphError(err error) (state.GraphStatus, string) {
	if errors.Is(err, ErrResourceExhausted) || looksExhausted(err.Error()) {
		return state.GraphResourceExhausted, cierrors.ErrCodeBackendOverloaded
	}
	if errors.Is(err, cierrors.ErrCircuitOpen) ||
		errors.Is(err, context.DeadlineExceeded) ||
		state.CategorizeError(err).Category == state.CategoryConnection {
		return state.GraphConnectionFailed, cierrors.ErrCodeBackendUnreachable
	}
	return state.GraphError, cierrors.ErrCodeBackendUnreachable
}

func looksExhausted(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range []string{"resource exhausted", "resourceexhausted", "out of memory", "too many connections", "pool exhausted"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
