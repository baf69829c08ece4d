package classpath

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/albertocavalcante/go-classpath/capability"
	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/variant"
)

// Option configures a Resolver.
type Option func(*resolverConfig) error

type resolverConfig struct {
	capabilityRules    map[catalog.Capability]capability.SelectionRule
	compatibilityRules map[string]variant.CompatibilityRule
	maxDepth           int
	metrics            *Metrics
	onStage            func(Stage)

	// logger is nil unless WithLogger was used; see log().
	logger *slog.Logger
}

// WithCapabilityRule registers the rule that settles conflicts on a capability.
func WithCapabilityRule(c catalog.Capability, rule capability.SelectionRule) Option {
	return func(cfg *resolverConfig) error {
		if rule == nil {
			return fmt.Errorf("nil selection rule for capability %s", c)
		}
		if cfg.capabilityRules == nil {
			cfg.capabilityRules = make(map[catalog.Capability]capability.SelectionRule)
		}
		cfg.capabilityRules[c] = rule
		return nil
	}
}

// WithCompatibilityRule lets an attribute accept offered values other than
// the requested one.
func WithCompatibilityRule(attribute string, rule variant.CompatibilityRule) Option {
	return func(cfg *resolverConfig) error {
		if rule == nil {
			return fmt.Errorf("nil compatibility rule for attribute %s", attribute)
		}
		if cfg.compatibilityRules == nil {
			cfg.compatibilityRules = make(map[string]variant.CompatibilityRule)
		}
		cfg.compatibilityRules[attribute] = rule
		return nil
	}
}

// WithMaxDepth limits the length of dependency chains from the root.
// Zero means unlimited.
func WithMaxDepth(n int) Option {
	return func(cfg *resolverConfig) error {
		cfg.maxDepth = n
		return nil
	}
}

// WithMetrics records resolution metrics.
func WithMetrics(m *Metrics) Option {
	return func(cfg *resolverConfig) error {
		cfg.metrics = m
		return nil
	}
}

// WithStageHook calls fn on every stage transition, including StageFailed.
func WithStageHook(fn func(Stage)) Option {
	return func(cfg *resolverConfig) error {
		cfg.onStage = fn
		return nil
	}
}

// WithLogger sets a structured logger for resolution diagnostics.
// If not set, logging is disabled.
//
// Any slog backend works; zap users can use
// slog.New(zapslog.NewHandler(zapCore)).
func WithLogger(l *slog.Logger) Option {
	return func(cfg *resolverConfig) error {
		cfg.logger = l
		return nil
	}
}

func (c *resolverConfig) validate() error {
	if c.maxDepth < 0 {
		return errors.New("max depth must not be negative")
	}
	return nil
}

// log returns the configured logger, or a logger that discards everything.
func (c *resolverConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

func newResolverConfig(opts ...Option) (*resolverConfig, error) {
	c := &resolverConfig{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}
