package policy

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler is a business handler invoked with the fully refined context.
type Handler func(c *gin.Context, pc *Context)

// Observer records the outcome of each gated request.
type Observer interface {
	ObserveGate(ctx context.Context, route string, state State, failedAt Kind, duration time.Duration)
}

// GateOption configures a gate.
type GateOption func(*gate)

// WithObserver reports every execution outcome to o.
func WithObserver(o Observer) GateOption {
	return func(g *gate) {
		g.observer = o
	}
}

// WithRoute names the route in observations. Defaults to gin's FullPath.
func WithRoute(route string) GateOption {
	return func(g *gate) {
		g.route = route
	}
}

type gate struct {
	chain    *Chain
	handler  Handler
	logger   *slog.Logger
	observer Observer
	route    string
}

// Gate adapts a chain and handler to gin. The chain runs against every request; a
// rejection is written as the response and the handler is skipped.
func Gate(chain *Chain, handler Handler, logger *slog.Logger, opts ...GateOption) gin.HandlerFunc {
	g := &gate{chain: chain, handler: handler, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g.serve
}

func (g *gate) serve(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	exec := g.chain.Execute(ctx, Request{HTTP: c.Request})

	if g.observer != nil {
		route := g.route
		if route == "" {
			route = c.FullPath()
		}
		g.observer.ObserveGate(ctx, route, exec.State(), exec.FailedAt(), time.Since(start))
	}

	if exec.State() != StateSucceeded {
		rejection := exec.Rejection()
		if rejection.Status >= 500 {
			g.logger.Error("policy chain failed",
				slog.String("capability", string(exec.FailedAt())),
				slog.Int("status_code", rejection.Status),
				slog.Any("error", rejection.Err))
		} else {
			g.logger.Debug("policy chain rejected request",
				slog.String("capability", string(exec.FailedAt())),
				slog.Int("status_code", rejection.Status))
		}
		c.AbortWithStatusJSON(rejection.Status, rejection.Response)
		return
	}

	pc := exec.Context()
	c.Request = c.Request.WithContext(WithContext(ctx, pc))
	g.handler(c, pc)
}

type contextKey struct{}

// WithContext stores the capability context in ctx.
func WithContext(ctx context.Context, pc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, pc)
}

// FromContext retrieves the capability context stored by the gate.
func FromContext(ctx context.Context) (*Context, bool) {
	pc, ok := ctx.Value(contextKey{}).(*Context)
	return pc, ok
}
