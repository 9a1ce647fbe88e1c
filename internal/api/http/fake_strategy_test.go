package http

import (
	"context"
	"io"
	"time"

	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/sirupsen/logrus"
)

// scriptedStrategy sends given updates, the last one as terminal.
// With hang set, all updates are partial and Run waits for cancellation.
// delay is slept before every update.
type scriptedStrategy struct {
	updates [][]app.Contributor
	hang    bool
	delay   time.Duration
}

func (s scriptedStrategy) Run(ctx context.Context, spec app.RequestSpec, onUpdate app.UpdateFunc) {
	for i, u := range s.updates {
		time.Sleep(s.delay)
		onUpdate(u, !s.hang && i == len(s.updates)-1)
	}
	if s.hang {
		<-ctx.Done()
	}
}

type loadFunc func(context.Context, app.Variant, app.RequestSpec, app.UpdateFunc, app.Controls) (*app.Handle, error)

// launching returns mock action running s through a real coordinator.
func launching(s app.Strategy) loadFunc {
	c := app.NewCoordinator(nil, newTestLogger())
	return func(
		ctx context.Context,
		v app.Variant,
		spec app.RequestSpec,
		onUpdate app.UpdateFunc,
		controls app.Controls,
	) (*app.Handle, error) {
		return c.Launch(ctx, v, s, spec, onUpdate, controls), nil
	}
}

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}
