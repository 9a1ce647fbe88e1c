package app

import "context"

// offloaded runs sequential loading on a separate goroutine.
type offloaded struct {
	s *sequential
}

// Run doesn't block.
func (o *offloaded) Run(ctx context.Context, spec RequestSpec, onUpdate UpdateFunc) {
	go o.s.Run(ctx, spec, onUpdate)
}
