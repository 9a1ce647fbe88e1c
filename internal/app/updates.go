package app

import "sync"

// StatusUpdates passes the job status along with every update, as the job's
// Handle reports it. Use OnUpdate as the job's UpdateFunc and call Bind with
// the handle returned by Load or Launch. Updates wait until the handle is bound.
type StatusUpdates struct {
	fn    func(result []Contributor, status Status)
	once  sync.Once
	bound chan struct{}
	h     *Handle
}

// NewStatusUpdates creates new StatusUpdates instance calling fn for every update.
func NewStatusUpdates(fn func(result []Contributor, status Status)) *StatusUpdates {
	return &StatusUpdates{
		fn:    fn,
		bound: make(chan struct{}),
	}
}

// Bind sets the handle of the job. Only the first call has effect.
func (u *StatusUpdates) Bind(h *Handle) {
	u.once.Do(func() {
		u.h = h
		close(u.bound)
	})
}

// OnUpdate is the UpdateFunc of the job.
// Terminal update carries the same status as Handle.Wait returns.
func (u *StatusUpdates) OnUpdate(result []Contributor, completed bool) {
	<-u.bound
	u.fn(result, u.h.Status())
}
