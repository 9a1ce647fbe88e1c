package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Controls are the caller's actions toggled by job lifecycle.
type Controls interface {
	SetActionsStatus(newLoadingEnabled bool, cancellationEnabled bool)
	AddCancelListener(jobID string, listener func())
	RemoveCancelListener(jobID string)
}

type nopControls struct{}

func (nopControls) SetActionsStatus(bool, bool)      {}
func (nopControls) AddCancelListener(string, func()) {}
func (nopControls) RemoveCancelListener(string)      {}

// Coordinator launches strategies as cancellable jobs.
type Coordinator struct {
	observer Observer
	l        logrus.FieldLogger
	now      func() time.Time
}

// NewCoordinator creates new Coordinator instance. observer may be nil.
func NewCoordinator(observer Observer, l logrus.FieldLogger) *Coordinator {
	if observer == nil {
		observer = nopObserver{}
	}

	return &Coordinator{
		observer: observer,
		l:        l,
		now:      time.Now,
	}
}

// Launch starts strategy on a new goroutine and returns job handle.
// controls may be nil.
//
// Job ends when strategy sends terminal update, when Handle.Cancel is called
// or when ctx is done. Controls are restored exactly once, whatever happens first.
func (c *Coordinator) Launch(
	ctx context.Context,
	v Variant,
	strategy Strategy,
	spec RequestSpec,
	onUpdate UpdateFunc,
	controls Controls,
) *Handle {
	if controls == nil {
		controls = nopControls{}
	}
	jobCtx, cancel := context.WithCancel(ctx)

	h := &Handle{
		id:       uuid.New().String(),
		variant:  v,
		start:    c.now(),
		now:      c.now,
		cancel:   cancel,
		done:     make(chan struct{}),
		onUpdate: onUpdate,
		controls: controls,
		observer: c.observer,
	}
	h.l = c.l.WithFields(logrus.Fields{
		"job":     h.id,
		"variant": v.String(),
		"org":     spec.Org,
	})

	controls.SetActionsStatus(false, true)
	controls.AddCancelListener(h.id, h.Cancel)
	c.observer.JobStarted(v)
	h.l.Info("job started")

	go h.watch(jobCtx)
	go strategy.Run(jobCtx, spec, h.update)

	return h
}

// Handle controls a single job.
type Handle struct {
	id      string
	variant Variant
	start   time.Time
	now     func() time.Time
	cancel  context.CancelFunc
	l       logrus.FieldLogger

	onUpdate UpdateFunc
	controls Controls
	observer Observer

	// deliver serializes updates with the switch to a terminal state,
	// so no update is passed on after the job is finished.
	deliver sync.Mutex

	m       sync.Mutex
	state   State
	elapsed time.Duration

	finishOnce sync.Once
	terminalM  sync.Mutex
	finished   bool
	terminal   []func(Status)
	done       chan struct{}
}

// ID returns unique job id.
func (h *Handle) ID() string {
	return h.id
}

// Variant returns variant of the job strategy.
func (h *Handle) Variant() Variant {
	return h.variant
}

// Cancel requests job cancellation. Calling it more than once has no effect.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done returns chan closed when job reaches terminal state, after controls
// are restored. OnTerminal callbacks may still be running at that point.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until job is finished and returns its final status.
func (h *Handle) Wait() Status {
	<-h.done
	return h.Status()
}

// Status returns current job status.
func (h *Handle) Status() Status {
	h.m.Lock()
	defer h.m.Unlock()

	if h.state == InProgress {
		return Status{State: InProgress, Elapsed: h.now().Sub(h.start)}
	}
	return Status{State: h.state, Elapsed: h.elapsed}
}

// OnTerminal registers callback called once when job finishes.
// If job has already finished, callback is called immediately.
// Callbacks are called after Done is closed, so they may call Wait.
func (h *Handle) OnTerminal(callback func(Status)) {
	h.terminalM.Lock()
	if h.finished {
		h.terminalM.Unlock()
		callback(h.Status())
		return
	}
	h.terminal = append(h.terminal, callback)
	h.terminalM.Unlock()
}

func (h *Handle) update(result []Contributor, completed bool) {
	h.deliver.Lock()
	if !h.setState(completed) {
		h.deliver.Unlock()
		return
	}
	if h.onUpdate != nil {
		h.onUpdate(result, completed)
	}
	h.deliver.Unlock()

	if completed {
		h.finish()
		h.cancel()
	}
}

// setState returns false if job is already finished.
func (h *Handle) setState(completed bool) bool {
	h.m.Lock()
	defer h.m.Unlock()

	if h.state != InProgress {
		return false
	}
	if completed {
		h.state = Completed
		h.elapsed = h.now().Sub(h.start)
	}
	return true
}

func (h *Handle) watch(ctx context.Context) {
	<-ctx.Done()

	h.deliver.Lock()
	h.m.Lock()
	if h.state == InProgress {
		h.state = Canceled
		h.elapsed = h.now().Sub(h.start)
	}
	h.m.Unlock()
	h.deliver.Unlock()

	h.finish()
}

func (h *Handle) finish() {
	h.finishOnce.Do(func() {
		status := h.Status()

		h.controls.SetActionsStatus(true, false)
		h.controls.RemoveCancelListener(h.id)
		h.observer.JobFinished(h.variant, status)
		h.l.WithField("elapsed", status.Elapsed).Infof("job %s", status)

		h.terminalM.Lock()
		callbacks := h.terminal
		h.terminal = nil
		h.finished = true
		h.terminalM.Unlock()

		close(h.done)
		for _, cb := range callbacks {
			cb(status)
		}
	})
}
