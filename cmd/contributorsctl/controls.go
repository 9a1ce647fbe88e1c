package main

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// cliControls keeps cancel listeners of running jobs.
type cliControls struct {
	l logrus.FieldLogger

	m         sync.Mutex
	listeners map[string]func()
}

func newCLIControls(l logrus.FieldLogger) *cliControls {
	return &cliControls{
		l:         l,
		listeners: make(map[string]func()),
	}
}

func (c *cliControls) SetActionsStatus(loadEnabled bool, cancelEnabled bool) {
	c.l.Debugf("load enabled: %t, cancel enabled: %t", loadEnabled, cancelEnabled)
}

func (c *cliControls) AddCancelListener(jobID string, listener func()) {
	c.m.Lock()
	defer c.m.Unlock()

	c.listeners[jobID] = listener
}

func (c *cliControls) RemoveCancelListener(jobID string) {
	c.m.Lock()
	defer c.m.Unlock()

	delete(c.listeners, jobID)
}

// cancel calls all registered listeners. Returns number of called listeners.
func (c *cliControls) cancel() int {
	c.m.Lock()
	listeners := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.m.Unlock()

	for _, fn := range listeners {
		fn()
	}

	return len(listeners)
}
