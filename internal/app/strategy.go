package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// UpdateFunc receives aggregated results.
// completed is true for the last (terminal) update of a job.
type UpdateFunc func(result []Contributor, completed bool)

// Strategy loads contributors of an organization and reports aggregated results.
//
// Run calls onUpdate with completed=true exactly once when loading finishes,
// and never when ctx is canceled before that. Some strategies report partial
// results with completed=false first. Depending on the strategy Run blocks
// until the job is done or returns immediately.
type Strategy interface {
	Run(ctx context.Context, spec RequestSpec, onUpdate UpdateFunc)
}

// Variant names a loading strategy.
type Variant int

// Available variants.
const (
	Blocking Variant = iota
	Background
	Callbacks
	Concurrent
	Progress
	Channels
)

var variantNames = []string{
	Blocking:   "blocking",
	Background: "background",
	Callbacks:  "callbacks",
	Concurrent: "concurrent",
	Progress:   "progress",
	Channels:   "channels",
}

// Variants returns all variants in declaration order.
func Variants() []Variant {
	return []Variant{Blocking, Background, Callbacks, Concurrent, Progress, Channels}
}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return variantNames[v]
}

// ParseVariant returns variant by its name. Name is case insensitive.
func ParseVariant(name string) (Variant, error) {
	for i, n := range variantNames {
		if strings.EqualFold(n, name) {
			return Variant(i), nil
		}
	}

	return 0, InvalidRequestError(fmt.Sprintf("unknown variant %q", name))
}

// DefaultChannelSize is the default capacity of the channels strategy buffer.
const DefaultChannelSize = 8

// Engine creates strategies sharing one github client.
type Engine struct {
	f              *fetcher
	channelSize    int
	maxConcurrency int
}

// EngineOption configures Engine.
type EngineOption func(*Engine)

// WithChannelSize sets capacity of the channel used by Channels strategy.
func WithChannelSize(size int) EngineOption {
	return func(e *Engine) {
		e.channelSize = size
	}
}

// WithMaxConcurrency limits the number of concurrent contributor requests
// made by Concurrent and Channels strategies. Zero means no limit.
func WithMaxConcurrency(n int) EngineOption {
	return func(e *Engine) {
		e.maxConcurrency = n
	}
}

// WithObserver sets observer notified about degraded fetches.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.f.observer = o
	}
}

// NewEngine creates new Engine instance.
func NewEngine(client GithubClient, l logrus.FieldLogger, opts ...EngineOption) *Engine {
	e := Engine{
		f: &fetcher{
			client:   client,
			observer: nopObserver{},
			l:        l,
		},
		channelSize: DefaultChannelSize,
	}
	for _, opt := range opts {
		opt(&e)
	}
	if e.channelSize < 1 {
		e.channelSize = 1
	}
	if e.maxConcurrency < 0 {
		e.maxConcurrency = 0
	}

	return &e
}

// Strategy returns strategy for given variant.
func (e *Engine) Strategy(v Variant) (Strategy, error) {
	switch v {
	case Blocking:
		return &sequential{f: e.f}, nil
	case Background:
		return &offloaded{s: &sequential{f: e.f}}, nil
	case Callbacks:
		return &callbacks{f: e.f}, nil
	case Concurrent:
		return &concurrent{f: e.f, limit: e.maxConcurrency}, nil
	case Progress:
		return &progressive{f: e.f}, nil
	case Channels:
		return &streaming{f: e.f, size: e.channelSize, limit: e.maxConcurrency}, nil
	default:
		return nil, InvalidRequestError(fmt.Sprintf("unknown variant %v", v))
	}
}
