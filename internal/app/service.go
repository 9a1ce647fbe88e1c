package app

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// Service is main apps entry point. Loads contributors using chosen strategy.
type Service struct {
	newClient   ClientFactory
	coordinator *Coordinator
	engineOpts  []EngineOption
	l           logrus.FieldLogger
}

// NewService creates new Service instance.
// observer may be nil.
func NewService(
	newClient ClientFactory,
	observer Observer,
	l logrus.FieldLogger,
	engineOpts ...EngineOption,
) *Service {
	if observer == nil {
		observer = nopObserver{}
	}

	return &Service{
		newClient:   newClient,
		coordinator: NewCoordinator(observer, l),
		engineOpts:  append([]EngineOption{WithObserver(observer)}, engineOpts...),
		l:           l,
	}
}

// Load validates request and launches loading job.
// Job is canceled when ctx is done. controls may be nil.
func (s *Service) Load(
	ctx context.Context,
	v Variant,
	spec RequestSpec,
	onUpdate UpdateFunc,
	controls Controls,
) (*Handle, error) {
	spec.Org = strings.TrimSpace(spec.Org)
	if spec.Org == "" {
		return nil, InvalidRequestError("organization cannot be empty")
	}

	engine := NewEngine(s.newClient(spec.Credentials), s.l, s.engineOpts...)
	strategy, err := engine.Strategy(v)
	if err != nil {
		return nil, err
	}

	return s.coordinator.Launch(ctx, v, strategy, spec, onUpdate, controls), nil
}
