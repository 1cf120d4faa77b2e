package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// TreeConfig holds supervisor failure handling settings
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultTreeConfig mirrors suture's defaults
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree groups background services into a messaging layer (notifier listeners,
// Kafka consumer) and an API layer (HTTP server) so a crashing consumer does
// not take the API down.
type Tree struct {
	root      *suture.Supervisor
	messaging *suture.Supervisor
	api       *suture.Supervisor
}

// NewTree builds the supervisor hierarchy
func NewTree(name string, log zerolog.Logger, cfg TreeConfig) *Tree {
	defaults := DefaultTreeConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = defaults.FailureDecay
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = defaults.FailureBackoff
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}

	childSpec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	rootSpec := childSpec
	rootSpec.EventHook = EventHook(log)

	root := suture.New(name, rootSpec)
	messaging := suture.New("messaging-layer", childSpec)
	api := suture.New("api-layer", childSpec)
	root.Add(messaging)
	root.Add(api)

	return &Tree{root: root, messaging: messaging, api: api}
}

// AddMessagingService registers a notifier or consumer worker
func (t *Tree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.messaging.Add(svc)
}

// AddAPIService registers the HTTP server
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is cancelled
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// EventHook logs supervisor events through zerolog
func EventHook(log zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		var evt *zerolog.Event
		switch e.Type() {
		case suture.EventTypeServicePanic:
			evt = log.Error()
		case suture.EventTypeServiceTerminate, suture.EventTypeStopTimeout, suture.EventTypeBackoff:
			evt = log.Warn()
		default:
			evt = log.Info()
		}
		evt.Fields(e.Map()).Msg(e.String())
	}
}

// Func adapts a function into a named suture service
type Func struct {
	Name string
	Run  func(ctx context.Context) error
}

// Serve implements suture.Service
func (f Func) Serve(ctx context.Context) error {
	return f.Run(ctx)
}

func (f Func) String() string {
	return f.Name
}
