package cmd

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/nxbridge/pkg/config"
	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
	"github.com/urmzd/nxbridge/pkg/influx"
	"github.com/urmzd/nxbridge/pkg/mqtt"
	"github.com/urmzd/nxbridge/pkg/nx587e"
	"github.com/urmzd/nxbridge/pkg/trace"
)

const pruneInterval = time.Hour

// openStore opens, migrates and seeds the database.
func openStore(ctx context.Context, c *config.Config) (*db.DB, error) {
	store, err := db.Open(c.Database.Path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", store.Path()).Msg("Database opened")

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	needsBootstrap, err := store.NeedsBootstrap(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, seeding device labels")
	}
	// Also picks up devices added by raising max_zone or max_partition.
	if err := store.Bootstrap(ctx, c.Panel.Limits()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// pruneHistory drops events older than the retention window until ctx ends.
func pruneHistory(ctx context.Context, history db.EventStore, retention time.Duration) {
	if retention <= 0 {
		return
	}

	prune := func() {
		n, err := history.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			log.Warn().Err(err).Msg("Failed to prune event history")
			return
		}
		if n > 0 {
			log.Info().Int64("removed", n).Msg("Pruned event history")
		}
	}

	prune()
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

// eventSink fans a controller event out to the optional outputs.
// It runs on the controller's event processor, so every output must be quick.
type eventSink struct {
	session atomic.Pointer[string]
	history db.EventStore
	mqtt    *mqtt.Client
	influx  *influx.Client
}

func (s *eventSink) setSession(id string) {
	s.session.Store(&id)
}

func (s *eventSink) handle(ev device.Event) {
	log.Debug().
		Str("kind", string(ev.Kind)).
		Int("id", ev.ID).
		Str("attribute", ev.Attribute).
		Bool("value", ev.Value).
		Msg("Panel event")

	if s.history != nil {
		var session string
		if p := s.session.Load(); p != nil {
			session = *p
		}
		if err := s.history.Record(context.Background(), session, ev); err != nil {
			log.Warn().Err(err).Str("event", ev.String()).Msg("Failed to record event")
		}
	}
	if s.mqtt != nil {
		if err := s.mqtt.PublishEvent(ev); err != nil {
			log.Warn().Err(err).Str("event", ev.String()).Msg("Failed to publish event")
		}
	}
	if s.influx != nil {
		s.influx.WriteEvent(ev)
	}
}

// panel bundles the running controller with what it exposes to the frontends.
type panel struct {
	ctrl       *nx587e.Controller
	controller device.Controller
	subscriber device.EventSubscriber
	recorder   *trace.FileRecorder
}

// openPanel starts the controller, or the null controller when disabled is
// set. Trace recording is attached when configured.
func openPanel(c *config.Config, sink *eventSink, disabled bool) (*panel, error) {
	if disabled {
		log.Warn().Msg("Running without a panel, commands and queries are unavailable")
		return &panel{
			controller: device.NewNullController(),
			subscriber: device.NewNullEventSubscriber(),
		}, nil
	}

	p := &panel{}
	opts := c.Panel.Options()
	if c.Trace.Enabled {
		rec, err := trace.NewFileRecorder(c.Trace.Path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", c.Trace.Path).Msg("Recording serial trace")
		p.recorder = rec
		opts.Tracer = rec
	}

	ctrl, err := nx587e.Open(c.Panel.Port, c.Panel.Baud, opts, sink.handle)
	if err != nil {
		if p.recorder != nil {
			_ = p.recorder.Close()
		}
		return nil, err
	}
	sink.setSession(ctrl.SessionID())

	p.ctrl = ctrl
	p.controller = ctrl
	p.subscriber = ctrl
	return p, nil
}

// Done is closed when the controller stops; nil without a panel.
func (p *panel) Done() <-chan struct{} {
	if p.ctrl == nil {
		return nil
	}
	return p.ctrl.Done()
}

// Err reports why the controller stopped.
func (p *panel) Err() error {
	if p.ctrl == nil {
		return nil
	}
	return p.ctrl.Err()
}

func (p *panel) Close() {
	if p.ctrl != nil {
		if err := p.ctrl.Stop(); err != nil {
			log.Warn().Err(err).Msg("Controller did not stop cleanly")
		}
	}
	if p.recorder != nil {
		if err := p.recorder.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close trace file")
		}
	}
}
