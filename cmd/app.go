package main

import (
	"fmt"
	"log/slog"

	"github.com/angeloszaimis/cognitive-core/config"
	"github.com/angeloszaimis/cognitive-core/internal/domain"
	"github.com/angeloszaimis/cognitive-core/internal/domains/electronics"
	"github.com/angeloszaimis/cognitive-core/internal/domains/events"
	"github.com/angeloszaimis/cognitive-core/internal/domains/textanalysis"
	"github.com/angeloszaimis/cognitive-core/internal/engine"
	"github.com/angeloszaimis/cognitive-core/internal/memory"
	"github.com/angeloszaimis/cognitive-core/internal/metrics"
	"github.com/angeloszaimis/cognitive-core/internal/registry"
	"github.com/angeloszaimis/cognitive-core/internal/router"
)

// Registration priorities. Electronics outranks general text analysis
// so repair vocabulary reaches the specialist first.
const (
	priorityElectronics  = 8
	priorityTextAnalysis = 5
	priorityEvents       = 3
)

const domainVersion = "1.0.0"

// app bundles the wired processing core shared by serve and the
// one-shot commands.
type app struct {
	registry *registry.Registry
	router   *router.Router
	store    memory.Store
	engine   *engine.Engine
}

// buildApp assembles store, registry, router, and engine from the
// configuration. The collector may be nil for one-shot runs.
func buildApp(cfg *config.Config, log *slog.Logger, collector *metrics.Collector) (*app, error) {
	var store memory.Store
	if cfg.Memory.Enabled {
		js, err := memory.NewJSONStore(cfg.Memory.Path, log)
		if err != nil {
			return nil, fmt.Errorf("opening memory store: %w", err)
		}
		store = js
	}

	reg, err := buildRegistry(store, log)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	if collector != nil {
		reg.OnEvent(registry.EventHealthChange, func(name string, rec registry.Record) {
			collector.Emit(metrics.Event{Type: metrics.EventHealthChanged, Domain: name})
		})
	}

	rt := router.New(reg, nil, cfg.Routing.FailureThreshold, log)
	eng := engine.New(reg, rt, store, collector, log)

	return &app{registry: reg, router: rt, store: store, engine: eng}, nil
}

// Close releases the memory store. Safe to call on an app without one.
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// buildRegistry registers the built-in domain processors. The store may
// be nil, in which case electronics runs without case memory.
func buildRegistry(store memory.Store, log *slog.Logger) (*registry.Registry, error) {
	reg := registry.New(log)

	register := func(p domain.Processor, priority int) error {
		ok, err := reg.Register(p, registry.RegisterOptions{
			Version:  domainVersion,
			Priority: priority,
		})
		if err != nil {
			return fmt.Errorf("registering %s: %w", p.Name(), err)
		}
		if !ok {
			return fmt.Errorf("registering %s: already registered", p.Name())
		}
		return nil
	}

	if err := register(textanalysis.New(log), priorityTextAnalysis); err != nil {
		return nil, err
	}
	if err := register(events.New(log), priorityEvents); err != nil {
		return nil, err
	}
	if err := register(electronics.New(store, log), priorityElectronics); err != nil {
		return nil, err
	}

	return reg, nil
}
