// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsPublished counts Emit calls on the event bus, per event type.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_events_published_total",
		Help: "Number of events published to the debate event bus",
	}, []string{"type"})

	// EventsDelivered counts successful frame writes to stream handles.
	EventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_events_delivered_total",
		Help: "Number of event frames delivered to subscribers",
	})

	// EventsDropped counts frame writes that failed on a dead handle.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_events_dropped_total",
		Help: "Number of event frames dropped on failed writes",
	})

	// ModelCalls counts completion attempts against the provider.
	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_model_calls_total",
		Help: "Number of chat-completion calls, by outcome",
	}, []string{"outcome"})

	// AgentFallbacks counts agent-level degradations to deterministic output.
	AgentFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_agent_fallbacks_total",
		Help: "Number of agent fallbacks to deterministic output, by agent",
	}, []string{"agent"})
)
