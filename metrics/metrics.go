package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "connect_four"

	modeLabelName   = "mode"
	reasonLabelName = "reason"
	actorLabelName  = "actor"
)

// Label values
const (
	ModeBot   = "bot"
	ModePvP   = "pvp"
	ActorBot  = "bot"
	ActorUser = "human"
)

// Metrics holds every collector the server exports
type Metrics struct {
	GamesStarted     *prometheus.CounterVec
	GamesFinished    *prometheus.CounterVec
	MovesTotal       *prometheus.CounterVec
	ActiveGames      prometheus.Gauge
	QueueSize        prometheus.Gauge
	ConnectedClients prometheus.Gauge
	PersistFailures  prometheus.Counter
	GameDuration     prometheus.Histogram
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GamesStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "games_started_total",
				Help:      "games created, by mode",
			}, []string{modeLabelName}),
		GamesFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "games_finished_total",
				Help:      "games finished, by end reason",
			}, []string{reasonLabelName}),
		MovesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "moves_total",
				Help:      "moves applied, by actor",
			}, []string{actorLabelName}),
		ActiveGames: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_games",
				Help:      "games currently in progress",
			}),
		QueueSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_size",
				Help:      "players waiting for a match",
			}),
		ConnectedClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connected_clients",
				Help:      "open websocket connections",
			}),
		PersistFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_failures_total",
				Help:      "failed or dropped persistence tasks",
			}),
		GameDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "game_duration_seconds",
				Help:      "duration of finished games",
				Buckets:   prometheus.ExponentialBuckets(5, 2, 10),
			}),
	}

	if reg != nil {
		reg.MustRegister(m.collectors()...)
	}
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.GamesStarted,
		m.GamesFinished,
		m.MovesTotal,
		m.ActiveGames,
		m.QueueSize,
		m.ConnectedClients,
		m.PersistFailures,
		m.GameDuration,
	}
}

// GameMode returns the mode label for a game
func GameMode(isBot bool) string {
	if isBot {
		return ModeBot
	}
	return ModePvP
}
