// Package metrics registers the bridge's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "casino"

// Label names
const (
	LabelGame   = "game"
	LabelResult = "result"
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelKind   = "kind"
)

// Result label values
const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultPush = "push"
)

// HTTPLatencyBuckets covers local bridge calls from sub-millisecond to a second.
var HTTPLatencyBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected notification clients",
		},
	)
)

// Game Metrics
var (
	BetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bets_total",
			Help:      "Settled actions by game and result",
		},
		[]string{LabelGame, LabelResult},
	)

	StakedCredits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "staked_credits_total",
			Help:      "Credits debited as stakes",
		},
		[]string{LabelGame},
	)

	PaidCredits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paid_credits_total",
			Help:      "Credits paid out by games",
		},
		[]string{LabelGame},
	)

	RejectedActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_actions_total",
			Help:      "Actions rejected before any ledger change",
		},
		[]string{LabelGame, LabelKind},
	)

	PlinkoBallsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plinko_balls_in_flight",
			Help:      "Plinko balls still animating",
		},
	)
)

// Ledger Metrics
var (
	Balance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_balance",
			Help:      "Current credit balance",
		},
	)

	DepositedCredits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deposited_credits_total",
			Help:      "Credits added through deposits and packages, bonus included",
		},
	)
)

// Autoplay Metrics
var (
	AutoplayRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autoplay_runs_total",
			Help:      "Autoplay runs by game and final state",
		},
		[]string{LabelGame, LabelResult},
	)
)
